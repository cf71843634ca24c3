// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/btcspv/spvnode/wire"
)

func TestValidateHeadersAcceptsBatchUnderEasyTarget(t *testing.T) {
	params := testParams()
	headers := make([]*wire.BlockHeader, 0, powWorkerPoolSize*2+3)
	prev := wire.Hash{}
	for i := 0; i < powWorkerPoolSize*2+3; i++ {
		h := testHeader(prev, uint32(i+1), 1)
		headers = append(headers, h)
		prev = h.BlockHash()
	}
	require.NoError(t, validateHeaders(headers, params))
}

func TestValidateHeadersRejectsOutOfRangeTarget(t *testing.T) {
	params := testParams()
	bad := testHeader(wire.Hash{}, 1, 1)

	params.PowLimit = big.NewInt(1) // any header's target now exceeds the network limit.

	require.Error(t, validateHeaders([]*wire.BlockHeader{bad}, params))
}

func TestValidateHeadersRejectsFarFutureTimestamp(t *testing.T) {
	params := testParams()
	farFuture := uint32(time.Now().Unix()) + 3*60*60
	bad := testHeader(wire.Hash{}, 1, farFuture)

	require.Error(t, validateHeaders([]*wire.BlockHeader{bad}, params))
}
