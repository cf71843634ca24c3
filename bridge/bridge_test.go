// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bridge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBridgeDeliversCommandsAndEvents(t *testing.T) {
	b := New(4, 4)

	b.Send(SendTransaction{Address: "mw2DzXinK8KaqunpYgjnGyCYcgHVb3SJWc", Amount: 1000, Fee: 10})
	cmd := <-b.Commands
	send, ok := cmd.(SendTransaction)
	require.True(t, ok)
	require.Equal(t, int64(1000), send.Amount)

	b.Emit(WalletCreated{Name: "primary"})
	evt := <-b.Events
	created, ok := evt.(WalletCreated)
	require.True(t, ok)
	require.Equal(t, "primary", created.Name)
}

func TestBridgeCloseStopsChannels(t *testing.T) {
	b := New(1, 1)
	b.Close()

	_, ok := <-b.Events
	require.False(t, ok)
	_, ok = <-b.Commands
	require.False(t, ok)
}
