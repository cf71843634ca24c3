// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSeedListJoinsHostPort(t *testing.T) {
	seeds := buildSeedList([]string{"192.0.2.1"}, "18333", "")
	require.Equal(t, []string{"192.0.2.1:18333"}, seeds)
}

func TestBuildSeedListPrependsClientPeer(t *testing.T) {
	seeds := buildSeedList([]string{"192.0.2.1", "192.0.2.2"}, "18333", "10.0.0.1:18333")
	require.Equal(t, "10.0.0.1:18333", seeds[0])
	require.Len(t, seeds, 3)
}

func TestBuildSeedListEmptyWithNoInput(t *testing.T) {
	seeds := buildSeedList(nil, "18333", "")
	require.Empty(t, seeds)
}
