// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"fmt"
	"math/rand"
	"net"

	"github.com/btcspv/spvnode/spverr"
)

// discoverPeers resolves cfg.DNS to a shuffled list of "host:port"
// seed addresses, prepending cfg.ClientPeer when set. Grounded on the
// Rust original's src/node/peer_discovery/obtain_peers.rs: DNS lookup,
// shuffle, optional client-address prepend.
func (n *Node) discoverPeers() ([]string, error) {
	ips, err := net.LookupHost(n.cfg.DNS)
	if err != nil {
		return nil, fmt.Errorf("%w: dns lookup of %s: %v", spverr.ErrPeerExhaustion, n.cfg.DNS, err)
	}
	seeds := buildSeedList(ips, n.cfg.Params.DefaultPort, n.cfg.ClientPeer)
	if len(seeds) == 0 {
		return nil, spverr.ErrPeerExhaustion
	}
	return seeds, nil
}

// buildSeedList joins each resolved ip with port, shuffles the result,
// and prepends clientPeer when set. Split out from discoverPeers so the
// shuffle/prepend ordering is unit-testable without a real DNS lookup.
// Matches obtain_peers.rs shuffling with the process-global RNG rather
// than a reproducible seed.
func buildSeedList(ips []string, port, clientPeer string) []string {
	seeds := make([]string, len(ips))
	for i, ip := range ips {
		seeds[i] = net.JoinHostPort(ip, port)
	}

	rand.Shuffle(len(seeds), func(i, j int) {
		seeds[i], seeds[j] = seeds[j], seeds[i]
	})

	if clientPeer != "" {
		seeds = append([]string{clientPeer}, seeds...)
	}
	return seeds
}
