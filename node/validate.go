// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"sync"
	"time"

	"github.com/btcspv/spvnode/chaincfg"
	"github.com/btcspv/spvnode/wire"
)

// powWorkerPoolSize is the default number of goroutines validating
// proof of work concurrently across a header batch, per spec §5.
const powWorkerPoolSize = 30

// validateHeaders checks every header's proof of work and timestamp
// against a small fixed-size worker pool, fanning the batch out across
// up to powWorkerPoolSize goroutines and collecting the first error.
// Headers are still committed to the store sequentially by the caller
// once this returns nil, preserving chain order.
func validateHeaders(headers []*wire.BlockHeader, params *chaincfg.Params) error {
	if len(headers) == 0 {
		return nil
	}

	now := uint32(time.Now().Unix())

	workers := powWorkerPoolSize
	if workers > len(headers) {
		workers = len(headers)
	}

	jobs := make(chan *wire.BlockHeader, len(headers))
	errc := make(chan error, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for h := range jobs {
				if err := h.CheckProofOfWork(params.PowLimit); err != nil {
					errc <- err
					return
				}
				if err := h.CheckTimestamp(now); err != nil {
					errc <- err
					return
				}
			}
		}()
	}

	for _, h := range headers {
		jobs <- h
	}
	close(jobs)
	wg.Wait()
	close(errc)

	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}
