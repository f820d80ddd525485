/*
NAME
  pool.go

DESCRIPTION
  pool.go provides a small fan-out/join worker pool used to decode
  independent grid cells or sample-transform inputs concurrently within
  one frame, and to encode grid cells and the colour/alpha categories,
  grounded on revid.Revid's wg/err-channel shape (sync.WaitGroup plus a
  channel of errors drained by one collector goroutine) generalized from
  "run N capture/transcode goroutines for the process lifetime" to "run N
  short-lived tasks and join before returning".

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package worker provides a bounded fan-out/join pool for running a batch
// of independent tasks (grid cells, encode categories) with a capped
// number of concurrent workers, joining before the caller proceeds.
package worker

import "sync"

// Run executes n independent tasks, at most maxConcurrency at a time,
// and blocks until all have finished. It returns the first non-nil error
// encountered, chosen by task index order, not completion order, so
// results are reproducible regardless of scheduling.
func Run(n int, maxConcurrency int, task func(i int) error) error {
	if n == 0 {
		return nil
	}
	if maxConcurrency <= 1 {
		for i := 0; i < n; i++ {
			if err := task(i); err != nil {
				return err
			}
		}
		return nil
	}

	errs := make([]error, n)
	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = task(i)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
