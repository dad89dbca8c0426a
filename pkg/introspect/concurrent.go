// SPDX-License-Identifier: Apache-2.0

package introspect

import "sync"

// Concurrently runs each fetch function against the same connection pool
// and waits for all of them, returning the first error encountered. Callers merge results by sorted key once all fetches
// return, so the merge itself stays deterministic regardless of completion
// order.
func Concurrently(fetches ...func() error) error {
	var wg sync.WaitGroup
	errs := make([]error, len(fetches))

	for i, fetch := range fetches {
		wg.Add(1)
		go func(i int, fetch func() error) {
			defer wg.Done()
			errs[i] = fetch()
		}(i, fetch)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
