package classifier

import (
	"context"
	"runtime"
	"sync"
)

// ClassifyAll classifies records concurrently and returns results in input
// order. workers <= 0 uses GOMAXPROCS. On cancellation the partial results are
// discarded and the context error is returned.
func (c *Classifier) ClassifyAll(ctx context.Context, records []Record, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(records) {
		workers = len(records)
	}

	results := make([]Result, len(records))
	if len(records) == 0 {
		return results, nil
	}

	indexes := make(chan int, workers)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = c.Classify(records[i])
			}
		}()
	}

	var cancelled error
produce:
	for i := range records {
		select {
		case indexes <- i:
		case <-ctx.Done():
			cancelled = ctx.Err()
			break produce
		}
	}

	close(indexes)
	wg.Wait()

	if cancelled != nil {
		return nil, cancelled
	}
	return results, nil
}
