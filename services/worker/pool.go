package worker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Result is the outcome of one item processed by MapLimit
type Result[R any] struct {
	Value R
	Err   error
}

// MapLimit runs fn over items with at most limit calls in flight. Each
// worker waits delay between two of its tasks. A panic in fn becomes that
// item's error. Results are returned in input order. Items not started
// before ctx is done get ctx.Err().
func MapLimit[T, R any](ctx context.Context, limit int, delay time.Duration, items []T, fn func(context.Context, T) (R, error)) []Result[R] {
	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}
	if limit < 1 {
		limit = 1
	}
	if limit > len(items) {
		limit = len(items)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < limit; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first := true
			for idx := range jobs {
				if !first && delay > 0 {
					select {
					case <-ctx.Done():
						results[idx] = Result[R]{Err: ctx.Err()}
						continue
					case <-time.After(delay):
					}
				}
				first = false
				results[idx] = run(ctx, items[idx], fn)
			}
		}()
	}

	for i := range items {
		if ctx.Err() != nil {
			results[i] = Result[R]{Err: ctx.Err()}
			continue
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			results[i] = Result[R]{Err: ctx.Err()}
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

func run[T, R any](ctx context.Context, item T, fn func(context.Context, T) (R, error)) (res Result[R]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[R]{Err: fmt.Errorf("worker panic: %v", r)}
		}
	}()
	v, err := fn(ctx, item)
	return Result[R]{Value: v, Err: err}
}
