package async

import (
	"context"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/pulse/pkg/observability"
)

// Result is the outcome of processing one item
type Result[R any] struct {
	Value R
	Err   error
}

// Map applies fn to every item using at most workers goroutines and returns
// the results in input order. A failing or panicking item does not stop the
// others; its error is stored in its Result.
//
// Example:
//
//	results := async.Map(ctx, metrics, 4, 10*time.Second, func(ctx context.Context, m tracking.Metric) (float64, error) {
//	    return m.Source.Value(ctx)
//	})
func Map[T, R any](ctx context.Context, items []T, workers int, timeout time.Duration,
	fn func(context.Context, T) (R, error)) []Result[R] {

	if workers < 1 {
		workers = 1
	}

	results := make([]Result[R], len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			results[i] = run(ctx, timeout, item, fn)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func run[T, R any](ctx context.Context, timeout time.Duration, item T, fn func(context.Context, T) (R, error)) (result Result[R]) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			observability.GetLogger(ctx).WithField("stack", string(debug.Stack())).
				Errorf("panic in batch item: %v", r)
			result.Err = observability.PanicError(r)
		}
	}()

	value, err := fn(ctx, item)
	return Result[R]{Value: value, Err: err}
}

// Batch runs fn for every item with at most workers goroutines and returns
// the errors encountered, in input order.
func Batch[T any](ctx context.Context, items []T, workers int, timeout time.Duration,
	fn func(context.Context, T) error) []error {

	results := Map(ctx, items, workers, timeout, func(ctx context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	})

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
