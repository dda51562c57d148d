// Package async runs bounded batches of independent work.
//
// Map and Batch fan items out over an errgroup limited to a number of
// workers. Each item gets its own timeout and panic recovery, so one failing
// item never cancels or crashes the rest. Results come back in input order:
//
//	results := async.Map(ctx, items, 4, 10*time.Second, func(ctx context.Context, item Item) (float64, error) {
//		return resolve(ctx, item)
//	})
package async
