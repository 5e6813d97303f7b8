package asyncx

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// AsyncAll runs fn for every item concurrently, at most limit at a time
// (limit <= 0 means unbounded). Results keep the order of items. The first
// error cancels the context passed to the remaining calls and is returned.
func AsyncAll[T any, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	results := make([]R, len(items))
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			r, err := fn(gctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Settled is the outcome of one item in AsyncAllSettled
type Settled[T any, R any] struct {
	Item  T
	Value R
	Err   error
}

// AsyncAllSettled is AsyncAll without fail-fast: every item reports its own error
func AsyncAllSettled[T any, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T) (R, error)) []Settled[T, R] {
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	out := make([]Settled[T, R], len(items))
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			v, err := fn(ctx, item)
			out[i] = Settled[T, R]{Item: item, Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
