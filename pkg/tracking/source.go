package tracking

import "context"

// Source produces the current value of one tracked metric
type Source interface {
	Value(ctx context.Context) (float64, error)
}

type staticSource float64

func (s staticSource) Value(context.Context) (float64, error) {
	return float64(s), nil
}

// Static returns a Source with a fixed value
func Static(v float64) Source {
	return staticSource(v)
}

// SourceFunc adapts a function to a Source
type SourceFunc func(ctx context.Context) (float64, error)

// Value calls f
func (f SourceFunc) Value(ctx context.Context) (float64, error) {
	return f(ctx)
}

// Func returns a Source backed by fn
func Func(fn func(ctx context.Context) (float64, error)) Source {
	return SourceFunc(fn)
}

// CountFunc returns a Source backed by an integer producer
func CountFunc(fn func(ctx context.Context) (int64, error)) Source {
	return SourceFunc(func(ctx context.Context) (float64, error) {
		n, err := fn(ctx)
		if err != nil {
			return 0, err
		}
		return float64(n), nil
	})
}
