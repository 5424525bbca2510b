package posterior

import (
	"context"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// EvaluateBatch evaluates the log-posterior at every draw concurrently, at
// most workers at a time, and returns the values in draw order. Each
// evaluation owns a private copy of its parameter vector, so the caller may
// keep mutating the originals. Independent chains or mode-search
// trajectories are the natural unit of parallelism for this engine.
func (e *Evaluator) EvaluateBatch(ctx context.Context, draws []Vector, data *mat.Dense, workers int) ([]float64, error) {
	out := make([]float64, len(draws))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := range draws {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := e.Posterior(draws[i].Clone(), data)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
