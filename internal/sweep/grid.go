// Package sweep searches tuned constants, such as loss weights and learning
// rate, by exhaustively evaluating full optimization runs over a parameter
// grid.
package sweep

import (
	"context"
	"errors"
	"math"
)

// ErrEmptyGrid indicates a search with no parameters or values.
var ErrEmptyGrid = errors.New("sweep: empty grid")

// Evaluator runs one full optimization with the given named parameters and
// returns a score to minimize. Evaluations that error are skipped, not
// fatal: a weight combination whose barrier blows up is a legitimate grid
// point, just not a winner.
type Evaluator func(ctx context.Context, params map[string]float64) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, ErrEmptyGrid
	}
	for _, r := range ranges {
		if len(r) == 0 {
			return nil, ErrEmptyGrid
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search evaluates every grid point and returns the best parameters and
// score. It honors ctx between evaluations.
func (g *GridSearch) Search(ctx context.Context, eval Evaluator) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), eval, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, best, errors.New("sweep: no grid point evaluated successfully")
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	eval Evaluator,
	best *float64,
	bestParams *map[string]float64,
) error {
	if depth == len(g.paramNames) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		val, err := eval(ctx, current)
		if err != nil {
			// Cancellation surfacing through the evaluator ends the search;
			// any other failure is just a losing grid point.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		}
		if val < *best {
			*best = val
			copied := make(map[string]float64, len(current))
			for k, v := range current {
				copied[k] = v
			}
			*bestParams = copied
		}
		return nil
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[name] = val
		if err := g.searchRecursive(ctx, depth+1, current, eval, best, bestParams); err != nil {
			return err
		}
	}
	delete(current, name)
	return nil
}
