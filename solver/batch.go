package solver

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/bjev/game"
)

// EvaluateBatch computes the EV of independent states concurrently. Each
// worker uses its own transposition table; all of them share the
// persistent store. A single evaluation is not interruptible, so ctx is
// only checked between states.
func (s *Solver) EvaluateBatch(ctx context.Context, states []game.State) ([]float64, error) {
	evs := make([]float64, len(states))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.threads)
	for i, st := range states {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			w := s.child()
			ev, err := w.ExpectedValue(st)
			if err != nil {
				return err
			}
			evs[i] = ev
			s.nodes.Add(w.Nodes())
			s.persisted.Add(w.Persisted())
			log.Debug().Int("idx", i).Float64("ev", ev).Uint64("nodes", w.Nodes()).Msg("batch-state-done")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return evs, nil
}
