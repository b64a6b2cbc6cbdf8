// Package montecarlo estimates the EV of a blackjack position by playing it
// out many times with random draws. It is an empirical check on the exact
// solver, and works for shoes too large to solve exactly.
package montecarlo

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/domino14/bjev/card"
	"github.com/domino14/bjev/game"
	"github.com/domino14/bjev/shoe"
	"github.com/domino14/bjev/solver"
	"github.com/domino14/bjev/stats"
)

const (
	DefaultIterations      = 10000
	DefaultTargetHalfWidth = 0.005
	histogramBins          = 8
	histogramWidth         = 40
	defaultSeedRounds      = 12
	defaultRNGBufferSize   = 1024
	seedLength             = 32
)

var ErrNoIterations = errors.New("iterations must be positive")

type Simmer struct {
	threads           int
	policy            Policy
	stoppingCondition StoppingCondition
	targetHalfWidth   float64
	seed              []byte

	simming atomic.Bool
}

// NewSimmer creates a simulator that plays the player's decisions with p.
func NewSimmer(p Policy) *Simmer {
	return &Simmer{
		threads:         max(1, runtime.NumCPU()-1),
		policy:          p,
		targetHalfWidth: DefaultTargetHalfWidth,
	}
}

func (s *Simmer) SetThreads(threads int) {
	s.threads = max(1, threads)
}

func (s *Simmer) Threads() int {
	return s.threads
}

func (s *Simmer) SetStoppingCondition(sc StoppingCondition, targetHalfWidth float64) {
	s.stoppingCondition = sc
	s.targetHalfWidth = targetHalfWidth
}

// SetSeed makes the simulation reproducible for a fixed thread count. A nil
// seed draws fresh randomness on every run.
func (s *Simmer) SetSeed(seed []byte) {
	s.seed = seed
}

func (s *Simmer) IsSimming() bool {
	return s.simming.Load()
}

// Result summarizes a simulation.
type Result struct {
	Mean       float64
	StdErr     float64
	Iterations int
	Histogram  histogram.Histogram

	stat stats.Statistic
}

// HalfWidth of the 95% confidence interval around Mean.
func (r Result) HalfWidth() float64 {
	return r.stat.HalfWidth(stats.Z95)
}

func (r Result) Min() float64 { return r.stat.Min() }
func (r Result) Max() float64 { return r.stat.Max() }

func (r Result) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "mean %.6f +/- %.6f (95%%), stderr %.6f, %d playouts\n",
		r.Mean, r.HalfWidth(), r.StdErr, r.Iterations)
	if r.Iterations > 0 {
		if err := histogram.Fprint(&b, r.Histogram, histogram.Linear(histogramWidth)); err != nil {
			fmt.Fprintf(&b, "histogram: %v\n", err)
		}
	}
	return b.String()
}

func (s *Simmer) threadRNG(thread int) *frand.RNG {
	if s.seed == nil {
		return frand.New()
	}
	seed := make([]byte, seedLength)
	copy(seed, s.seed)
	binary.LittleEndian.PutUint32(seed[seedLength-4:],
		binary.LittleEndian.Uint32(seed[seedLength-4:])^uint32(thread))
	return frand.NewCustom(seed, defaultRNGBufferSize, defaultSeedRounds)
}

// Simulate plays g out up to iterations times and returns the payoff
// statistics. An un-dealt or partly dealt g is dealt at random on every
// playout.
func (s *Simmer) Simulate(ctx context.Context, g game.State, iterations int) (Result, error) {
	logger := zerolog.Ctx(ctx)
	if iterations <= 0 {
		return Result{}, ErrNoIterations
	}
	if n := cardsToDeal(g); n > g.Shoe().Total() {
		return Result{}, fmt.Errorf("%w: need %d cards, shoe has %d",
			game.ErrShoeTooSmall, n, g.Shoe().Total())
	}
	s.simming.Store(true)
	defer s.simming.Store(false)

	var (
		mu      sync.Mutex
		st      stats.Statistic
		payoffs = make([]float64, 0, iterations)
		next    atomic.Int64
		stopped atomic.Bool
	)
	eg, gctx := errgroup.WithContext(ctx)
	for t := range s.threads {
		eg.Go(func() error {
			rng := s.threadRNG(t)
			for !stopped.Load() && gctx.Err() == nil {
				if next.Add(1) > int64(iterations) {
					return nil
				}
				payoff, err := playout(g, rng, s.policy)
				if err != nil {
					return fmt.Errorf("thread %d: %w", t, err)
				}
				mu.Lock()
				st.Push(payoff)
				payoffs = append(payoffs, payoff)
				if st.Iterations()%stopCheckInterval == 0 &&
					shouldStop(&st, s.stoppingCondition, s.targetHalfWidth) {
					logger.Debug().Int("iterations", st.Iterations()).
						Float64("stderr", st.StandardError()).Msg("reached-stopping-condition")
					stopped.Store(true)
				}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logger.Debug().Msgf("errgroup returned err %v", err)
		return Result{}, err
	}
	res := Result{
		Mean:       st.Mean(),
		StdErr:     st.StandardError(),
		Iterations: st.Iterations(),
		stat:       st,
	}
	if len(payoffs) > 0 {
		res.Histogram = histogram.Hist(histogramBins, payoffs)
	}
	logger.Info().Float64("mean", res.Mean).Float64("stderr", res.StdErr).
		Int("iterations", res.Iterations).Msg("sim-done")
	// A cancelled sim still reports what it played.
	return res, ctx.Err()
}

func cardsToDeal(g game.State) int {
	n := max(0, 2-g.NumHandCards())
	if g.NumDealerCards() == 0 {
		n++
	}
	return n
}

func drawRandom(g game.State, rng shoe.Rand, draw func(game.State, card.Value) (game.State, error)) (game.State, error) {
	v, _, err := g.Shoe().DrawRandom(rng)
	if err != nil {
		return g, err
	}
	return draw(g, v)
}

// playout finishes one hand with random cards and returns the payoff.
func playout(g game.State, rng shoe.Rand, p Policy) (float64, error) {
	var err error
	for {
		if payoff, ok := solver.Outcome(g); ok {
			return payoff, nil
		}
		switch {
		case g.NumHandCards() < 2:
			g, err = drawRandom(g, rng, game.State.PlayerDraw)
		case g.NumDealerCards() == 0:
			g, err = drawRandom(g, rng, game.State.DealerDraw)
		case g.Stayed():
			g, err = drawRandom(g, rng, game.State.DealerDraw)
		case g.Shoe().Total() == 0 || p.Action(g) == solver.ActionStay:
			g = g.Stay()
		default:
			g, err = g.Hit(rng)
		}
		if err != nil {
			return 0, err
		}
	}
}
