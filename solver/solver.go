// Package solver computes the exact expected value of a blackjack position
// by enumerating every future draw from the shoe, weighted by its
// probability.
package solver

import (
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog/log"

	"github.com/domino14/bjev/card"
	"github.com/domino14/bjev/evcache"
	"github.com/domino14/bjev/game"
	"github.com/domino14/bjev/statekey"
)

// Payoffs, in units of the wager.
const (
	WinPayoff       = 1.0
	BlackjackPayoff = 1.5
	PushPayoff      = 0.0
	LossPayoff      = -1.0
)

// DefaultPersistThreshold is how long a node must take to compute before its
// EV is written to the persistent store.
const DefaultPersistThreshold = 5 * time.Second

// cards dealt before the player acts: two to the player, one dealer upcard.
const handCardsDealt = 2

type Solver struct {
	store            evcache.Store
	ttable           *evcache.MemoryStore
	ttableCapacity   int
	persistThreshold time.Duration
	clock            quartz.Clock

	transpositionTableOptim bool
	threads                 int

	nodes     atomic.Uint64
	persisted atomic.Uint64
	storeHits atomic.Uint64
}

type Option func(*Solver)

// WithStore sets the persistent store consulted before computing a node
// and written after computing an expensive one.
func WithStore(s evcache.Store) Option {
	return func(sv *Solver) { sv.store = s }
}

// WithPersistThreshold sets how long a node must take before its EV is
// persisted.
func WithPersistThreshold(d time.Duration) Option {
	return func(sv *Solver) { sv.persistThreshold = d }
}

func WithClock(c quartz.Clock) Option {
	return func(sv *Solver) { sv.clock = c }
}

// WithTranspositionTable turns the in-process memo of every visited node on
// or off. capacity 0 means unbounded.
func WithTranspositionTable(on bool, capacity int) Option {
	return func(sv *Solver) {
		sv.transpositionTableOptim = on
		sv.ttableCapacity = capacity
	}
}

func WithThreads(n int) Option {
	return func(sv *Solver) { sv.threads = max(1, n) }
}

func New(opts ...Option) *Solver {
	s := &Solver{
		store:                   evcache.NoStore{},
		persistThreshold:        DefaultPersistThreshold,
		clock:                   quartz.NewReal(),
		transpositionTableOptim: true,
		threads:                 max(1, runtime.NumCPU()-1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.transpositionTableOptim {
		s.ttable = evcache.NewMemoryStore(s.ttableCapacity)
	}
	return s
}

// child returns a solver sharing this one's configuration and persistent
// store, with its own transposition table.
func (s *Solver) child() *Solver {
	return New(
		WithStore(s.store),
		WithPersistThreshold(s.persistThreshold),
		WithClock(s.clock),
		WithTranspositionTable(s.transpositionTableOptim, s.ttableCapacity),
		WithThreads(1),
	)
}

func (s *Solver) Threads() int {
	return s.threads
}

// Nodes is the number of positions visited since the last Reset.
func (s *Solver) Nodes() uint64 {
	return s.nodes.Load()
}

// Persisted is the number of EVs written to the persistent store.
func (s *Solver) Persisted() uint64 {
	return s.persisted.Load()
}

// Reset clears the transposition table and counters. The persistent store
// is left alone.
func (s *Solver) Reset() {
	if s.ttable != nil {
		s.ttable.Reset()
	}
	s.nodes.Store(0)
	s.persisted.Store(0)
	s.storeHits.Store(0)
}

func (s *Solver) LogStats() {
	ttSize := 0
	if s.ttable != nil {
		ttSize = s.ttable.Len()
	}
	log.Info().
		Uint64("nodes", s.Nodes()).
		Int("ttable-entries", ttSize).
		Uint64("store-hits", s.storeHits.Load()).
		Uint64("persisted", s.Persisted()).
		Msg("solver-stats")
}

func cardsToDeal(g game.State) int {
	n := 0
	if h := g.NumHandCards(); h < handCardsDealt {
		n += handCardsDealt - h
	}
	if g.NumDealerCards() == 0 {
		n++
	}
	return n
}

// ExpectedValue returns the EV of g under optimal hit/stay play. An
// un-dealt (or partly dealt) state is valued as the expectation over every
// possible deal.
func (s *Solver) ExpectedValue(g game.State) (float64, error) {
	if n := cardsToDeal(g); n > g.Shoe().Total() {
		return 0, fmt.Errorf("%w: need %d cards, shoe has %d",
			game.ErrShoeTooSmall, n, g.Shoe().Total())
	}
	return s.expectedValue(g), nil
}

func (s *Solver) expectedValue(g game.State) float64 {
	s.nodes.Add(1)
	if ev, ok := Outcome(g); ok {
		return ev
	}

	key := statekey.Key(g)
	if s.transpositionTableOptim {
		if ev, ok := s.ttable.Get(key); ok {
			return ev
		}
	}
	if ev, ok := s.store.Get(key); ok {
		s.storeHits.Add(1)
		log.Debug().Str("key", key).Float64("ev", ev).Msg("got-cached-ev")
		s.remember(key, ev)
		return ev
	}

	start := s.clock.Now()
	var ev float64
	switch {
	case cardsToDeal(g) > 0:
		ev = s.dealValue(g)
	case g.Stayed():
		ev = s.dealerDrawValue(g)
	default:
		ev = s.decisionValue(g)
	}
	s.remember(key, ev)

	if elapsed := s.clock.Since(start); elapsed > s.persistThreshold {
		log.Info().Str("key", key).Float64("ev", ev).
			Dur("elapsed", elapsed).Msg("caching-ev")
		if err := s.store.Put(key, ev); err != nil {
			log.Err(err).Str("key", key).Msg("ev-cache-write-failed")
		} else {
			s.persisted.Add(1)
		}
	}
	return ev
}

func (s *Solver) remember(key string, ev float64) {
	if !s.transpositionTableOptim {
		return
	}
	// A full table only costs recomputation.
	_ = s.ttable.Put(key, ev)
}

// Outcome returns the payoff of a position that is decided without drawing
// another card. ok is false while a card still has to be dealt or drawn.
func Outcome(g game.State) (payoff float64, ok bool) {
	if cardsToDeal(g) > 0 {
		return 0, false
	}
	if g.IsDealerBlackjack() {
		if g.IsHandBlackjack() {
			return PushPayoff, true
		}
		return LossPayoff, true
	}
	if g.IsHandBust() {
		return LossPayoff, true
	}
	if g.IsDealerBust() {
		if g.IsHandBlackjack() {
			return BlackjackPayoff, true
		}
		return WinPayoff, true
	}
	if !g.Stayed() {
		return 0, false
	}
	if g.IsHandBlackjack() {
		return BlackjackPayoff, true
	}
	hv, dv := g.HandValue(), g.DealerValue()
	if dv > hv {
		return LossPayoff, true
	}
	// A dealer that would have to draw from an empty shoe stands.
	if dv >= game.DealerStandsOn || g.Shoe().Total() == 0 {
		return compareTotals(hv, dv), true
	}
	return 0, false
}

func compareTotals(hv, dv int) float64 {
	switch {
	case dv == hv:
		return PushPayoff
	case dv > hv:
		return LossPayoff
	}
	return WinPayoff
}

type drawFunc func(game.State, card.Value) (game.State, error)

// drawExpectation is the probability-weighted EV over every value the next
// card can take.
func (s *Solver) drawExpectation(g game.State, draw drawFunc) float64 {
	probs := g.Shoe().DrawProbabilities()
	ev := 0.0
	for i, p := range probs {
		if p == 0 {
			continue
		}
		next, err := draw(g, card.Value(i))
		if err != nil {
			// The shoe reported a nonzero count for this value.
			panic(err)
		}
		ev += p * s.expectedValue(next)
	}
	return ev
}

// dealValue deals the next card of the initial deal (player, player, then
// the dealer's upcard) by expectation.
func (s *Solver) dealValue(g game.State) float64 {
	if g.NumHandCards() < handCardsDealt {
		return s.drawExpectation(g, game.State.PlayerDraw)
	}
	return s.drawExpectation(g, game.State.DealerDraw)
}

func (s *Solver) dealerDrawValue(g game.State) float64 {
	return s.drawExpectation(g, game.State.DealerDraw)
}

func (s *Solver) hitValue(g game.State) float64 {
	return s.drawExpectation(g, game.State.PlayerDraw)
}

func (s *Solver) decisionValue(g game.State) float64 {
	stayEV := s.expectedValue(g.Stay())
	if g.Shoe().Total() == 0 {
		return stayEV
	}
	return math.Max(stayEV, s.hitValue(g))
}
