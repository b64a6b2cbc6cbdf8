package montecarlo

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/bjev/card"
	"github.com/domino14/bjev/game"
	"github.com/domino14/bjev/shoe"
	"github.com/domino14/bjev/solver"
)

var testSeed = []byte("bjev-montecarlo-test-seed-000000")

func smallShoe(t *testing.T) shoe.Shoe {
	t.Helper()
	s, err := shoe.New([card.NumValues]int{2, 2, 2, 2, 2, 2, 2, 2, 2, 8})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStandOn(t *testing.T) {
	is := is.New(t)
	sh := smallShoe(t)
	p := StandOn(17)
	is.Equal(p.Action(game.NewState([]card.Value{card.Ten, card.Six}, []card.Value{card.Ten}, false, sh)), solver.ActionHit)
	is.Equal(p.Action(game.NewState([]card.Value{card.Ten, card.Seven}, []card.Value{card.Ten}, false, sh)), solver.ActionStay)
	// soft 17 stands too
	is.Equal(p.Action(game.NewState([]card.Value{card.Ace, card.Six}, []card.Value{card.Ten}, false, sh)), solver.ActionStay)
}

func TestPlayoutDeterministic(t *testing.T) {
	is := is.New(t)
	tens, err := shoe.New([card.NumValues]int{card.Ten: 1})
	is.NoErr(err)
	// the dealer draws the last ten to 16, then has nothing to draw
	g := game.NewState([]card.Value{card.Ten, card.Nine}, []card.Value{card.Six}, true, tens)

	s := NewSimmer(StandOn(17))
	s.SetThreads(3)
	res, err := s.Simulate(context.Background(), g, 500)
	is.NoErr(err)
	is.Equal(res.Iterations, 500)
	is.Equal(res.Mean, 1.0)
	is.Equal(res.StdErr, 0.0)
	is.Equal(res.Min(), 1.0)
	is.Equal(res.Max(), 1.0)
	is.True(!s.IsSimming())
}

func TestSimulateMatchesSolver(t *testing.T) {
	is := is.New(t)
	sv := solver.New()
	g := game.NewState([]card.Value{card.Ten, card.Five}, []card.Value{card.Ten}, false, smallShoe(t))
	exact, err := sv.ExpectedValue(g)
	is.NoErr(err)

	s := NewSimmer(SolverPolicy{Solver: sv})
	s.SetThreads(2)
	s.SetSeed(testSeed)
	res, err := s.Simulate(context.Background(), g, 20000)
	is.NoErr(err)
	is.Equal(res.Iterations, 20000)
	is.True(math.Abs(res.Mean-exact) < 5*res.StdErr+0.01)
	is.True(res.Min() >= -1.0 && res.Max() <= 1.5)
	is.True(strings.Contains(res.String(), "20000 playouts"))
}

func TestSimulateDealsUndealt(t *testing.T) {
	is := is.New(t)
	s := NewSimmer(StandOn(17))
	s.SetSeed(testSeed)
	res, err := s.Simulate(context.Background(), game.NewFromShoe(smallShoe(t)), 2000)
	is.NoErr(err)
	is.Equal(res.Iterations, 2000)
	is.True(res.Mean >= -1.0 && res.Mean <= 1.5)
}

func TestStoppingCondition(t *testing.T) {
	is := is.New(t)
	s := NewSimmer(StandOn(17))
	s.SetThreads(1)
	s.SetStoppingCondition(Stop95, 1.0)
	res, err := s.Simulate(context.Background(), game.NewFromShoe(smallShoe(t)), 50000)
	is.NoErr(err)
	is.Equal(res.Iterations, stopCheckInterval)

	s.SetStoppingCondition(StopNone, 1.0)
	res, err = s.Simulate(context.Background(), game.NewFromShoe(smallShoe(t)), 3000)
	is.NoErr(err)
	is.Equal(res.Iterations, 3000)
}

func TestSimulateErrors(t *testing.T) {
	is := is.New(t)
	s := NewSimmer(StandOn(17))
	_, err := s.Simulate(context.Background(), game.NewStandard(1), 0)
	is.True(errors.Is(err, ErrNoIterations))

	two, err := shoe.New([card.NumValues]int{card.Ten: 2})
	is.NoErr(err)
	_, err = s.Simulate(context.Background(), game.NewFromShoe(two), 10)
	is.True(errors.Is(err, game.ErrShoeTooSmall))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := s.Simulate(ctx, game.NewStandard(1), 10)
	is.True(errors.Is(err, context.Canceled))
	is.Equal(res.Iterations, 0)
}

type cancellingPolicy struct {
	cancel context.CancelFunc
}

func (p cancellingPolicy) Action(g game.State) solver.Action {
	p.cancel()
	return solver.ActionStay
}

func TestSimulateStopsOnCancel(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g := game.NewState([]card.Value{card.Ten, card.Two}, []card.Value{card.Six}, false, smallShoe(t))

	s := NewSimmer(cancellingPolicy{cancel: cancel})
	s.SetThreads(4)
	res, err := s.Simulate(ctx, g, 1000000)
	is.True(errors.Is(err, context.Canceled))
	// each thread finishes at most the playout it was in
	is.True(res.Iterations >= 1 && res.Iterations <= 4)
	is.True(!s.IsSimming())
}
