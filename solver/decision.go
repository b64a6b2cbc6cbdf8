package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/domino14/bjev/game"
)

type Action int

const (
	ActionStay Action = iota
	ActionHit
)

func (a Action) String() string {
	if a == ActionHit {
		return "hit"
	}
	return "stay"
}

var ErrNoDecision = errors.New("no decision to make in this position")

// Decision holds the value of each option at a decision point.
type Decision struct {
	Stay   float64
	Hit    float64
	CanHit bool
	Best   Action
}

// EV is the value of the best action.
func (d Decision) EV() float64 {
	if d.Best == ActionHit {
		return d.Hit
	}
	return d.Stay
}

func (d Decision) String() string {
	if !d.CanHit {
		return fmt.Sprintf("stay %.6f (no cards left to hit)", d.Stay)
	}
	return fmt.Sprintf("stay %.6f hit %.6f best %v", d.Stay, d.Hit, d.Best)
}

// StayEV is the value of standing on the current hand.
func (s *Solver) StayEV(g game.State) (float64, error) {
	if !g.IsDealt() {
		return 0, game.ErrNotDealt
	}
	return s.expectedValue(g.Stay()), nil
}

// HitEV is the value of taking exactly one more card and then playing on
// optimally.
func (s *Solver) HitEV(g game.State) (float64, error) {
	if !g.IsDealt() {
		return 0, game.ErrNotDealt
	}
	if g.Stayed() {
		return 0, ErrNoDecision
	}
	if g.Shoe().Total() == 0 {
		return 0, game.ErrShoeEmpty
	}
	return s.hitValue(g), nil
}

// Decide values both actions for a position where the player is to act.
func (s *Solver) Decide(g game.State) (Decision, error) {
	if !g.IsDealt() {
		return Decision{}, game.ErrNotDealt
	}
	if _, terminal := Outcome(g); terminal || g.Stayed() {
		return Decision{}, ErrNoDecision
	}
	d := Decision{Stay: s.expectedValue(g.Stay()), Hit: math.Inf(-1)}
	if g.Shoe().Total() > 0 {
		d.CanHit = true
		d.Hit = s.hitValue(g)
		if d.Hit > d.Stay {
			d.Best = ActionHit
		}
	}
	return d, nil
}
