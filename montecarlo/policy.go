package montecarlo

import (
	"github.com/domino14/bjev/game"
	"github.com/domino14/bjev/solver"
)

// A Policy picks the player's action in a position where the player is to
// act.
type Policy interface {
	Action(g game.State) solver.Action
}

// SolverPolicy plays the action with the higher exact EV.
type SolverPolicy struct {
	Solver *solver.Solver
}

func (p SolverPolicy) Action(g game.State) solver.Action {
	d, err := p.Solver.Decide(g)
	if err != nil {
		return solver.ActionStay
	}
	return d.Best
}

// StandOn hits every total below its value and stays on the rest, the way
// the dealer plays at 17.
type StandOn int

func (p StandOn) Action(g game.State) solver.Action {
	if g.HandValue() < int(p) {
		return solver.ActionHit
	}
	return solver.ActionStay
}
