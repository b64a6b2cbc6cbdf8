package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/domino14/bjev/card"
	"github.com/domino14/bjev/config"
	"github.com/domino14/bjev/game"
	"github.com/domino14/bjev/montecarlo"
	"github.com/domino14/bjev/shoe"
	"github.com/domino14/bjev/statekey"
)

type Response struct {
	message string
}

func (r *Response) Message() string {
	return r.message
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (c *shellcmd) intOption(key string, defaultI int) (int, error) {
	v, ok := c.options[key]
	if !ok {
		return defaultI, nil
	}
	return strconv.Atoi(v)
}

func (c *shellcmd) card(idx int) (card.Value, bool, error) {
	if idx >= len(c.args) {
		return 0, false, nil
	}
	v, err := card.ParseValue(c.args[idx])
	return v, true, err
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	decks := max(1, sc.config.GetInt(config.ConfigNumDecks))
	if len(cmd.args) > 0 {
		var err error
		decks, err = strconv.Atoi(cmd.args[0])
		if err != nil {
			return nil, err
		}
		if decks < 1 {
			return nil, errors.New("need at least one deck")
		}
	}
	sc.state = game.NewStandard(decks)
	return msg(sc.state.String()), nil
}

func (sc *ShellController) deal(cmd *shellcmd) (*Response, error) {
	var (
		g   game.State
		err error
	)
	switch len(cmd.args) {
	case 0:
		g, err = sc.state.Deal(sc.rng)
	case 3:
		vals, perr := card.ParseValues(strings.Join(cmd.args, " "))
		if perr != nil {
			return nil, perr
		}
		g, err = sc.state.DealCards(vals[0], vals[1], vals[2])
	default:
		return nil, errors.New("usage: deal [card card upcard]")
	}
	if err != nil {
		return nil, err
	}
	sc.state = g
	return msg(sc.state.String()), nil
}

func (sc *ShellController) hit(cmd *shellcmd) (*Response, error) {
	v, given, err := cmd.card(0)
	if err != nil {
		return nil, err
	}
	var g game.State
	if given {
		g, err = sc.state.HitCard(v)
	} else {
		g, err = sc.state.Hit(sc.rng)
	}
	if err != nil {
		return nil, err
	}
	sc.state = g
	return msg(sc.state.String()), nil
}

func (sc *ShellController) dealerHit(cmd *shellcmd) (*Response, error) {
	v, given, err := cmd.card(0)
	if err != nil {
		return nil, err
	}
	var g game.State
	if given {
		g, err = sc.state.DealerHitCard(v)
	} else {
		g, err = sc.state.DealerHit(sc.rng)
	}
	if err != nil {
		return nil, err
	}
	sc.state = g
	return msg(sc.state.String()), nil
}

func (sc *ShellController) stay(cmd *shellcmd) (*Response, error) {
	sc.state = sc.state.Stay()
	return msg(sc.state.String()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	return msg(sc.state.String()), nil
}

func (sc *ShellController) value(cmd *shellcmd) (*Response, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "hand %d", sc.state.HandValue())
	switch {
	case sc.state.IsHandBlackjack():
		b.WriteString(" (blackjack)")
	case sc.state.IsHandBust():
		b.WriteString(" (bust)")
	case game.IsSoft(sc.state.Hand()):
		b.WriteString(" (soft)")
	}
	fmt.Fprintf(&b, ", dealer %d", sc.state.DealerValue())
	switch {
	case sc.state.IsDealerBlackjack():
		b.WriteString(" (blackjack)")
	case sc.state.IsDealerBust():
		b.WriteString(" (bust)")
	}
	return msg(b.String()), nil
}

func (sc *ShellController) ev(cmd *shellcmd) (*Response, error) {
	sc.solver.Reset()
	ts := time.Now()
	ev, err := sc.solver.ExpectedValue(sc.state)
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("ev %.6f (%d nodes, %d persisted, %v)",
		ev, sc.solver.Nodes(), sc.solver.Persisted(), time.Since(ts).Round(time.Millisecond))), nil
}

func (sc *ShellController) decide(cmd *shellcmd) (*Response, error) {
	d, err := sc.solver.Decide(sc.state)
	if err != nil {
		return nil, err
	}
	return msg(d.String()), nil
}

func (sc *ShellController) key(cmd *shellcmd) (*Response, error) {
	return msg(statekey.Key(sc.state)), nil
}

func (sc *ShellController) sim(ctx context.Context, cmd *shellcmd) (*Response, error) {
	iters := sc.config.GetInt(config.ConfigSimIterations)
	if len(cmd.args) > 0 {
		var err error
		iters, err = strconv.Atoi(cmd.args[0])
		if err != nil {
			return nil, err
		}
	}
	// Every sim gets its own simmer so options never carry over.
	var policy montecarlo.Policy = montecarlo.SolverPolicy{Solver: sc.solver}
	standOn, err := cmd.intOption("standon", 0)
	if err != nil {
		return nil, err
	}
	if standOn > 0 {
		policy = montecarlo.StandOn(standOn)
	}
	simmer := montecarlo.NewSimmer(policy)
	simmer.SetThreads(sc.config.GetInt(config.ConfigThreads))
	if stop, ok := cmd.options["stop"]; ok {
		switch stop {
		case "95":
			simmer.SetStoppingCondition(montecarlo.Stop95, montecarlo.DefaultTargetHalfWidth)
		case "98":
			simmer.SetStoppingCondition(montecarlo.Stop98, montecarlo.DefaultTargetHalfWidth)
		case "99":
			simmer.SetStoppingCondition(montecarlo.Stop99, montecarlo.DefaultTargetHalfWidth)
		default:
			return nil, errors.New("stop must be 95, 98 or 99")
		}
	}
	res, err := simmer.Simulate(ctx, sc.state, iters)
	if err != nil {
		return nil, err
	}
	return msg(res.String()), nil
}

// upcards values the player's hand against every dealer upcard the shoe
// can still supply, solving the positions in parallel. The current upcard,
// if any, goes back into the shoe first.
func (sc *ShellController) upcards(ctx context.Context, cmd *shellcmd) (*Response, error) {
	hand := sc.state.Hand()
	dealer := sc.state.Dealer()
	if len(hand) < 2 {
		return nil, game.ErrNotDealt
	}
	if len(dealer) > 1 || sc.state.Stayed() {
		return nil, errors.New("upcards needs a position before the dealer draws")
	}
	comp := sc.state.Shoe().Composition()
	for _, v := range dealer {
		comp[v]++
	}
	base, err := shoe.New(comp)
	if err != nil {
		return nil, err
	}
	var (
		ups    []card.Value
		states []game.State
	)
	for v := card.Ace; v <= card.Ten; v++ {
		rest, err := base.Remove(v)
		if err != nil {
			continue
		}
		ups = append(ups, v)
		states = append(states, game.NewState(hand, []card.Value{v}, false, rest))
	}
	ts := time.Now()
	evs, err := sc.solver.EvaluateBatch(ctx, states)
	if err != nil {
		return nil, err
	}
	probs := base.DrawProbabilities()
	var b strings.Builder
	weighted := 0.0
	for i, v := range ups {
		fmt.Fprintf(&b, "%s  %.6f  (p=%.4f)\n", v, evs[i], probs[v])
		weighted += probs[v] * evs[i]
	}
	fmt.Fprintf(&b, "weighted %.6f (%d positions, %d threads, %v)",
		weighted, len(states), sc.solver.Threads(), time.Since(ts).Round(time.Millisecond))
	return msg(b.String()), nil
}

func (sc *ShellController) cache(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 || cmd.args[0] == "stats" {
		return msg(sc.store.Stats.String()), nil
	}
	if cmd.args[0] == "reset" {
		sc.store.Stats.Reset()
		sc.solver.Reset()
		return msg("cache stats and transposition table reset"), nil
	}
	return nil, errors.New("usage: cache [stats|reset]")
}
