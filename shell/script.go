package shell

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"

	"github.com/domino14/bjev/card"
	"github.com/domino14/bjev/game"
	"github.com/domino14/bjev/statekey"
)

const shellGlobal = "bj_shell"

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal(shellGlobal)
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

// bjExports is built on each load: luaRun reaches back into bjLoader
// through Execute, so it cannot be a package-level table.
func bjExports() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"new":                 luaNew,
		"deal":                luaDeal,
		"hit":                 luaHit,
		"dealer_hit":          luaDealerHit,
		"stay":                luaStay,
		"ev":                  luaEV,
		"decide":              luaDecide,
		"hand_value":          luaHandValue,
		"dealer_value":        luaDealerValue,
		"is_hand_bust":        boolGetter(game.State.IsHandBust),
		"is_dealer_bust":      boolGetter(game.State.IsDealerBust),
		"is_hand_blackjack":   boolGetter(game.State.IsHandBlackjack),
		"is_dealer_blackjack": boolGetter(game.State.IsDealerBlackjack),
		"key":                 luaKey,
		"state":               luaState,
		"run":                 luaRun,
	}
}

func bjLoader(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), bjExports())
	L.Push(mod)
	return 1
}

func raise(L *lua.LState, err error) int {
	L.RaiseError("%s", err.Error())
	return 0
}

func luaNew(L *lua.LState) int {
	sc := getShell(L)
	sc.state = game.NewStandard(L.OptInt(1, 1))
	return 0
}

// optCards reads the card arguments from index 1 on. None means draw at
// random.
func optCards(L *lua.LState) ([]card.Value, error) {
	var vals []card.Value
	for i := 1; i <= L.GetTop(); i++ {
		v, err := card.ParseValue(L.ToStringMeta(L.Get(i)).String())
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func luaDeal(L *lua.LState) int {
	sc := getShell(L)
	vals, err := optCards(L)
	if err != nil {
		return raise(L, err)
	}
	var g game.State
	switch len(vals) {
	case 0:
		g, err = sc.state.Deal(sc.rng)
	case 3:
		g, err = sc.state.DealCards(vals[0], vals[1], vals[2])
	default:
		err = errors.New("deal takes no cards or three")
	}
	if err != nil {
		return raise(L, err)
	}
	sc.state = g
	return 0
}

func drawer(L *lua.LState, random func(game.State) (game.State, error),
	given func(game.State, card.Value) (game.State, error)) int {

	sc := getShell(L)
	vals, err := optCards(L)
	if err != nil {
		return raise(L, err)
	}
	var g game.State
	if len(vals) == 0 {
		g, err = random(sc.state)
	} else {
		g, err = given(sc.state, vals[0])
	}
	if err != nil {
		return raise(L, err)
	}
	sc.state = g
	return 0
}

func luaHit(L *lua.LState) int {
	sc := getShell(L)
	return drawer(L, func(g game.State) (game.State, error) { return g.Hit(sc.rng) },
		game.State.HitCard)
}

func luaDealerHit(L *lua.LState) int {
	sc := getShell(L)
	return drawer(L, func(g game.State) (game.State, error) { return g.DealerHit(sc.rng) },
		game.State.DealerHitCard)
}

func luaStay(L *lua.LState) int {
	sc := getShell(L)
	sc.state = sc.state.Stay()
	return 0
}

func luaEV(L *lua.LState) int {
	sc := getShell(L)
	ev, err := sc.solver.ExpectedValue(sc.state)
	if err != nil {
		return raise(L, err)
	}
	L.Push(lua.LNumber(ev))
	return 1
}

func luaDecide(L *lua.LState) int {
	sc := getShell(L)
	d, err := sc.solver.Decide(sc.state)
	if err != nil {
		return raise(L, err)
	}
	t := L.NewTable()
	t.RawSetString("stay", lua.LNumber(d.Stay))
	if d.CanHit {
		t.RawSetString("hit", lua.LNumber(d.Hit))
	}
	t.RawSetString("best", lua.LString(d.Best.String()))
	L.Push(t)
	return 1
}

func luaHandValue(L *lua.LState) int {
	L.Push(lua.LNumber(getShell(L).state.HandValue()))
	return 1
}

func luaDealerValue(L *lua.LState) int {
	L.Push(lua.LNumber(getShell(L).state.DealerValue()))
	return 1
}

func boolGetter(f func(game.State) bool) lua.LGFunction {
	return func(L *lua.LState) int {
		L.Push(lua.LBool(f(getShell(L).state)))
		return 1
	}
}

func luaKey(L *lua.LState) int {
	L.Push(lua.LString(statekey.Key(getShell(L).state)))
	return 1
}

func valuesTable(L *lua.LState, vals []card.Value) *lua.LTable {
	t := L.NewTable()
	for _, v := range vals {
		t.Append(lua.LString(v.String()))
	}
	return t
}

func luaState(L *lua.LState) int {
	g := getShell(L).state
	t := L.NewTable()
	t.RawSetString("hand", valuesTable(L, g.Hand()))
	t.RawSetString("dealer", valuesTable(L, g.Dealer()))
	t.RawSetString("stay", lua.LBool(g.Stayed()))
	t.RawSetString("shoe_total", lua.LNumber(g.Shoe().Total()))
	L.Push(t)
	return 1
}

func luaRun(L *lua.LState) int {
	sc := getShell(L)
	r, err := sc.Execute(L.Context(), L.CheckString(1))
	if err != nil {
		log.Err(err).Msg("error-executing-run")
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	L.Push(lua.LString(r.message))
	return 1
}

func (sc *ShellController) script(ctx context.Context, cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need arguments for script")
	}
	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	lsc := L.NewUserData()
	lsc.Value = sc
	L.SetGlobal(shellGlobal, lsc)
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, L.GetTop())
		for i := range parts {
			parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
		}
		sc.showMessage(strings.Join(parts, "\t"))
		return 0
	}))
	L.PreloadModule("bj", bjLoader)
	luajson.Preload(L)

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return msg(""), nil
}
