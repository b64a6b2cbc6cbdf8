// Package shell is an interactive front end to the solver and simulator.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/bjev/config"
	"github.com/domino14/bjev/evcache"
	"github.com/domino14/bjev/game"
	"github.com/domino14/bjev/shoe"
	"github.com/domino14/bjev/solver"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format for option")
	errExit              = errors.New("exit requested")
)

type ShellController struct {
	l      *readline.Instance
	out    io.Writer
	config *config.Config

	store  *evcache.Instrumented
	solver *solver.Solver
	rng    shoe.Rand

	state game.State
}

type shellcmd struct {
	cmd     string
	args    []string
	options map[string]string
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

// NewShellController creates an interactive shell solving against store.
func NewShellController(cfg *config.Config, store evcache.Store) *ShellController {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[32mbjev>\033[0m ",
		HistoryFile:     "/tmp/bjev-readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc := newController(cfg, store, l.Stdout())
	sc.l = l
	return sc
}

func newController(cfg *config.Config, store evcache.Store, out io.Writer) *ShellController {
	instrumented := evcache.NewInstrumented(cfg.GetString(config.ConfigCacheBackend), store)
	capacity := 0
	if frac := cfg.GetFloat64(config.ConfigTTableFraction); frac > 0 {
		capacity = evcache.CapacityForMemory(frac)
	}
	sv := solver.New(
		solver.WithStore(instrumented),
		solver.WithPersistThreshold(cfg.GetDuration(config.ConfigPersistThreshold)),
		solver.WithTranspositionTable(true, capacity),
		solver.WithThreads(cfg.GetInt(config.ConfigThreads)),
	)
	return &ShellController{
		out:    out,
		config: cfg,
		store:  instrumented,
		solver: sv,
		rng:    shoe.DefaultRand,
		state:  game.NewStandard(max(1, cfg.GetInt(config.ConfigNumDecks))),
	}
}

// extractFields splits a line into a command, its positional arguments,
// and its -option value pairs.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := map[string]string{}
	for i := 1; i < len(fields); i++ {
		f := fields[i]
		if !strings.HasPrefix(f, "-") || isNumber(f) {
			args = append(args, f)
			continue
		}
		if i == len(fields)-1 {
			return nil, errWrongOptionSyntax
		}
		options[strings.TrimLeft(f, "-")] = fields[i+1]
		i++
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// Execute runs a single command line.
func (sc *ShellController) Execute(ctx context.Context, line string) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "exit", "quit":
		return nil, errExit
	case "help":
		return sc.help(cmd)
	case "new":
		return sc.newGame(cmd)
	case "deal":
		return sc.deal(cmd)
	case "hit":
		return sc.hit(cmd)
	case "dealerhit":
		return sc.dealerHit(cmd)
	case "stay":
		return sc.stay(cmd)
	case "show":
		return sc.show(cmd)
	case "value":
		return sc.value(cmd)
	case "ev":
		return sc.ev(cmd)
	case "decide":
		return sc.decide(cmd)
	case "key":
		return sc.key(cmd)
	case "sim":
		return sc.sim(ctx, cmd)
	case "upcards":
		return sc.upcards(ctx, cmd)
	case "script":
		return sc.script(ctx, cmd)
	case "cache":
		return sc.cache(cmd)
	}
	log.Debug().Msgf("you said: %v", strconv.Quote(line))
	return nil, errors.New("unknown command " + cmd.cmd + "; try help")
}

// executeAndShow runs a line and prints its result. It returns false once
// the shell should exit.
func (sc *ShellController) executeAndShow(ctx context.Context, line string) bool {
	resp, err := sc.Execute(ctx, line)
	switch {
	case errors.Is(err, errExit):
		return false
	case errors.Is(err, errNoData):
	case err != nil:
		sc.showError(err)
	case resp != nil && resp.message != "":
		sc.showMessage(resp.message)
	}
	return true
}

// ExecuteOnce runs a single command non-interactively.
func (sc *ShellController) ExecuteOnce(ctx context.Context, line string) {
	sc.executeAndShow(log.Logger.WithContext(ctx), line)
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()
	ctx := log.Logger.WithContext(context.Background())

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		if !sc.executeAndShow(ctx, strings.TrimSpace(line)) {
			sig <- syscall.SIGINT
			break
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Cleanup logs cache statistics and closes the store.
func (sc *ShellController) Cleanup() {
	sc.store.LogStats()
	sc.solver.LogStats()
	if err := sc.store.Close(); err != nil {
		log.Err(err).Msg("closing-ev-store")
	}
}
