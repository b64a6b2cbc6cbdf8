package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/bjev/config"
	"github.com/domino14/bjev/evcache"
	"github.com/domino14/bjev/shell"
)

var (
	GitVersion string
)

const sqliteFile = "ev.db"

//go:embed bjev.txt
var bjevbanner string

func setupLogging(debug bool) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}

	var logger zerolog.Logger
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger = zerolog.New(output).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		logger = zerolog.New(output).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	}
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	logger.Debug().Msg("Debug logging is on")
}

func openStore(cfg *config.Config) (evcache.Store, error) {
	dir := cfg.GetString(config.ConfigCacheDir)
	backend := cfg.GetString(config.ConfigCacheBackend)
	if backend == evcache.KindNone || backend == evcache.KindMemory {
		return evcache.Open(backend, dir)
	}
	if err := evcache.PrepareDir(dir, cfg.GetBool(config.ConfigPurgeCache)); err != nil {
		return nil, err
	}
	if backend == evcache.KindSQLite {
		return evcache.Open(backend, filepath.Join(dir, sqliteFile))
	}
	return evcache.Open(backend, dir)
}

func main() {
	fmt.Println(bjevbanner)
	fmt.Println(GitVersion)

	cfg := config.New()
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	setupLogging(cfg.GetBool(config.ConfigDebug))
	log.Info().Msgf("Loaded config: %v", cfg.SanitizedSettings())

	if cfg.GetString(config.ConfigCPUProfile) != "" {
		f, err := os.Create(cfg.GetString(config.ConfigCPUProfile))
		if err != nil {
			panic("could not create CPU profile: " + err.Error())
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			panic("could not start CPU profile: " + err.Error())
		}
		defer pprof.StopCPUProfile()
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could-not-open-ev-store")
	}

	idleConnsClosed := make(chan struct{})
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("got quit signal...")
		close(idleConnsClosed)
	}()

	sc := shell.NewShellController(cfg, store)
	if line := strings.TrimSpace(cfg.GetString(config.ConfigExec)); line != "" {
		sc.ExecuteOnce(context.Background(), line)
		sig <- syscall.SIGINT
	} else {
		go sc.Loop(sig)
	}

	<-idleConnsClosed
	sc.Cleanup()
	log.Info().Msg("shutting down")
}
