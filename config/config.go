// Package config loads settings from flags, the environment, and defaults.
package config

import (
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigCacheDir         = "cache-dir"
	ConfigCacheBackend     = "cache-backend"
	ConfigPersistThreshold = "persist-threshold"
	ConfigPurgeCache       = "purge-cache"
	ConfigNumDecks         = "num-decks"
	ConfigThreads          = "threads"
	ConfigSimIterations    = "sim-iterations"
	ConfigTTableFraction   = "ttable-mem-fraction"
	ConfigDebug            = "debug"
	ConfigCPUProfile       = "cpu-profile"
	ConfigExec             = "exec"
)

const envPrefix = "BJEV"

type Config struct {
	*viper.Viper
}

func New() *Config {
	return &Config{Viper: viper.New()}
}

// Load parses args and binds every setting to its flag and to a
// BJEV_-prefixed environment variable. Flags win over the environment.
func (c *Config) Load(args []string) error {
	fs := pflag.NewFlagSet("bjev", pflag.ContinueOnError)
	fs.String(ConfigCacheDir, "./bin", "directory holding persisted EVs")
	fs.String(ConfigCacheBackend, "file", "EV store: file, sqlite, memory or none")
	fs.Duration(ConfigPersistThreshold, 5*time.Second, "persist EVs of positions that take longer than this to solve")
	fs.Bool(ConfigPurgeCache, true, "empty the cache directory at startup")
	fs.Int(ConfigNumDecks, 1, "decks in a new shoe")
	fs.Int(ConfigThreads, max(1, runtime.NumCPU()-1), "worker goroutines for batch solves and sims")
	fs.Int(ConfigSimIterations, 10000, "default playouts for the sim command")
	fs.Float64(ConfigTTableFraction, 0.25, "cap the transposition table at this fraction of system memory; 0 is unbounded")
	fs.Bool(ConfigDebug, false, "debug logging")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")
	fs.String(ConfigExec, "", "run a single shell command and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}
	c.SetEnvPrefix(envPrefix)
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()
	return c.BindPFlags(fs)
}

// SanitizedSettings returns every setting, for logging.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}
