// Package config provides configuration management for the tablemerge CLI.
//
// Values come from built-in defaults, a tablemerge.yaml file, TABLEMERGE_
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"time"

	sharedcfg "github.com/leapstack-labs/tablemerge/internal/config"
	"github.com/leapstack-labs/tablemerge/pkg/core"
)

// SinkConfig is an alias for the shared sink configuration.
type SinkConfig = core.SinkConfig

// Config holds all CLI configuration options.
type Config struct {
	InputDir           string        `koanf:"input_dir"`
	Extensions         []string      `koanf:"extensions"`
	SkipPrefix         string        `koanf:"skip_prefix"`
	OutputPath         string        `koanf:"output_path"`
	Outputs            []string      `koanf:"outputs"`
	StatePath          string        `koanf:"state_path"`
	CheckpointName     string        `koanf:"checkpoint_name"`
	OnUnsupportedTable string        `koanf:"on_unsupported_table"`
	OpenTimeout        time.Duration `koanf:"open_timeout"`
	Workers            int           `koanf:"workers"`
	AbsentToken        string        `koanf:"absent_token"`
	Transliterate      bool          `koanf:"transliterate"`
	Verbose            bool          `koanf:"verbose"`
	LogFormat          string        `koanf:"log_format"`
	OutputFormat       string        `koanf:"output"`
	Sinks              SinksConfig   `koanf:"sinks"`
	Watch              WatchConfig   `koanf:"watch"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// SinksConfig holds per-type settings for sinks that need more than a path.
// The map form lets any registered type carry settings.
type SinksConfig map[string]SinkConfig

// WatchConfig holds watch-mode settings.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

// Default configuration values.
const (
	ConfigFileName    = "tablemerge.yaml"
	ConfigFileNameAlt = "tablemerge.yml"
	EnvPrefix         = "TABLEMERGE_"
	DefaultStateFile  = ".tablemerge/state.db"
	DefaultOutput     = "auto" // TTY=text, otherwise markdown
	DefaultLogFormat  = "text"
)

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		InputDir:           sharedcfg.DefaultInputDir,
		SkipPrefix:         sharedcfg.DefaultSkipPrefix,
		OutputPath:         sharedcfg.DefaultOutputPath,
		Outputs:            append([]string(nil), sharedcfg.DefaultOutputs...),
		StatePath:          DefaultStateFile,
		CheckpointName:     sharedcfg.DefaultCheckpointName,
		OnUnsupportedTable: sharedcfg.DefaultPolicy,
		OpenTimeout:        sharedcfg.DefaultOpenTimeout,
		Workers:            sharedcfg.DefaultWorkers,
		LogFormat:          DefaultLogFormat,
		OutputFormat:       DefaultOutput,
		Watch:              WatchConfig{Debounce: sharedcfg.DefaultWatchDebounce},
	}
}

// SinkConfigs resolves the outputs list into sink configurations, merging the
// matching entry of the sinks section and filling defaults.
func (c *Config) SinkConfigs() []SinkConfig {
	out := make([]SinkConfig, 0, len(c.Outputs))
	for _, name := range c.Outputs {
		sc := SinkConfig{Type: name}
		if extra, ok := c.Sinks[name]; ok {
			sc = extra
			if sc.Type == "" {
				sc.Type = name
			}
		}
		sharedcfg.ApplySinkDefaults(&sc, c.OutputPath, c.AbsentToken)
		sc.Path = resolvePathRelativeTo(sc.Path, c.ProjectRoot)
		out = append(out, sc)
	}
	return out
}
