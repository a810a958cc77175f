package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/leapstack-labs/tablemerge/internal/cli/config"
	"github.com/leapstack-labs/tablemerge/internal/cli/output"
	"github.com/leapstack-labs/tablemerge/internal/engine"
	"github.com/leapstack-labs/tablemerge/internal/normalize"
	"github.com/leapstack-labs/tablemerge/internal/source"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	return newCommandContext(cmd, cfg, cfg.StatePath)
}

// NewCommandContextWithoutState creates a CommandContext whose engine keeps
// runs and checkpoints in memory. Useful for read-only commands such as inspect.
func NewCommandContextWithoutState(cmd *cobra.Command) (*CommandContext, func(), error) {
	return newCommandContext(cmd, getConfig(), ":memory:")
}

func newCommandContext(cmd *cobra.Command, cfg *config.Config, statePath string) (*CommandContext, func(), error) {
	logger := config.GetLogger(cmd.Context())

	eng, err := createEngine(cfg, logger, statePath)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = eng.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: newRenderer(cmd, cfg),
	}, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't read documents or state.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: newRenderer(cmd, cfg),
	}
}

func newRenderer(cmd *cobra.Command, cfg *config.Config) *output.Renderer {
	mode, err := output.ParseMode(cfg.OutputFormat)
	if err != nil {
		mode = output.ModeAuto
	}
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to
// defaults with a few environment overrides.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	cfg := config.Defaults()
	cfg.InputDir = getEnvOrDefault("TABLEMERGE_INPUT_DIR", cfg.InputDir)
	cfg.OutputPath = getEnvOrDefault("TABLEMERGE_OUTPUT_PATH", cfg.OutputPath)
	cfg.StatePath = getEnvOrDefault("TABLEMERGE_STATE_PATH", cfg.StatePath)
	cfg.OutputFormat = getEnvOrDefault("TABLEMERGE_OUTPUT", cfg.OutputFormat)
	cfg.Verbose = os.Getenv("TABLEMERGE_VERBOSE") == "true"
	return cfg
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func createEngine(cfg *config.Config, logger *slog.Logger, statePath string) (*engine.Engine, error) {
	// Ensure state directory exists
	if statePath != ":memory:" {
		stateDir := filepath.Dir(statePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	src := source.NewDefault(source.Options{
		SkipPrefix: cfg.SkipPrefix,
		Extensions: cfg.Extensions,
		Logger:     logger,
	})

	engineCfg := engine.Config{
		InputDir:           cfg.InputDir,
		Source:             src,
		StatePath:          statePath,
		CheckpointName:     cfg.CheckpointName,
		OnUnsupportedTable: engine.Policy(cfg.OnUnsupportedTable),
		OpenTimeout:        cfg.OpenTimeout,
		Workers:            cfg.Workers,
		Sanitizer:          &normalize.Sanitizer{Transliterate: cfg.Transliterate},
		Sinks:              cfg.SinkConfigs(),
		Logger:             logger,
	}

	return engine.New(engineCfg)
}

// addPipelineFlags registers the flags shared by run and watch.
// Values are read through the config loader, not from these variables.
func addPipelineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSlice("outputs", nil, "Output sinks to write (csv, xlsx, duckdb, postgres, sqlite)")
	f.StringSlice("extensions", nil, "Document extensions to read (default: all supported)")
	f.String("skip-prefix", "", "Skip files whose name starts with this prefix (default \"~\")")
	f.String("checkpoint-name", "", "Prefix of the daily checkpoint key")
	f.String("policy", "", "What to do with tables that cannot be read: fail or skip")
	f.Duration("open-timeout", 0, "Maximum time to open one document")
	f.Int("workers", 0, "Number of documents processed concurrently")
	f.String("absent-token", "", "Text written for missing values in text outputs")
	f.Bool("transliterate", false, "Fold accented letters to ASCII instead of dropping them")

	_ = cmd.RegisterFlagCompletionFunc("policy", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"fail", "skip"}, cobra.ShellCompDirectiveNoFileComp
	})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}
