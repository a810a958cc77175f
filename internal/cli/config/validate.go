package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/tablemerge/internal/cli/output"
	"github.com/leapstack-labs/tablemerge/pkg/sink"
)

// Validate checks if the configuration is valid.
// Sink types are checked when sink packages are linked into the binary.
func (c *Config) Validate() error {
	var errs []error

	if c.InputDir == "" {
		errs = append(errs, errors.New("input_dir is required"))
	}
	switch c.OnUnsupportedTable {
	case "fail", "skip":
	default:
		errs = append(errs, fmt.Errorf("on_unsupported_table must be \"fail\" or \"skip\", got %q", c.OnUnsupportedTable))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.OpenTimeout < 0 {
		errs = append(errs, fmt.Errorf("open_timeout must not be negative, got %s", c.OpenTimeout))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be \"text\" or \"json\", got %q", c.LogFormat))
	}
	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		errs = append(errs, err)
	}
	if strings.ContainsAny(c.CheckpointName, `/\ `) || c.CheckpointName == "" {
		errs = append(errs, fmt.Errorf("checkpoint_name must be a non-empty word, got %q", c.CheckpointName))
	}
	if len(sink.ListSinks()) > 0 {
		for _, name := range c.Outputs {
			sc := SinkConfig{Type: name}
			if extra, ok := c.Sinks[name]; ok && extra.Type != "" {
				sc.Type = extra.Type
			}
			if !sink.IsRegistered(strings.ToLower(sc.Type)) {
				errs = append(errs, fmt.Errorf("unknown output %q\nHint: Available outputs: %s", name, strings.Join(sink.ListSinks(), ", ")))
			}
		}
	}

	return errors.Join(errs...)
}

// ValidateDirectories checks if required directories exist.
func (c *Config) ValidateDirectories() error {
	info, err := os.Stat(c.InputDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("input directory does not exist: %s\nHint: Create the directory or use --input to specify a different path", c.InputDir)
	}
	if err != nil {
		return fmt.Errorf("failed to access input directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input path is not a directory: %s", c.InputDir)
	}
	return nil
}
