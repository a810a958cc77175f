// Package config holds the defaults shared by the CLI and library callers.
package config

import (
	"strings"
	"time"

	"github.com/leapstack-labs/tablemerge/pkg/core"
)

// Default configuration values.
const (
	DefaultInputDir       = "."
	DefaultOutputPath     = "combined"
	DefaultCheckpointName = "tables"
	DefaultSkipPrefix     = "~"
	DefaultPolicy         = "fail"
	DefaultOpenTimeout    = 30 * time.Second
	DefaultWorkers        = 1
	DefaultTable          = "merged_tables"
	DefaultPostgresPort   = 5432
	DefaultPostgresSchema = "public"
	DefaultWatchDebounce  = 500 * time.Millisecond
)

// DefaultOutputs lists the sinks written when none are configured.
var DefaultOutputs = []string{"csv", "xlsx"}

// outputExtensions maps file-based sink types to their default extension.
var outputExtensions = map[string]string{
	"csv":    ".csv",
	"xlsx":   ".xlsx",
	"duckdb": ".duckdb",
	"sqlite": ".sqlite",
}

// DefaultPathForType returns the default output file for a sink type, or ""
// when the sink does not write a local file.
func DefaultPathForType(sinkType, outputPath string) string {
	ext, ok := outputExtensions[strings.ToLower(sinkType)]
	if !ok {
		return ""
	}
	if outputPath == "" {
		outputPath = DefaultOutputPath
	}
	if strings.EqualFold(ext, outputExt(outputPath)) {
		return outputPath
	}
	return outputPath + ext
}

func outputExt(path string) string {
	if i := strings.LastIndexByte(path, '.'); i > strings.LastIndexAny(path, `/\`) {
		return path[i:]
	}
	return ""
}

// ApplySinkDefaults fills unset fields of a sink configuration.
func ApplySinkDefaults(c *core.SinkConfig, outputPath, absentToken string) {
	if c == nil {
		return
	}
	c.Type = strings.ToLower(c.Type)
	if c.Path == "" {
		c.Path = DefaultPathForType(c.Type, outputPath)
	}
	if c.AbsentToken == "" {
		c.AbsentToken = absentToken
	}

	switch c.Type {
	case "duckdb", "sqlite":
		if c.Table == "" {
			c.Table = DefaultTable
		}
	case "postgres":
		if c.Table == "" {
			c.Table = DefaultTable
		}
		if c.Port == 0 {
			c.Port = DefaultPostgresPort
		}
		if c.Schema == "" {
			c.Schema = DefaultPostgresSchema
		}
	}
}
