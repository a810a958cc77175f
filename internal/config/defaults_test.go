package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/tablemerge/pkg/core"
)

func TestDefaultPathForType(t *testing.T) {
	tests := []struct {
		name       string
		sinkType   string
		outputPath string
		want       string
	}{
		{"csv default", "csv", "", "combined.csv"},
		{"xlsx custom base", "xlsx", "out/report", "out/report.xlsx"},
		{"extension already present", "csv", "out/merged.csv", "out/merged.csv"},
		{"extension case-insensitive", "xlsx", "out/Merged.XLSX", "out/Merged.XLSX"},
		{"dotted directory", "duckdb", "out.d/merged", "out.d/merged.duckdb"},
		{"sqlite", "SQLite", "combined", "combined.sqlite"},
		{"postgres has no file", "postgres", "combined", ""},
		{"unknown type", "parquet", "combined", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultPathForType(tt.sinkType, tt.outputPath))
		})
	}
}

func TestApplySinkDefaults(t *testing.T) {
	t.Run("postgres", func(t *testing.T) {
		c := &core.SinkConfig{Type: "Postgres", Database: "docs"}
		ApplySinkDefaults(c, "combined", "")

		assert.Equal(t, "postgres", c.Type)
		assert.Empty(t, c.Path)
		assert.Equal(t, DefaultTable, c.Table)
		assert.Equal(t, DefaultPostgresPort, c.Port)
		assert.Equal(t, DefaultPostgresSchema, c.Schema)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		c := &core.SinkConfig{Type: "csv", Path: "x.csv", AbsentToken: "NA"}
		ApplySinkDefaults(c, "combined", "-")

		assert.Equal(t, "x.csv", c.Path)
		assert.Equal(t, "NA", c.AbsentToken)
	})

	t.Run("inherits absent token", func(t *testing.T) {
		c := &core.SinkConfig{Type: "duckdb"}
		ApplySinkDefaults(c, "out/combined", "-")

		assert.Equal(t, "out/combined.duckdb", c.Path)
		assert.Equal(t, "-", c.AbsentToken)
		assert.Equal(t, DefaultTable, c.Table)
	})

	t.Run("nil is ignored", func(_ *testing.T) {
		ApplySinkDefaults(nil, "", "")
	})
}
