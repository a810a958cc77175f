package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/tablemerge/internal/cli/config"
	clitest "github.com/leapstack-labs/tablemerge/internal/cli/testutil"
	"github.com/leapstack-labs/tablemerge/internal/engine"
	"github.com/leapstack-labs/tablemerge/pkg/core"
)

func TestNewRunCommand(t *testing.T) {
	cmd := NewRunCommand()

	assert.Equal(t, "run", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"outputs", "extensions", "skip-prefix", "checkpoint-name", "policy", "open-timeout", "workers", "absent-token", "transliterate"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Equal(t, []string{"merge"}, cmd.Aliases)
}

func TestNewWatchCommand(t *testing.T) {
	cmd := NewWatchCommand()

	assert.Equal(t, "watch", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("debounce"))
	assert.NotNil(t, cmd.Flags().Lookup("workers"))
}

func TestNewRecoverCommand(t *testing.T) {
	cmd := NewRecoverCommand()

	assert.Equal(t, "recover [key]", cmd.Use)
	assert.Error(t, cmd.Args(cmd, []string{"a", "b"}))
	assert.NoError(t, cmd.Args(cmd, []string{"tables.20261014"}))
	assert.NoError(t, cmd.Args(cmd, nil))
}

func TestNewInspectCommand(t *testing.T) {
	cmd := NewInspectCommand()

	assert.Equal(t, "inspect <file>", cmd.Use)
	assert.Error(t, cmd.Args(cmd, nil))
}

func TestNewCheckpointsCommand(t *testing.T) {
	cmd := NewCheckpointsCommand()

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"list", "prune"}, names)

	prune, _, err := cmd.Find([]string{"prune"})
	require.NoError(t, err)
	keep := prune.Flags().Lookup("keep")
	require.NotNil(t, keep)
	assert.Equal(t, "5", keep.DefValue)
}

func TestNewHistoryCommand(t *testing.T) {
	cmd := NewHistoryCommand()

	assert.Equal(t, "history", cmd.Use)
	assert.Equal(t, "20", cmd.Flags().Lookup("limit").DefValue)
}

func TestNewVersionCommand(t *testing.T) {
	tests := []struct {
		name    string
		version string
		wantOut string
	}{
		{name: "default version", version: "0.1.0", wantOut: "tablemerge v0.1.0"},
		{name: "dev version", version: "dev", wantOut: "tablemerge vdev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewVersionCommand(tt.version)
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)

			require.NoError(t, cmd.Execute())
			assert.Contains(t, buf.String(), tt.wantOut)
		})
	}
}

func TestNewInitCommand(t *testing.T) {
	tests := []struct {
		name      string
		setupDir  func(t *testing.T, dir string) // setup before running
		args      []string
		wantErr   bool
		wantFiles []string
	}{
		{
			name:      "init empty directory",
			args:      []string{},
			wantFiles: []string{"tablemerge.yaml", "documents"},
		},
		{
			name:      "init named directory with custom input",
			args:      []string{"project", "--input-dir", "reports"},
			wantFiles: []string{"project/tablemerge.yaml", "project/reports"},
		},
		{
			name: "init existing config without force",
			setupDir: func(_ *testing.T, dir string) {
				_ = os.WriteFile(filepath.Join(dir, "tablemerge.yaml"), []byte("existing"), 0600)
			},
			args:    []string{},
			wantErr: true,
		},
		{
			name: "init existing config with force",
			setupDir: func(_ *testing.T, dir string) {
				_ = os.WriteFile(filepath.Join(dir, "tablemerge.yaml"), []byte("existing"), 0600)
			},
			args:      []string{"--force"},
			wantFiles: []string{"tablemerge.yaml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			t.Chdir(tmpDir)

			if tt.setupDir != nil {
				tt.setupDir(t, tmpDir)
			}

			cmd := NewInitCommand()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			for _, f := range tt.wantFiles {
				_, err := os.Stat(filepath.Join(tmpDir, f))
				assert.False(t, os.IsNotExist(err), "expected file/dir %q to exist", f)
			}
		})
	}
}

func TestInitCreatesLoadableConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	t.Setenv("PGPASSWORD", "")
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := NewInitCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	require.NoError(t, cmd.Execute())

	content, err := os.ReadFile("tablemerge.yaml")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "# tablemerge configuration"))

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(content, &raw))
	assert.Equal(t, "documents", raw["input_dir"])
	assert.Equal(t, "fail", raw["on_unsupported_table"])

	cfg, err := config.LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "documents"), cfg.InputDir)
	assert.Equal(t, 30*time.Second, cfg.OpenTimeout)
	assert.Equal(t, []string{"csv", "xlsx"}, cfg.Outputs)
	assert.Equal(t, "${PGPASSWORD}", cfg.Sinks["postgres"].Password, "unset variables are kept verbatim")
	assert.Equal(t, "combined.duckdb", cfg.Sinks["duckdb"].Path)
}

func sampleResult() *engine.Result {
	completed := time.Date(2026, 10, 14, 9, 0, 1, 0, time.UTC)
	return &engine.Result{
		Run: &core.Run{
			ID:            "run-1",
			Kind:          core.RunKindExtract,
			Status:        core.RunStatusCompleted,
			StartedAt:     completed.Add(-time.Second),
			CompletedAt:   &completed,
			Documents:     2,
			Tables:        3,
			SkippedTables: 1,
			Records:       4,
			CheckpointKey: "tables.20261014",
		},
		Dataset: core.Dataset{Columns: []string{"A", core.SourceColumn}},
		Skipped: []engine.SkippedTable{{Document: "b.docx", Index: 2, Reason: "table enumeration unsupported"}},
		Outputs: []string{"csv:combined.csv"},
	}
}

func TestRenderResult_Markdown(t *testing.T) {
	tr := clitest.NewTestRendererMarkdown()

	require.NoError(t, renderResult(tr.Renderer, sampleResult(), 1500*time.Millisecond))

	out := tr.Output()
	clitest.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "# Run run-1")
	assert.Contains(t, out, "- **Checkpoint:** tables.20261014")
	assert.Contains(t, out, "- **Duration:** 1.5s")
	assert.Contains(t, out, "b.docx table 2")
	assert.Contains(t, out, "csv:combined.csv")
	assert.Contains(t, out, "4 records merged")
	assert.Empty(t, tr.ErrorOutput())
}

func TestRenderResult_JSON(t *testing.T) {
	tr := clitest.NewTestRendererJSON()

	require.NoError(t, renderResult(tr.Renderer, sampleResult(), time.Second))

	out := tr.Output()
	clitest.AssertNoANSI(t, out)
	assert.Contains(t, out, `"run_id": "run-1"`)
	assert.Contains(t, out, `"duration_ms": 1000`)
	assert.Contains(t, out, `"reason": "table enumeration unsupported"`)
}

func TestRunElapsed(t *testing.T) {
	assert.Equal(t, time.Second, runElapsed(sampleResult()))
	assert.Zero(t, runElapsed(&engine.Result{Run: &core.Run{}}))
}
