package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/tablemerge/internal/cli/config"
	sharedcfg "github.com/leapstack-labs/tablemerge/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// starterConfig is the file written by init.
type starterConfig struct {
	InputDir           string                 `yaml:"input_dir"`
	OutputPath         string                 `yaml:"output_path"`
	Outputs            []string               `yaml:"outputs"`
	StatePath          string                 `yaml:"state_path"`
	CheckpointName     string                 `yaml:"checkpoint_name"`
	OnUnsupportedTable string                 `yaml:"on_unsupported_table"`
	OpenTimeout        string                 `yaml:"open_timeout"`
	Workers            int                    `yaml:"workers"`
	AbsentToken        string                 `yaml:"absent_token"`
	Transliterate      bool                   `yaml:"transliterate"`
	Sinks              map[string]starterSink `yaml:"sinks"`
}

type starterSink struct {
	Path     string `yaml:"path,omitempty"`
	Table    string `yaml:"table,omitempty"`
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

const starterHeader = `# tablemerge configuration
#
# Values can be overridden with TABLEMERGE_* environment variables
# (TABLEMERGE_SINKS__POSTGRES__HOST for nested keys) and command-line flags.
# Add duckdb, postgres or sqlite to outputs to enable the sinks below.
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var inputDir string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a starter tablemerge.yaml",
		Long: `Initialize a tablemerge project with a commented configuration file and an
empty input directory for the documents to merge.`,
		Example: `  # Initialize in current directory
  tablemerge init

  # Initialize in a new directory, reading documents from ./reports
  tablemerge init my-project --input-dir reports

  # Force overwrite existing config
  tablemerge init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			r := NewCommandContextWithoutEngine(cmd).Renderer

			written, err := runInit(dir, inputDir, force)
			if err != nil {
				return err
			}
			for _, f := range written {
				r.StatusLine(f, "success", "")
			}
			r.Println("")
			r.Success("tablemerge project initialized!")
			r.Println("")
			r.Println("Next steps:")
			r.Printf("  1. Copy the documents to merge into %s/\n", inputDir)
			r.Println("  2. Run 'tablemerge inspect <file>' to check how a document is read")
			r.Println("  3. Run 'tablemerge run' to write the merged outputs")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().StringVar(&inputDir, "input-dir", "documents", "Input directory to create and configure")

	return cmd
}

func runInit(dir, inputDir string, force bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return nil, fmt.Errorf("%s already exists. Use --force to overwrite", config.ConfigFileName)
	}

	content, err := renderStarter(inputDir)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(configPath, content, 0600); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	if err := os.MkdirAll(filepath.Join(dir, inputDir), 0750); err != nil {
		return nil, fmt.Errorf("failed to create input directory: %w", err)
	}

	return []string{config.ConfigFileName, inputDir + "/"}, nil
}

func renderStarter(inputDir string) ([]byte, error) {
	d := config.Defaults()
	starter := starterConfig{
		InputDir:           inputDir,
		OutputPath:         d.OutputPath,
		Outputs:            d.Outputs,
		StatePath:          d.StatePath,
		CheckpointName:     d.CheckpointName,
		OnUnsupportedTable: d.OnUnsupportedTable,
		OpenTimeout:        d.OpenTimeout.String(),
		Workers:            d.Workers,
		AbsentToken:        "",
		Transliterate:      false,
		Sinks: map[string]starterSink{
			"duckdb": {
				Path:  d.OutputPath + ".duckdb",
				Table: sharedcfg.DefaultTable,
			},
			"postgres": {
				Host:     "localhost",
				Port:     sharedcfg.DefaultPostgresPort,
				Database: "tablemerge",
				User:     "${PGUSER}",
				Password: "${PGPASSWORD}",
				Table:    sharedcfg.DefaultTable,
			},
		},
	}

	var buf bytes.Buffer
	buf.WriteString(starterHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(starter); err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}
	return buf.Bytes(), nil
}
