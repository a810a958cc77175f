// Package main provides the CLI for tablemerge.
package main

import (
	"os"

	"github.com/leapstack-labs/tablemerge/internal/cli"

	// Output sinks register themselves in init()
	_ "github.com/leapstack-labs/tablemerge/pkg/sinks/csv"
	_ "github.com/leapstack-labs/tablemerge/pkg/sinks/duckdb"
	_ "github.com/leapstack-labs/tablemerge/pkg/sinks/postgres"
	_ "github.com/leapstack-labs/tablemerge/pkg/sinks/sqlite"
	_ "github.com/leapstack-labs/tablemerge/pkg/sinks/xlsx"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
