// Package main is the entry point for the txt2sql CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/txt2sql/internal/cli"
	_ "github.com/leapstack-labs/txt2sql/pkg/adapters/duckdb"   // register duckdb adapter
	_ "github.com/leapstack-labs/txt2sql/pkg/adapters/oracle"   // register oracle adapter
	_ "github.com/leapstack-labs/txt2sql/pkg/adapters/postgres" // register postgres adapter
	_ "github.com/leapstack-labs/txt2sql/pkg/adapters/sqlite"   // register sqlite adapter
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
