package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "userapi",
	Short: "User management REST API",
	Long: `userapi serves a REST API for creating, reading, updating, deleting and
listing user records backed by MongoDB or PostgreSQL.

Configuration is read from app.env in CONFIG_PATH and from the environment.
Running without a subcommand is the same as "userapi serve".`,
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}
