// main is the entry point for the todo service
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "1.0.0"

// configFile is set by the --config flag
var configFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "todo-service",
	Short: "Todo list REST API with PostgreSQL, file and memory storage",
	Long: `todo-service serves a todo list over HTTP. Storage is PostgreSQL when a
database url is configured, a JSON file otherwise, or memory on read-only
(serverless) hosts. An unreachable database downgrades to memory unless
ALLOW_MEMORY_FALLBACK=false.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "todo-service", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, json or toml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(openapiCmd)
	rootCmd.AddCommand(versionCmd)
}
