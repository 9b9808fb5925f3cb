package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultBaseURL = "http://localhost:8000"

var (
	baseURL    string
	tokenPath  string
	configPath string

	rootCmd = &cobra.Command{
		Use:           "safepath",
		Short:         "Operator CLI for the SafePath story service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "api", defaultBaseURL, "API base URL")
	rootCmd.PersistentFlags().StringVar(&tokenPath, "token", defaultTokenPath(), "token file path")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "safepath.yaml", "optional YAML config file")

	rootCmd.AddCommand(newCriticCmd(), newFallbackCmd(), newMigrateCmd(), newAuthCmd(), newStoriesCmd(), newExportCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
