package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/astramentor/astra/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "astra",
	Short: "AI tutor that plans a path to your learning goal",
	Long:  "Astra — terminal tutor that builds a knowledge graph for any topic, teaches each point at your level, and tracks mastery between sessions.",
}

func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the CLI with a cancellable context, so Ctrl-C
// aborts a session at the next phase boundary.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides ASTRA_DB env var)")

	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then the configured path from the environment.
func resolveDBPath(cmd *cobra.Command, configured string) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return configured, store.EnsureDir(configured)
}
