package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/astramentor/astra/internal/config"
	"github.com/astramentor/astra/internal/store"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List topics with saved learning tracks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		dbPath, err := resolveDBPath(cmd, cfg.DBPath)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		topics, err := st.TrackRepo().Topics(cmd.Context())
		if err != nil {
			return err
		}
		if len(topics) == 0 {
			fmt.Fprintln(os.Stdout, "No saved tracks yet. Start one with `astra learn <topic>`.")
			return nil
		}
		for _, t := range topics {
			fmt.Fprintln(os.Stdout, t)
		}
		return nil
	},
}
