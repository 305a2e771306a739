package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/astramentor/astra/internal/config"
	"github.com/astramentor/astra/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset <topic>",
	Short: "Delete all saved progress for a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := strings.Join(args, " ")

		force, _ := cmd.Flags().GetBool("force")
		if !force {
			fmt.Fprintf(os.Stdout, "This deletes the graph, mastery and history for %q. Type the topic to confirm: ", topic)
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if strings.TrimSpace(line) != topic {
				fmt.Fprintln(os.Stdout, "Aborted.")
				return nil
			}
		}

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

		if err := st.TrackRepo().Delete(cmd.Context(), topic); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Track %q reset.\n", topic)
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("force", false, "Skip the confirmation prompt")
}
