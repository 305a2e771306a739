package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/astramentor/astra/internal/config"
	"github.com/astramentor/astra/internal/learner"
	"github.com/astramentor/astra/internal/scoring"
	"github.com/astramentor/astra/internal/store"
	"github.com/astramentor/astra/internal/ui/theme"
)

var graphCmd = &cobra.Command{
	Use:   "graph <topic>",
	Short: "Show the knowledge graph and mastery for a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGraph(cmd, strings.Join(args, " "))
	},
}

func runGraph(cmd *cobra.Command, topic string) error {
	ctx := cmd.Context()

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

	state, err := learner.Load(ctx, topic, scoring.NewEngine(cfg.Scoring), st.TrackRepo())
	if errors.Is(err, learner.ErrNoTrack) {
		return fmt.Errorf("no track for %q — run `astra learn %q` first", topic, topic)
	}
	if err != nil {
		return err
	}

	g := state.Graph()
	completed := state.Completed()
	available := make(map[string]bool)
	for _, id := range state.NextAvailable() {
		available[id] = true
	}

	fmt.Fprintln(os.Stdout, theme.Title.Render(topic)+"  "+theme.Subtitle.Render(fmt.Sprintf("goal: %s", g.Meta().GoalID)))
	for _, id := range g.Plan() {
		p, err := g.Point(id)
		if err != nil {
			return err
		}
		marker := "🔒"
		switch {
		case completed[id]:
			marker = "✅"
		case available[id]:
			marker = "🔓"
		}
		line := fmt.Sprintf("%s %s %.2f  %s", marker, theme.MasteryBar(state.Mastery(id), 10), state.Mastery(id), p.Name)
		if len(p.Prerequisites) > 0 {
			line += theme.Hint.Render("  (after " + strings.Join(p.Prerequisites, ", ") + ")")
		}
		fmt.Fprintln(os.Stdout, line)
	}
	return nil
}
