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

var statsCmd = &cobra.Command{
	Use:   "stats <topic>",
	Short: "Show progress and recent assessments for a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStats(cmd, strings.Join(args, " "))
	},
}

func runStats(cmd *cobra.Command, topic string) error {
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

	p := state.Summary()
	fmt.Fprintln(os.Stdout, theme.Title.Render("Progress: "+topic))
	fmt.Fprintf(os.Stdout, "points:      %d total, %d practiced, %d completed\n", p.Total, p.Practiced, p.Completed)
	fmt.Fprintf(os.Stdout, "avg mastery: %s %.2f\n", theme.MasteryBar(p.AverageMastery, 20), p.AverageMastery)
	if p.ActiveNodeID != "" {
		fmt.Fprintf(os.Stdout, "active:      %s\n", p.ActiveNodeID)
	}

	events, err := st.EventRepo().RecentAssessments(ctx, topic, 10)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	fmt.Fprintln(os.Stdout)
	fmt.Fprintln(os.Stdout, theme.Subtitle.Render("Recent assessments"))
	for _, ev := range events {
		delta := ev.MasteryAfter - ev.MasteryBefore
		arrow := theme.Good.Render(fmt.Sprintf("+%.3f", delta))
		if delta < 0 {
			arrow = theme.Bad.Render(fmt.Sprintf("%.3f", delta))
		}
		fmt.Fprintf(os.Stdout, "%s  %-20s stage %d  score %.2f  %s\n",
			ev.CreatedAt.Local().Format("Jan 02 15:04"), ev.NodeID, ev.Stage, ev.RawScore, arrow)
	}
	return nil
}
