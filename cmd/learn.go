package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/astramentor/astra/internal/config"
	"github.com/astramentor/astra/internal/console"
	"github.com/astramentor/astra/internal/knowledge"
	"github.com/astramentor/astra/internal/learner"
	"github.com/astramentor/astra/internal/llm"
	"github.com/astramentor/astra/internal/scoring"
	"github.com/astramentor/astra/internal/store"
	"github.com/astramentor/astra/internal/tutor"
)

var learnCmd = &cobra.Command{
	Use:   "learn <topic>",
	Short: "Start or resume a tutoring session for a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLearn(cmd, strings.Join(args, " "))
	},
}

func init() {
	learnCmd.Flags().String("start-level", "beginner", "Your current level in the topic (beginner, intermediate, advanced)")
	learnCmd.Flags().String("goal-level", "advanced", "The level you want to reach")
}

func runLearn(cmd *cobra.Command, topic string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
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

	provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo())
	if err != nil {
		return fmt.Errorf("tutoring model: %w", err)
	}

	engine := scoring.NewEngine(cfg.Scoring)
	state, err := loadOrCreateTrack(ctx, cmd, topic, engine, st, provider, cfg)
	if err != nil {
		return err
	}

	ix := console.New(os.Stdin, os.Stdout)
	orch := tutor.New(provider, state, ix, st.EventRepo(), cfg.Tutor)

	summary, err := orch.RunSession(ctx)
	if err != nil {
		return err
	}
	ix.PrintSummary(summary)
	return nil
}

// loadOrCreateTrack resumes a saved track, or generates a fresh graph
// when the topic has never been studied.
func loadOrCreateTrack(ctx context.Context, cmd *cobra.Command, topic string, engine *scoring.Engine, st *store.Store, provider llm.Provider, cfg config.Config) (*learner.State, error) {
	state, err := learner.Load(ctx, topic, engine, st.TrackRepo(), learner.WithRetention(cfg.SnapshotRetention))
	if err == nil {
		fmt.Fprintf(os.Stdout, "Resuming %q: %d of %d points completed.\n",
			topic, state.Summary().Completed, state.Summary().Total)
		return state, nil
	}
	if !errors.Is(err, learner.ErrNoTrack) {
		return nil, err
	}

	startLevel, _ := cmd.Flags().GetString("start-level")
	goalLevel, _ := cmd.Flags().GetString("goal-level")

	fmt.Fprintf(os.Stdout, "Building a learning path for %q (%s → %s)...\n", topic, startLevel, goalLevel)
	graph, err := knowledge.NewBuilder(provider).Build(ctx, topic, startLevel, goalLevel)
	if err != nil {
		return nil, fmt.Errorf("build knowledge graph: %w", err)
	}

	// Keep a graph-only artifact, regenerable independently of mastery
	// data.
	if data, err := graph.Encode(); err == nil {
		if _, err := st.GraphRepo().Save(ctx, topic, data); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to save graph artifact: %v\n", err)
		}
	}

	state = learner.New(graph, engine, st.TrackRepo(), learner.WithRetention(cfg.SnapshotRetention))
	if err := state.Save(ctx); err != nil {
		return nil, err
	}
	fmt.Fprintf(os.Stdout, "Path ready: %d knowledge points.\n", graph.Len())
	return state, nil
}
