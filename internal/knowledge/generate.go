package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/astramentor/astra/internal/llm"
)

const builderSystemPrompt = `You are a curriculum designer. Given a learning topic and the learner's current and target levels, produce a dependency graph of knowledge points covering the path between them.

Rules:
- Order points from fundamentals toward the goal.
- Every prerequisite must reference the id of another point in the graph.
- Prerequisite edges must not form cycles.
- At least one point must have no prerequisites.
- Keep points atomic: one concept each, learnable in a single sitting.`

// Builder generates a knowledge graph for a topic via the tutoring
// language model.
type Builder struct {
	provider llm.Provider
}

// NewBuilder returns a Builder backed by the given provider.
func NewBuilder(provider llm.Provider) *Builder {
	return &Builder{provider: provider}
}

// Build generates and validates a graph for the topic. A structurally
// malformed graph is regenerated once with the validation problems fed
// back to the model; a second failure returns the *MalformedGraphError.
func (b *Builder) Build(ctx context.Context, topic, startLevel, goalLevel string) (*Graph, error) {
	ctx = llm.WithPurpose(ctx, "graph")

	prompt := fmt.Sprintf("Topic: %s\nCurrent level: %s\nTarget level: %s\n\nGenerate the knowledge graph.",
		topic, startLevel, goalLevel)

	g, err := b.buildOnce(ctx, topic, startLevel, goalLevel, prompt)
	var malformed *MalformedGraphError
	if errors.As(err, &malformed) {
		retryPrompt := fmt.Sprintf("%s\n\nYour previous graph was rejected:\n  %s\nFix every problem and generate the graph again.",
			prompt, strings.Join(malformed.Problems, "\n  "))
		return b.buildOnce(ctx, topic, startLevel, goalLevel, retryPrompt)
	}
	return g, err
}

func (b *Builder) buildOnce(ctx context.Context, topic, startLevel, goalLevel, prompt string) (*Graph, error) {
	resp, err := b.provider.Generate(ctx, llm.Request{
		System:    builderSystemPrompt,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Schema:    graphSchema(),
		MaxTokens: 4096,
	})
	if err != nil {
		return nil, fmt.Errorf("generate knowledge graph: %w", err)
	}

	var doc struct {
		GoalID string  `json:"goal_id"`
		Points []Point `json:"points"`
	}
	if err := json.Unmarshal(resp.Content, &doc); err != nil {
		return nil, fmt.Errorf("decode knowledge graph response: %w", err)
	}

	meta := Meta{GoalID: doc.GoalID, StartLevel: startLevel, GoalLevel: goalLevel}
	return New(topic, meta, doc.Points)
}
