package tutor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/astramentor/astra/internal/knowledge"
	"github.com/astramentor/astra/internal/learner"
	"github.com/astramentor/astra/internal/llm"
	"github.com/astramentor/astra/internal/scoring"
	"github.com/astramentor/astra/internal/store"
)

// Phase is the orchestrator's position in the tutoring loop.
type Phase int

const (
	PhasePlanning Phase = iota
	PhaseTeaching
	PhaseDiscussing
	PhaseAssessing
	PhaseEvaluating
	PhaseUpdating
	PhaseUnlocking
	PhaseDone
)

// Outcome is how a session ended. A stuck learner is a designed
// outcome, not an error: history is preserved and the caller decides
// what to do next.
type Outcome int

const (
	// OutcomeDone means every reachable point was completed.
	OutcomeDone Outcome = iota

	// OutcomeStuck means the retry budget on one point ran out.
	OutcomeStuck

	// OutcomeQuit means the learner ended the session early.
	OutcomeQuit
)

// Question is one generated assessment item.
type Question struct {
	Text            string
	ReferenceAnswer string
	Difficulty      scoring.Difficulty
}

// Feedback is shown to the learner after an assessment is scored.
type Feedback struct {
	Node     knowledge.Point
	Score    float64
	Text     string
	Result   scoring.Result
	Stage    scoring.Stage
	Complete bool

	// Analysis walks through the reference answer; set only when the
	// score fell below the review threshold.
	Analysis string
}

// Interaction is the learner-facing surface the orchestrator drives.
// The console implements it; tests script it.
type Interaction interface {
	// ShowPlan presents the study plan for the session.
	ShowPlan(text string) error

	// Explain presents a stage-framed explanation of a point.
	Explain(node knowledge.Point, stage scoring.Stage, text string) error

	// FollowUp collects the next discussion question. proceed=true
	// means the learner wants to move on to the assessment; quit=true
	// ends the session.
	FollowUp() (question string, proceed, quit bool, err error)

	// Reply presents the answer to a follow-up question.
	Reply(text string) error

	// Ask presents an assessment question and collects the learner's
	// response.
	Ask(q Question) (response string, quit bool, err error)

	// AssessmentUnscored tells the learner their response could not be
	// graded and a fresh question is coming.
	AssessmentUnscored(node knowledge.Point) error

	// ShowFeedback presents the scored outcome for one assessment.
	ShowFeedback(fb Feedback) error

	// NodeStuck tells the learner the retry budget for a point ran out.
	NodeStuck(node knowledge.Point, attempts int) error
}

// Config tunes the tutoring loop.
type Config struct {
	// MaxAttemptsPerNode is the retry budget before a point is declared
	// stuck.
	MaxAttemptsPerNode int

	// MaxTokens caps each generation response.
	MaxTokens int

	// Temperature for teaching and discussion turns. Evaluation always
	// runs at zero.
	Temperature float64
}

// DefaultConfig returns the default loop tuning.
func DefaultConfig() Config {
	return Config{
		MaxAttemptsPerNode: 3,
		MaxTokens:          2048,
		Temperature:        0.7,
	}
}

// Summary reports one finished session.
type Summary struct {
	SessionID      string
	Topic          string
	Outcome        Outcome
	StuckNodeID    string
	NodesCompleted []string
	Assessments    int
	Duration       time.Duration
	Progress       learner.Progress
}

// Orchestrator runs the tutoring loop for one learning track: plan,
// teach, discuss, assess, evaluate, update, unlock.
type Orchestrator struct {
	provider    llm.Provider
	state       *learner.State
	interaction Interaction
	events      store.EventRepo
	cfg         Config

	phase     Phase
	sessionID string
}

// New builds an orchestrator. events may be nil to skip assessment
// event logging.
func New(provider llm.Provider, state *learner.State, interaction Interaction, events store.EventRepo, cfg Config) *Orchestrator {
	if cfg.MaxAttemptsPerNode <= 0 {
		cfg.MaxAttemptsPerNode = DefaultConfig().MaxAttemptsPerNode
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	return &Orchestrator{
		provider:    provider,
		state:       state,
		interaction: interaction,
		events:      events,
		cfg:         cfg,
		sessionID:   uuid.NewString(),
	}
}

// Phase returns the orchestrator's current phase.
func (o *Orchestrator) Phase() Phase { return o.phase }

// SessionID returns the session's UUID.
func (o *Orchestrator) SessionID() string { return o.sessionID }

// RunSession drives the loop until the path is exhausted, the learner
// gets stuck or quits, or ctx is cancelled. Cancellation between
// phases leaves the track at its last persisted snapshot.
func (o *Orchestrator) RunSession(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{
		SessionID: o.sessionID,
		Topic:     o.state.Topic(),
		Outcome:   OutcomeDone,
	}
	defer func() {
		summary.Duration = time.Since(start)
		summary.Progress = o.state.Summary()
	}()

	o.phase = PhasePlanning
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	if err := o.presentPlan(ctx); err != nil {
		return summary, err
	}

	for {
		o.phase = PhasePlanning
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		nodeID, ok := o.planNext()
		if !ok {
			o.phase = PhaseDone
			return summary, nil
		}
		if err := o.state.SetActiveNode(ctx, nodeID); err != nil {
			return summary, err
		}
		node, err := o.state.Graph().Point(nodeID)
		if err != nil {
			return summary, err
		}

		outcome, attempts, err := o.runNode(ctx, node, summary)
		if err != nil {
			return summary, err
		}
		switch outcome {
		case nodeCompleted:
			summary.NodesCompleted = append(summary.NodesCompleted, nodeID)
		case nodeStuck:
			summary.Outcome = OutcomeStuck
			summary.StuckNodeID = nodeID
			if err := o.interaction.NodeStuck(node, attempts); err != nil {
				return summary, err
			}
			return summary, nil
		case nodeQuit:
			summary.Outcome = OutcomeQuit
			return summary, nil
		}
	}
}

// presentPlan generates a study plan over the remaining path and shows
// it to the learner before the first point is taught. A fully
// completed track has nothing left to plan.
func (o *Orchestrator) presentPlan(ctx context.Context) error {
	completed := o.state.Completed()
	var remaining []knowledge.Point
	for _, id := range o.state.Graph().Plan() {
		if completed[id] {
			continue
		}
		p, err := o.state.Graph().Point(id)
		if err != nil {
			return err
		}
		remaining = append(remaining, p)
	}
	if len(remaining) == 0 {
		return nil
	}

	resp, err := o.provider.Generate(llm.WithPurpose(ctx, "plan"), llm.Request{
		System:      planSystemPrompt(o.state.Topic()),
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildPlanPrompt(remaining)}},
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	})
	if err != nil {
		return fmt.Errorf("plan session: %w", err)
	}
	return o.interaction.ShowPlan(resp.Text())
}

// planNext picks the first available node following the goal-directed
// plan order.
func (o *Orchestrator) planNext() (string, bool) {
	available := make(map[string]bool)
	for _, id := range o.state.NextAvailable() {
		available[id] = true
	}
	if len(available) == 0 {
		return "", false
	}
	for _, id := range o.state.Graph().Plan() {
		if available[id] {
			return id, true
		}
	}
	return "", false
}

type nodeOutcome int

const (
	nodeCompleted nodeOutcome = iota
	nodeStuck
	nodeQuit
)

// runNode teaches and assesses one point until its mastery crosses
// into the advanced band, the attempt budget runs out, or the learner
// quits.
func (o *Orchestrator) runNode(ctx context.Context, node knowledge.Point, summary *Summary) (nodeOutcome, int, error) {
	for attempt := 1; ; attempt++ {
		stage := o.state.Stage(node.ID)

		quit, err := o.teach(ctx, node, stage)
		if err != nil {
			return 0, attempt, err
		}
		if quit {
			return nodeQuit, attempt, nil
		}

		done, quit, err := o.assess(ctx, node, stage, summary)
		if err != nil {
			return 0, attempt, err
		}
		if quit {
			return nodeQuit, attempt, nil
		}
		if done {
			return nodeCompleted, attempt, nil
		}
		if attempt >= o.cfg.MaxAttemptsPerNode {
			return nodeStuck, attempt, nil
		}
	}
}

// teach runs the TEACHING phase and the cooperative DISCUSSING loop.
// Returns quit=true if the learner ended the session.
func (o *Orchestrator) teach(ctx context.Context, node knowledge.Point, stage scoring.Stage) (bool, error) {
	o.phase = PhaseTeaching
	if err := ctx.Err(); err != nil {
		return false, err
	}

	convo := []llm.Message{{Role: llm.RoleUser, Content: buildTeachPrompt(node, o.state.Graph().Prerequisites(node.ID))}}
	resp, err := o.provider.Generate(llm.WithPurpose(ctx, "teach"), llm.Request{
		System:      stageSystemPrompt(o.state.Topic(), stage),
		Messages:    convo,
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	})
	if err != nil {
		return false, fmt.Errorf("teach %q: %w", node.ID, err)
	}
	if err := o.interaction.Explain(node, stage, resp.Text()); err != nil {
		return false, err
	}
	convo = append(convo, llm.Message{Role: llm.RoleAssistant, Content: resp.Text()})

	o.phase = PhaseDiscussing
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		question, proceed, quit, err := o.interaction.FollowUp()
		if err != nil {
			return false, err
		}
		if quit {
			return true, nil
		}
		if proceed {
			return false, nil
		}

		convo = append(convo, llm.Message{Role: llm.RoleUser, Content: question})
		resp, err := o.provider.Generate(llm.WithPurpose(ctx, "discuss"), llm.Request{
			System:      stageSystemPrompt(o.state.Topic(), stage),
			Messages:    convo,
			MaxTokens:   o.cfg.MaxTokens,
			Temperature: o.cfg.Temperature,
		})
		if err != nil {
			return false, fmt.Errorf("discuss %q: %w", node.ID, err)
		}
		if err := o.interaction.Reply(resp.Text()); err != nil {
			return false, err
		}
		convo = append(convo, llm.Message{Role: llm.RoleAssistant, Content: resp.Text()})
	}
}

// assess runs ASSESSING, EVALUATING and UPDATING for one attempt.
// done=true when the point crossed into the advanced band.
func (o *Orchestrator) assess(ctx context.Context, node knowledge.Point, stage scoring.Stage, summary *Summary) (done, quit bool, err error) {
	var (
		q        Question
		response string
		eval     Evaluation
	)
	// An unscoreable evaluation discards the question and re-enters
	// the assessing phase with a fresh one. No score was recorded, so
	// the node's attempt budget is not charged; the same budget bounds
	// consecutive grading failures instead, after which the error
	// surfaces because the grader itself is broken.
	for tries := 1; ; tries++ {
		o.phase = PhaseAssessing
		if err := ctx.Err(); err != nil {
			return false, false, err
		}

		q, err = o.generateQuestion(ctx, node, stage)
		if err != nil {
			return false, false, err
		}
		response, quit, err = o.interaction.Ask(q)
		if err != nil || quit {
			return false, quit, err
		}

		o.phase = PhaseEvaluating
		eval, err = o.evaluate(ctx, node, q, response)
		if err == nil {
			break
		}
		var unscoreable *UnscoreableResponseError
		if !errors.As(err, &unscoreable) {
			return false, false, err
		}
		if tries >= o.cfg.MaxAttemptsPerNode {
			return false, false, err
		}
		if err := o.interaction.AssessmentUnscored(node); err != nil {
			return false, false, err
		}
	}

	o.phase = PhaseUpdating
	res, err := o.state.RecordAssessment(ctx, node.ID, eval.Score, q.Difficulty.WCap())
	if err != nil {
		return false, false, err
	}
	summary.Assessments++
	o.logAssessment(ctx, node.ID, stage, eval.Score, res)

	o.phase = PhaseUnlocking
	complete := o.state.Completed()[node.ID]
	fb := Feedback{
		Node:     node,
		Score:    eval.Score,
		Text:     eval.Feedback,
		Result:   res,
		Stage:    o.state.Stage(node.ID),
		Complete: complete,
	}
	if eval.Score < reviewThreshold {
		analysis, err := o.explainAnswer(ctx, node, q, response, eval)
		if err != nil {
			return false, false, err
		}
		fb.Analysis = analysis
	}
	if err := o.interaction.ShowFeedback(fb); err != nil {
		return false, false, err
	}
	return complete, false, nil
}

// logAssessment records the assessment event. Best effort: a logging
// failure never fails the session.
func (o *Orchestrator) logAssessment(ctx context.Context, nodeID string, stage scoring.Stage, rawScore float64, res scoring.Result) {
	if o.events == nil {
		return
	}
	err := o.events.AppendAssessment(ctx, store.AssessmentEventData{
		Topic:         o.state.Topic(),
		NodeID:        nodeID,
		SessionID:     o.sessionID,
		Stage:         int(stage),
		RawScore:      rawScore,
		MasteryBefore: res.AOld,
		MasteryAfter:  res.ANew,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to log assessment event: %v\n", err)
	}
}
