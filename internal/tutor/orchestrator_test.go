package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/astramentor/astra/internal/knowledge"
	"github.com/astramentor/astra/internal/learner"
	"github.com/astramentor/astra/internal/llm"
	"github.com/astramentor/astra/internal/scoring"
	"github.com/astramentor/astra/internal/store"
)

// memTrackRepo is an in-memory store.TrackRepo for session tests.
type memTrackRepo struct {
	snaps map[string][]store.TrackSnapshot
}

func newMemTrackRepo() *memTrackRepo {
	return &memTrackRepo{snaps: make(map[string][]store.TrackSnapshot)}
}

func (r *memTrackRepo) Save(_ context.Context, topic string, data json.RawMessage, _ int) error {
	r.snaps[topic] = append(r.snaps[topic], store.TrackSnapshot{
		Topic:    topic,
		Sequence: int64(len(r.snaps[topic]) + 1),
		Data:     append(json.RawMessage(nil), data...),
	})
	return nil
}

func (r *memTrackRepo) Latest(_ context.Context, topic string) (*store.TrackSnapshot, error) {
	snaps := r.snaps[topic]
	if len(snaps) == 0 {
		return nil, nil
	}
	snap := snaps[len(snaps)-1]
	return &snap, nil
}

func (r *memTrackRepo) Delete(_ context.Context, topic string) error {
	delete(r.snaps, topic)
	return nil
}

func (r *memTrackRepo) Topics(_ context.Context) ([]string, error) {
	var out []string
	for t := range r.snaps {
		out = append(out, t)
	}
	return out, nil
}

// scriptedInteraction plays back canned learner behavior.
type followUpStep struct {
	question string
	proceed  bool
	quit     bool
}

type scriptedInteraction struct {
	followUps []followUpStep
	answers   []string

	plans     []string
	explained []string
	replies   []string
	feedback  []Feedback
	unscored  []string
	stuckNode string
}

func (s *scriptedInteraction) ShowPlan(text string) error {
	s.plans = append(s.plans, text)
	return nil
}

func (s *scriptedInteraction) Explain(node knowledge.Point, _ scoring.Stage, text string) error {
	s.explained = append(s.explained, text)
	return nil
}

func (s *scriptedInteraction) FollowUp() (string, bool, bool, error) {
	if len(s.followUps) == 0 {
		return "", true, false, nil
	}
	step := s.followUps[0]
	s.followUps = s.followUps[1:]
	return step.question, step.proceed, step.quit, nil
}

func (s *scriptedInteraction) Reply(text string) error {
	s.replies = append(s.replies, text)
	return nil
}

func (s *scriptedInteraction) Ask(Question) (string, bool, error) {
	if len(s.answers) == 0 {
		return "my answer", false, nil
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, false, nil
}

func (s *scriptedInteraction) AssessmentUnscored(node knowledge.Point) error {
	s.unscored = append(s.unscored, node.ID)
	return nil
}

func (s *scriptedInteraction) ShowFeedback(fb Feedback) error {
	s.feedback = append(s.feedback, fb)
	return nil
}

func (s *scriptedInteraction) NodeStuck(node knowledge.Point, _ int) error {
	s.stuckNode = node.ID
	return nil
}

func testGraph(t *testing.T) *knowledge.Graph {
	t.Helper()
	g, err := knowledge.New("sorting", knowledge.Meta{GoalID: "quicksort"}, []knowledge.Point{
		{ID: "recursion", Name: "Recursion", Description: "functions calling themselves", Prerequisites: []string{}},
		{ID: "quicksort", Name: "Quicksort", Description: "partition-based sorting", Prerequisites: []string{"recursion"}},
	})
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	return g
}

// eagerEngine completes a point in a single perfect assessment, which
// keeps session scripts short.
func eagerEngine() *scoring.Engine {
	cfg := scoring.DefaultConfig()
	cfg.AlphaMax = 1.0
	cfg.AlphaMin = 1.0
	cfg.GuessThreshold = 0
	return scoring.NewEngine(cfg)
}

const questionJSON = `{"question":"Implement factorial recursively.","reference_answer":"f(n)=n*f(n-1), f(0)=1","difficulty":"applied"}`
const perfectEvalJSON = `{"score":1.0,"feedback":"Correct."}`

func nodeResponses() []llm.MockResponse {
	return []llm.MockResponse{
		llm.TextResponse("Here is how it works."),
		llm.JSONResponse(questionJSON),
		llm.JSONResponse(perfectEvalJSON),
	}
}

func TestRunSession_CompletesWholePath(t *testing.T) {
	responses := []llm.MockResponse{llm.TextResponse("First recursion, then quicksort.")}
	responses = append(responses, nodeResponses()...)
	responses = append(responses, nodeResponses()...)
	mock := llm.NewMockProvider(responses...)
	state := learner.New(testGraph(t), eagerEngine(), newMemTrackRepo())
	ix := &scriptedInteraction{}

	o := New(mock, state, ix, nil, DefaultConfig())
	summary, err := o.RunSession(context.Background())
	if err != nil {
		t.Fatalf("RunSession: %v", err)
	}

	if summary.Outcome != OutcomeDone {
		t.Errorf("Outcome = %v, want OutcomeDone", summary.Outcome)
	}
	if len(summary.NodesCompleted) != 2 || summary.NodesCompleted[0] != "recursion" || summary.NodesCompleted[1] != "quicksort" {
		t.Errorf("NodesCompleted = %v, want [recursion quicksort]", summary.NodesCompleted)
	}
	if summary.Assessments != 2 {
		t.Errorf("Assessments = %d, want 2", summary.Assessments)
	}
	if o.Phase() != PhaseDone {
		t.Errorf("Phase = %v, want PhaseDone", o.Phase())
	}
	if len(ix.plans) != 1 || ix.plans[0] != "First recursion, then quicksort." {
		t.Errorf("plans = %v, want the one study plan", ix.plans)
	}
	if len(ix.explained) != 2 || len(ix.feedback) != 2 {
		t.Errorf("explained %d times, feedback %d times, want 2 each", len(ix.explained), len(ix.feedback))
	}
	if !ix.feedback[0].Complete {
		t.Error("first feedback should report the point as complete")
	}
	if ix.feedback[0].Analysis != "" {
		t.Error("a perfect score must not carry an answer walkthrough")
	}
	if summary.SessionID == "" {
		t.Error("summary must carry a session id")
	}
}

func TestRunSession_DiscussionLoopAccumulatesContext(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.TextResponse("Plan."),
		llm.TextResponse("Explanation."),
		llm.TextResponse("Answer to your follow-up."),
		llm.JSONResponse(questionJSON),
		llm.JSONResponse(perfectEvalJSON),
		// second node
		llm.TextResponse("Explanation two."),
		llm.JSONResponse(questionJSON),
		llm.JSONResponse(perfectEvalJSON),
	)
	state := learner.New(testGraph(t), eagerEngine(), newMemTrackRepo())
	ix := &scriptedInteraction{
		followUps: []followUpStep{
			{question: "Why does the recursion stop?"},
			{proceed: true},
		},
	}

	o := New(mock, state, ix, nil, DefaultConfig())
	if _, err := o.RunSession(context.Background()); err != nil {
		t.Fatalf("RunSession: %v", err)
	}

	if len(ix.replies) != 1 || ix.replies[0] != "Answer to your follow-up." {
		t.Errorf("replies = %v, want the one discussion answer", ix.replies)
	}
	// The discussion turn must carry the teaching turn plus the
	// learner's question.
	discuss := mock.Calls[2]
	if len(discuss.Messages) != 3 {
		t.Fatalf("discussion request has %d messages, want 3", len(discuss.Messages))
	}
	if discuss.Messages[2].Content != "Why does the recursion stop?" {
		t.Errorf("last message = %q, want the follow-up question", discuss.Messages[2].Content)
	}
}

func TestRunSession_UnscoreableEvaluationReanswersDirectly(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.TextResponse("Plan."),
		llm.TextResponse("Explanation."),
		llm.JSONResponse(questionJSON),
		llm.JSONResponse(`not a grade`),  // evaluation attempt 1
		llm.JSONResponse(`{"score": 7}`), // evaluation retry, out of range
		llm.JSONResponse(questionJSON),   // fresh question, no re-teach
		llm.JSONResponse(perfectEvalJSON),
		// second node
		llm.TextResponse("Explanation two."),
		llm.JSONResponse(questionJSON),
		llm.JSONResponse(perfectEvalJSON),
	)
	state := learner.New(testGraph(t), eagerEngine(), newMemTrackRepo())
	ix := &scriptedInteraction{}

	o := New(mock, state, ix, nil, DefaultConfig())
	summary, err := o.RunSession(context.Background())
	if err != nil {
		t.Fatalf("RunSession: %v", err)
	}

	if summary.Outcome != OutcomeDone {
		t.Errorf("Outcome = %v, want OutcomeDone", summary.Outcome)
	}
	// The failed evaluation must not have touched learner state.
	if got := len(state.History("recursion")); got != 1 {
		t.Errorf("recursion history has %d entries, want 1", got)
	}
	if len(ix.unscored) != 1 || ix.unscored[0] != "recursion" {
		t.Errorf("unscored = %v, want one notice for recursion", ix.unscored)
	}
	// Teaching runs once per node: the re-ask goes straight to a
	// fresh question.
	if got := len(ix.explained); got != 2 {
		t.Errorf("explained %d times, want 2", got)
	}
}

func TestRunSession_PersistentlyUnscoreableGraderSurfacesError(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.TextResponse("Plan."),
		llm.TextResponse("Explanation."),
		llm.JSONResponse(questionJSON),
		llm.JSONResponse(`not a grade`),
		llm.JSONResponse(`not a grade`),
		llm.JSONResponse(questionJSON),
		llm.JSONResponse(`not a grade`),
		llm.JSONResponse(`not a grade`),
	)
	state := learner.New(testGraph(t), eagerEngine(), newMemTrackRepo())
	ix := &scriptedInteraction{}

	cfg := DefaultConfig()
	cfg.MaxAttemptsPerNode = 2
	o := New(mock, state, ix, nil, cfg)

	_, err := o.RunSession(context.Background())
	var unscoreable *UnscoreableResponseError
	if !errors.As(err, &unscoreable) {
		t.Fatalf("RunSession error = %v, want *UnscoreableResponseError", err)
	}
	if got := len(state.History("recursion")); got != 0 {
		t.Errorf("recursion history has %d entries, want 0", got)
	}
}

func TestRunSession_StuckAfterRetryBudget(t *testing.T) {
	lowEval := `{"score":0.2,"feedback":"Not quite."}`
	mock := llm.NewMockProvider(
		llm.TextResponse("Plan."),
		llm.TextResponse("Explanation."), llm.JSONResponse(questionJSON), llm.JSONResponse(lowEval), llm.TextResponse("Walkthrough."),
		llm.TextResponse("Explanation."), llm.JSONResponse(questionJSON), llm.JSONResponse(lowEval), llm.TextResponse("Walkthrough."),
	)
	state := learner.New(testGraph(t), scoring.NewEngine(scoring.DefaultConfig()), newMemTrackRepo())
	ix := &scriptedInteraction{}

	cfg := DefaultConfig()
	cfg.MaxAttemptsPerNode = 2
	o := New(mock, state, ix, nil, cfg)

	summary, err := o.RunSession(context.Background())
	if err != nil {
		t.Fatalf("RunSession: %v", err)
	}

	if summary.Outcome != OutcomeStuck {
		t.Errorf("Outcome = %v, want OutcomeStuck", summary.Outcome)
	}
	if summary.StuckNodeID != "recursion" {
		t.Errorf("StuckNodeID = %q, want recursion", summary.StuckNodeID)
	}
	if ix.stuckNode != "recursion" {
		t.Errorf("NodeStuck called for %q, want recursion", ix.stuckNode)
	}
	// History from the failed attempts is preserved.
	if got := len(state.History("recursion")); got != 2 {
		t.Errorf("recursion history has %d entries, want 2", got)
	}
	// A low score carries the reference-answer walkthrough.
	if len(ix.feedback) != 2 || ix.feedback[0].Analysis != "Walkthrough." {
		t.Errorf("feedback = %+v, want walkthroughs on both low scores", ix.feedback)
	}
}

func TestRunSession_LearnerQuits(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse("Plan."), llm.TextResponse("Explanation."))
	state := learner.New(testGraph(t), eagerEngine(), newMemTrackRepo())
	ix := &scriptedInteraction{followUps: []followUpStep{{quit: true}}}

	o := New(mock, state, ix, nil, DefaultConfig())
	summary, err := o.RunSession(context.Background())
	if err != nil {
		t.Fatalf("RunSession: %v", err)
	}
	if summary.Outcome != OutcomeQuit {
		t.Errorf("Outcome = %v, want OutcomeQuit", summary.Outcome)
	}
	if summary.Assessments != 0 {
		t.Errorf("Assessments = %d, want 0", summary.Assessments)
	}
}

func TestRunSession_CancellationStopsAtPhaseBoundary(t *testing.T) {
	mock := llm.NewMockProvider()
	state := learner.New(testGraph(t), eagerEngine(), newMemTrackRepo())
	ix := &scriptedInteraction{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := New(mock, state, ix, nil, DefaultConfig())
	if _, err := o.RunSession(ctx); err == nil {
		t.Error("cancelled context must surface an error")
	}
	if mock.CallCount() != 0 {
		t.Errorf("no generation calls expected after cancellation, got %d", mock.CallCount())
	}
}
