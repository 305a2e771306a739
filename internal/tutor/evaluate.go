package tutor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/astramentor/astra/internal/knowledge"
	"github.com/astramentor/astra/internal/llm"
	"github.com/astramentor/astra/internal/scoring"
)

// UnscoreableResponseError means the evaluation turn could not be
// turned into a raw score even after a retry. The node attempt fails;
// learner state stays untouched.
type UnscoreableResponseError struct {
	NodeID string
	Raw    string
	Err    error
}

func (e *UnscoreableResponseError) Error() string {
	return fmt.Sprintf("unscoreable evaluation for point %q: %v", e.NodeID, e.Err)
}

func (e *UnscoreableResponseError) Unwrap() error { return e.Err }

// Evaluation is the parsed grading result.
type Evaluation struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// reviewThreshold is the raw score below which the reference answer is
// walked through after the feedback message.
const reviewThreshold = 0.8

// generateQuestion produces a stage-appropriate assessment item.
func (o *Orchestrator) generateQuestion(ctx context.Context, node knowledge.Point, stage scoring.Stage) (Question, error) {
	resp, err := o.provider.Generate(llm.WithPurpose(ctx, "quiz"), llm.Request{
		System:      stageSystemPrompt(o.state.Topic(), stage),
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildQuestionPrompt(node, stage)}},
		Schema:      questionSchema,
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	})
	if err != nil {
		return Question{}, fmt.Errorf("generate question for %q: %w", node.ID, err)
	}

	var out struct {
		Question        string `json:"question"`
		ReferenceAnswer string `json:"reference_answer"`
		Difficulty      string `json:"difficulty"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return Question{}, fmt.Errorf("parse question for %q: %w", node.ID, err)
	}

	difficulty := scoring.Difficulty(out.Difficulty)
	switch difficulty {
	case scoring.DifficultyConcept, scoring.DifficultyGuided, scoring.DifficultyApplied:
	default:
		difficulty = scoring.ClassifyDifficulty(out.Question)
	}

	return Question{
		Text:            out.Question,
		ReferenceAnswer: out.ReferenceAnswer,
		Difficulty:      difficulty,
	}, nil
}

// evaluate grades a learner response. One local retry on an
// unparsable result, then *UnscoreableResponseError.
func (o *Orchestrator) evaluate(ctx context.Context, node knowledge.Point, q Question, response string) (Evaluation, error) {
	eval, err := o.evaluateOnce(ctx, q, response)
	if err == nil {
		return eval, nil
	}
	eval, retryErr := o.evaluateOnce(ctx, q, response)
	if retryErr == nil {
		return eval, nil
	}
	return Evaluation{}, &UnscoreableResponseError{NodeID: node.ID, Err: retryErr}
}

// explainAnswer walks through the reference answer against what the
// learner wrote, stage-framed like the rest of the node's turns.
func (o *Orchestrator) explainAnswer(ctx context.Context, node knowledge.Point, q Question, response string, eval Evaluation) (string, error) {
	resp, err := o.provider.Generate(llm.WithPurpose(ctx, "explain"), llm.Request{
		System:      stageSystemPrompt(o.state.Topic(), o.state.Stage(node.ID)),
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildAnalysisPrompt(q, response, eval)}},
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("explain answer for %q: %w", node.ID, err)
	}
	return resp.Text(), nil
}

func (o *Orchestrator) evaluateOnce(ctx context.Context, q Question, response string) (Evaluation, error) {
	resp, err := o.provider.Generate(llm.WithPurpose(ctx, "evaluate"), llm.Request{
		System:    "You are a strict but fair grader for a tutoring system. Grade only what the rubric asks.",
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: buildEvaluationPrompt(q, response)}},
		Schema:    evaluationSchema,
		MaxTokens: 512,
	})
	if err != nil {
		return Evaluation{}, err
	}

	var eval Evaluation
	if err := json.Unmarshal(resp.Content, &eval); err != nil {
		return Evaluation{}, fmt.Errorf("parse evaluation: %w", err)
	}
	if eval.Score < 0 || eval.Score > 1 {
		return Evaluation{}, fmt.Errorf("evaluation score %v outside [0,1]", eval.Score)
	}
	return eval, nil
}
