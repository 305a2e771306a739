package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// LLMEventData captures one request to the generation collaborator.
type LLMEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// AssessmentEventData captures one scored assessment.
type AssessmentEventData struct {
	Topic         string
	NodeID        string
	SessionID     string
	Stage         int
	RawScore      float64
	MasteryBefore float64
	MasteryAfter  float64
}

// AssessmentEvent is a stored assessment event row.
type AssessmentEvent struct {
	ID        int       `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	AssessmentEventData
}

// EventRepo provides append access to domain events.
type EventRepo interface {
	// AppendLLMRequest records a generation-collaborator call.
	AppendLLMRequest(ctx context.Context, data LLMEventData) error

	// AppendAssessment records a scored assessment.
	AppendAssessment(ctx context.Context, data AssessmentEventData) error

	// RecentAssessments returns the latest n assessment events for a
	// topic, newest first.
	RecentAssessments(ctx context.Context, topic string, n int) ([]AssessmentEvent, error)
}

type eventRepo struct {
	db *sqlx.DB
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMEventData) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO llm_events
		 (created_at, provider, model, purpose, input_tokens, output_tokens,
		  latency_ms, success, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC(), data.Provider, data.Model, data.Purpose,
		data.InputTokens, data.OutputTokens, data.LatencyMs,
		data.Success, data.ErrorMessage)
	if err != nil {
		return fmt.Errorf("append llm event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendAssessment(ctx context.Context, data AssessmentEventData) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO assessment_events
		 (created_at, topic, node_id, session_id, stage, raw_score,
		  mastery_before, mastery_after)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC(), data.Topic, data.NodeID, data.SessionID,
		data.Stage, data.RawScore, data.MasteryBefore, data.MasteryAfter)
	if err != nil {
		return fmt.Errorf("append assessment event: %w", err)
	}
	return nil
}

func (r *eventRepo) RecentAssessments(ctx context.Context, topic string, n int) ([]AssessmentEvent, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT id, created_at, topic, node_id, session_id, stage,
		        raw_score, mastery_before, mastery_after
		 FROM assessment_events
		 WHERE topic = ?
		 ORDER BY id DESC
		 LIMIT ?`, topic, n)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()

	var out []AssessmentEvent
	for rows.Next() {
		var ev AssessmentEvent
		err := rows.Scan(&ev.ID, &ev.CreatedAt, &ev.Topic, &ev.NodeID,
			&ev.SessionID, &ev.Stage, &ev.RawScore,
			&ev.MasteryBefore, &ev.MasteryAfter)
		if err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
