package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// GraphArtifact is a persisted knowledge-graph structure, independent of
// mastery data so the graph can be regenerated without losing progress.
type GraphArtifact struct {
	ID        string          `db:"id"`
	Topic     string          `db:"topic"`
	CreatedAt time.Time       `db:"created_at"`
	Data      json.RawMessage `db:"data"`
}

// GraphRepo stores knowledge-graph artifacts keyed by topic.
type GraphRepo interface {
	// Save stores a graph artifact and returns its generated id.
	Save(ctx context.Context, topic string, data json.RawMessage) (string, error)

	// Latest returns the most recent artifact for a topic, or nil.
	Latest(ctx context.Context, topic string) (*GraphArtifact, error)
}

type graphRepo struct {
	db *sqlx.DB
}

func (r *graphRepo) Save(ctx context.Context, topic string, data json.RawMessage) (string, error) {
	id := uuid.New().String()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO graph_artifacts (id, topic, created_at, data)
		 VALUES (?, ?, ?, ?)`,
		id, topic, time.Now().UTC(), string(data))
	if err != nil {
		return "", fmt.Errorf("save graph artifact: %w", err)
	}
	return id, nil
}

func (r *graphRepo) Latest(ctx context.Context, topic string) (*GraphArtifact, error) {
	var row struct {
		ID        string    `db:"id"`
		Topic     string    `db:"topic"`
		CreatedAt time.Time `db:"created_at"`
		Data      string    `db:"data"`
	}
	err := r.db.GetContext(ctx, &row,
		`SELECT id, topic, created_at, data
		 FROM graph_artifacts
		 WHERE topic = ?
		 ORDER BY created_at DESC
		 LIMIT 1`, topic)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest graph: %w", err)
	}
	return &GraphArtifact{
		ID:        row.ID,
		Topic:     row.Topic,
		CreatedAt: row.CreatedAt,
		Data:      json.RawMessage(row.Data),
	}, nil
}
