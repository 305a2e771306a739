package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// TrackSnapshot is one full-state capture of a learning track.
// Data is an opaque JSON document owned by the learner package; the
// store never inspects it.
type TrackSnapshot struct {
	ID        int             `db:"id"`
	Topic     string          `db:"topic"`
	Sequence  int64           `db:"sequence"`
	CreatedAt time.Time       `db:"created_at"`
	Data      json.RawMessage `db:"data"`
}

// TrackRepo persists learning-track snapshots. Every write is a complete
// snapshot in a single transaction; a reader always sees the last fully
// applied state.
type TrackRepo interface {
	// Save stores a new snapshot for the topic and prunes old ones,
	// keeping the most recent `keep` rows (0 keeps everything).
	Save(ctx context.Context, topic string, data json.RawMessage, keep int) error

	// Latest returns the most recent snapshot for the topic, or nil if
	// the topic has never been saved.
	Latest(ctx context.Context, topic string) (*TrackSnapshot, error)

	// Delete removes all snapshots for the topic (explicit reset).
	Delete(ctx context.Context, topic string) error

	// Topics lists all topics with at least one snapshot.
	Topics(ctx context.Context) ([]string, error)
}

type trackRepo struct {
	db *sqlx.DB
}

func (r *trackRepo) Save(ctx context.Context, topic string, data json.RawMessage, keep int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	var seq sql.NullInt64
	err = tx.GetContext(ctx, &seq,
		`SELECT MAX(sequence) FROM track_snapshots WHERE topic = ?`, topic)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("next sequence: %w", err)
	}
	next := seq.Int64 + 1

	_, err = tx.ExecContext(ctx,
		`INSERT INTO track_snapshots (topic, sequence, created_at, data)
		 VALUES (?, ?, ?, ?)`,
		topic, next, time.Now().UTC(), string(data))
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	if keep > 0 {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM track_snapshots
			 WHERE topic = ? AND sequence <= ?`,
			topic, next-int64(keep))
		if err != nil {
			return fmt.Errorf("prune snapshots: %w", err)
		}
	}

	return tx.Commit()
}

func (r *trackRepo) Latest(ctx context.Context, topic string) (*TrackSnapshot, error) {
	var row struct {
		ID        int       `db:"id"`
		Topic     string    `db:"topic"`
		Sequence  int64     `db:"sequence"`
		CreatedAt time.Time `db:"created_at"`
		Data      string    `db:"data"`
	}
	err := r.db.GetContext(ctx, &row,
		`SELECT id, topic, sequence, created_at, data
		 FROM track_snapshots
		 WHERE topic = ?
		 ORDER BY sequence DESC
		 LIMIT 1`, topic)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	return &TrackSnapshot{
		ID:        row.ID,
		Topic:     row.Topic,
		Sequence:  row.Sequence,
		CreatedAt: row.CreatedAt,
		Data:      json.RawMessage(row.Data),
	}, nil
}

func (r *trackRepo) Delete(ctx context.Context, topic string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM track_snapshots WHERE topic = ?`, topic)
	if err != nil {
		return fmt.Errorf("delete track %q: %w", topic, err)
	}
	return nil
}

func (r *trackRepo) Topics(ctx context.Context) ([]string, error) {
	var topics []string
	err := r.db.SelectContext(ctx, &topics,
		`SELECT DISTINCT topic FROM track_snapshots ORDER BY topic`)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}
