package learner

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/astramentor/astra/internal/knowledge"
)

// snapshotVersion guards the persisted layout. Bump on incompatible
// changes; old snapshots then fail load with CorruptStateError instead
// of hydrating garbage.
const snapshotVersion = 1

// CorruptStateError reports a persisted track snapshot that failed
// schema validation on load. No auto-repair: the caller decides whether
// to reset the track.
type CorruptStateError struct {
	Topic  string
	Reason string
	Err    error
}

func (e *CorruptStateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt state for track %q: %s: %v", e.Topic, e.Reason, e.Err)
	}
	return fmt.Sprintf("corrupt state for track %q: %s", e.Topic, e.Reason)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }

// AssessmentRecord is one history entry for a knowledge point.
// Append-only, chronological.
type AssessmentRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	Stage         int       `json:"stage"`
	RawScore      float64   `json:"raw_score"`
	MasteryBefore float64   `json:"mastery_before"`
	MasteryAfter  float64   `json:"mastery_after"`
}

// Record holds the mutable per-point learning data, kept apart from the
// immutable graph structure.
type Record struct {
	Mastery       float64            `json:"mastery"`
	LastPracticed *time.Time         `json:"last_practiced,omitempty"`
	History       []AssessmentRecord `json:"history"`
}

type trackDoc struct {
	Version      int                `json:"version"`
	Topic        string             `json:"topic"`
	ActiveNodeID string             `json:"active_node_id,omitempty"`
	Graph        json.RawMessage    `json:"graph"`
	Records      map[string]*Record `json:"records"`
}

func encodeSnapshot(topic, activeNodeID string, graph *knowledge.Graph, records map[string]*Record) ([]byte, error) {
	graphData, err := graph.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode graph: %w", err)
	}
	return json.Marshal(trackDoc{
		Version:      snapshotVersion,
		Topic:        topic,
		ActiveNodeID: activeNodeID,
		Graph:        graphData,
		Records:      records,
	})
}

// decodeSnapshot validates and hydrates a persisted snapshot. Any
// violation returns a *CorruptStateError and nothing is hydrated.
func decodeSnapshot(topic string, data []byte) (*trackDoc, *knowledge.Graph, error) {
	corrupt := func(reason string, err error) (*trackDoc, *knowledge.Graph, error) {
		return nil, nil, &CorruptStateError{Topic: topic, Reason: reason, Err: err}
	}

	var doc trackDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return corrupt("snapshot is not valid JSON", err)
	}
	if doc.Version != snapshotVersion {
		return corrupt(fmt.Sprintf("snapshot version %d, expected %d", doc.Version, snapshotVersion), nil)
	}
	if doc.Topic != topic {
		return corrupt(fmt.Sprintf("snapshot belongs to topic %q", doc.Topic), nil)
	}
	if len(doc.Graph) == 0 {
		return corrupt("snapshot has no graph", nil)
	}

	graph, err := knowledge.Decode(doc.Graph)
	if err != nil {
		return corrupt("stored graph failed validation", err)
	}

	if doc.Records == nil {
		doc.Records = make(map[string]*Record)
	}
	for id, rec := range doc.Records {
		if _, err := graph.Point(id); err != nil {
			return corrupt(fmt.Sprintf("record for unknown point %q", id), nil)
		}
		if rec == nil {
			return corrupt(fmt.Sprintf("nil record for point %q", id), nil)
		}
		if rec.Mastery < 0 || rec.Mastery > 1 {
			return corrupt(fmt.Sprintf("point %q mastery %v outside [0,1]", id, rec.Mastery), nil)
		}
		for i, h := range rec.History {
			if h.MasteryAfter < 0 || h.MasteryAfter > 1 || h.MasteryBefore < 0 || h.MasteryBefore > 1 {
				return corrupt(fmt.Sprintf("point %q history entry %d has mastery outside [0,1]", id, i), nil)
			}
		}
	}

	if doc.ActiveNodeID != "" {
		if _, err := graph.Point(doc.ActiveNodeID); err != nil {
			return corrupt(fmt.Sprintf("active node %q not in graph", doc.ActiveNodeID), nil)
		}
	}

	return &doc, graph, nil
}
