package learner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/astramentor/astra/internal/knowledge"
	"github.com/astramentor/astra/internal/scoring"
	"github.com/astramentor/astra/internal/store"
)

// ErrNoTrack is returned by Load when a topic has never been saved.
var ErrNoTrack = errors.New("no saved track for topic")

// defaultKeepSnapshots bounds how many historical snapshots a track
// retains; the newest one is the live state, the rest are for forensics.
const defaultKeepSnapshots = 20

// State aggregates the per-point mastery records and the active graph
// for one learning track, and owns all mutation. Every mutation is
// persisted as a complete snapshot before it is visible in memory, so
// a crash between the two leaves the previous state intact.
type State struct {
	mu           sync.Mutex
	topic        string
	graph        *knowledge.Graph
	records      map[string]*Record
	activeNodeID string
	engine       *scoring.Engine
	tracks       store.TrackRepo
	keep         int
	now          func() time.Time
}

// Option configures a State.
type Option func(*State)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

// WithRetention sets how many snapshots to keep per track.
func WithRetention(n int) Option {
	return func(s *State) { s.keep = n }
}

// New creates the state for a freshly generated graph. The caller
// should Save once to persist the initial snapshot.
func New(graph *knowledge.Graph, engine *scoring.Engine, tracks store.TrackRepo, opts ...Option) *State {
	s := &State{
		topic:   graph.Topic(),
		graph:   graph,
		records: make(map[string]*Record),
		engine:  engine,
		tracks:  tracks,
		keep:    defaultKeepSnapshots,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load hydrates the state from the latest persisted snapshot for the
// topic. Returns ErrNoTrack if the topic was never saved, or a
// *CorruptStateError if the snapshot fails validation.
func Load(ctx context.Context, topic string, engine *scoring.Engine, tracks store.TrackRepo, opts ...Option) (*State, error) {
	snap, err := tracks.Latest(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("load track %q: %w", topic, err)
	}
	if snap == nil {
		return nil, fmt.Errorf("track %q: %w", topic, ErrNoTrack)
	}

	doc, graph, err := decodeSnapshot(topic, snap.Data)
	if err != nil {
		return nil, err
	}

	s := &State{
		topic:        topic,
		graph:        graph,
		records:      doc.Records,
		activeNodeID: doc.ActiveNodeID,
		engine:       engine,
		tracks:       tracks,
		keep:         defaultKeepSnapshots,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Topic returns the track's topic.
func (s *State) Topic() string { return s.topic }

// Graph returns the track's knowledge graph.
func (s *State) Graph() *knowledge.Graph { return s.graph }

// Mastery returns the current mastery estimate for a point. Points
// never practiced are at 0.
func (s *State) Mastery(id string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[id]; ok {
		return rec.Mastery
	}
	return 0
}

// Stage returns the teaching stage for a point's current mastery.
func (s *State) Stage(id string) scoring.Stage {
	return scoring.StageFor(s.Mastery(id))
}

// History returns a copy of the point's assessment history, oldest
// first.
func (s *State) History(id string) []AssessmentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil
	}
	out := make([]AssessmentRecord, len(rec.History))
	copy(out, rec.History)
	return out
}

// ActiveNode returns the currently selected point ID, or "".
func (s *State) ActiveNode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeNodeID
}

// SetActiveNode selects a point and persists the change.
func (s *State) SetActiveNode(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if _, err := s.graph.Point(id); err != nil {
			return err
		}
	}
	prev := s.activeNodeID
	s.activeNodeID = id
	if err := s.persistLocked(ctx, s.records); err != nil {
		s.activeNodeID = prev
		return err
	}
	return nil
}

// Completed returns the set of point IDs whose mastery has reached the
// advanced stage, which is what unlocking and planning count as done.
func (s *State) Completed() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	done := make(map[string]bool)
	for id, rec := range s.records {
		if scoring.StageFor(rec.Mastery) == scoring.StageAdvanced {
			done[id] = true
		}
	}
	return done
}

// NextAvailable returns the unlocked, uncompleted point IDs in
// topological order.
func (s *State) NextAvailable() []string {
	return s.graph.NextAvailable(s.Completed())
}

// RecordAssessment scores one assessment for a point and commits the
// result: mastery update, history append and last-practiced stamp land
// in a single snapshot write. If persistence fails nothing is applied
// and the in-memory state still matches the last successful snapshot.
func (s *State) RecordAssessment(ctx context.Context, id string, rawScore, wCap float64) (scoring.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.graph.Point(id); err != nil {
		return scoring.Result{}, err
	}

	rec := s.records[id]
	if rec == nil {
		rec = &Record{}
	}

	now := s.now().UTC()
	days := scoring.NeverPracticed
	if rec.LastPracticed != nil {
		days = now.Sub(*rec.LastPracticed).Hours() / 24
	}

	stage := scoring.StageFor(rec.Mastery)
	res, err := s.engine.Update(rec.Mastery, rawScore, wCap, stage, days)
	if err != nil {
		return scoring.Result{}, err
	}

	// Apply to a copy first; the live map only changes after the
	// snapshot is durably saved.
	updated := &Record{
		Mastery:       res.ANew,
		LastPracticed: &now,
		History: append(append([]AssessmentRecord(nil), rec.History...), AssessmentRecord{
			Timestamp:     now,
			Stage:         int(stage),
			RawScore:      rawScore,
			MasteryBefore: res.AOld,
			MasteryAfter:  res.ANew,
		}),
	}
	next := make(map[string]*Record, len(s.records)+1)
	for k, v := range s.records {
		next[k] = v
	}
	next[id] = updated

	if err := s.persistLocked(ctx, next); err != nil {
		return scoring.Result{}, err
	}
	s.records = next
	return res, nil
}

// Save persists the current state as a new snapshot.
func (s *State) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx, s.records)
}

func (s *State) persistLocked(ctx context.Context, records map[string]*Record) error {
	data, err := encodeSnapshot(s.topic, s.activeNodeID, s.graph, records)
	if err != nil {
		return err
	}
	if err := s.tracks.Save(ctx, s.topic, data, s.keep); err != nil {
		return fmt.Errorf("persist track %q: %w", s.topic, err)
	}
	return nil
}

// Progress summarizes a track for display.
type Progress struct {
	Topic          string
	Total          int
	Completed      int
	Practiced      int
	AverageMastery float64
	ActiveNodeID   string
}

// Summary computes the track's progress.
func (s *State) Summary() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Progress{
		Topic:        s.topic,
		Total:        s.graph.Len(),
		ActiveNodeID: s.activeNodeID,
	}
	var sum float64
	for _, rec := range s.records {
		p.Practiced++
		sum += rec.Mastery
		if scoring.StageFor(rec.Mastery) == scoring.StageAdvanced {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.AverageMastery = sum / float64(p.Total)
	}
	return p
}
