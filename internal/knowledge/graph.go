package knowledge

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

// Graph holds the knowledge-point DAG for one topic, with precomputed
// indices. Structure is immutable after construction: New validates and
// indexes once, and every accessor returns copies.
type Graph struct {
	topic      string
	meta       Meta
	points     []Point
	byID       map[string]*Point
	genIndex   map[string]int
	dependents map[string][]string
	roots      []string
	topoOrder  []string
	topoIndex  map[string]int
}

// New constructs a validated graph from points in generation order.
// Returns a *MalformedGraphError describing every structural problem
// found if the point set is not a DAG.
func New(topic string, meta Meta, points []Point) (*Graph, error) {
	if err := validatePoints(points); err != nil {
		return nil, err
	}

	g := &Graph{
		topic:      topic,
		meta:       meta,
		points:     slices.Clone(points),
		byID:       make(map[string]*Point, len(points)),
		genIndex:   make(map[string]int, len(points)),
		dependents: make(map[string][]string),
		topoIndex:  make(map[string]int, len(points)),
	}

	for i := range g.points {
		g.byID[g.points[i].ID] = &g.points[i]
		g.genIndex[g.points[i].ID] = i
	}

	// Reverse edges
	for i := range g.points {
		for _, prereqID := range g.points[i].Prerequisites {
			g.dependents[prereqID] = append(g.dependents[prereqID], g.points[i].ID)
		}
	}
	for id := range g.dependents {
		deps := g.dependents[id]
		sort.Slice(deps, func(i, j int) bool {
			return g.genIndex[deps[i]] < g.genIndex[deps[j]]
		})
	}

	for i := range g.points {
		if len(g.points[i].Prerequisites) == 0 {
			g.roots = append(g.roots, g.points[i].ID)
		}
	}

	// Topological sort (Kahn's algorithm), ready nodes dequeued in
	// generation order for determinism.
	inDegree := make(map[string]int, len(points))
	for i := range g.points {
		inDegree[g.points[i].ID] = len(g.points[i].Prerequisites)
	}
	var queue []string
	for i := range g.points {
		if inDegree[g.points[i].ID] == 0 {
			queue = append(queue, g.points[i].ID)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		g.topoOrder = append(g.topoOrder, id)
		for _, depID := range g.dependents[id] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
		sort.Slice(queue, func(i, j int) bool {
			return g.genIndex[queue[i]] < g.genIndex[queue[j]]
		})
	}
	for i, id := range g.topoOrder {
		g.topoIndex[id] = i
	}

	return g, nil
}

// Topic returns the topic the graph was generated for.
func (g *Graph) Topic() string { return g.topic }

// Meta returns the session target metadata.
func (g *Graph) Meta() Meta { return g.meta }

// Len returns the number of knowledge points.
func (g *Graph) Len() int { return len(g.points) }

// Point returns a knowledge point by ID.
func (g *Graph) Point(id string) (Point, error) {
	p, ok := g.byID[id]
	if !ok {
		return Point{}, fmt.Errorf("knowledge point not found: %q", id)
	}
	return *p, nil
}

// Points returns all knowledge points in generation order.
func (g *Graph) Points() []Point {
	return slices.Clone(g.points)
}

// TopologicalOrder returns all point IDs in a valid topological order:
// every prerequisite precedes each of its dependents.
func (g *Graph) TopologicalOrder() []string {
	return slices.Clone(g.topoOrder)
}

// Roots returns the IDs of all points with no prerequisites.
func (g *Graph) Roots() []string {
	return slices.Clone(g.roots)
}

// Prerequisites returns the direct prerequisites of a point.
func (g *Graph) Prerequisites(id string) []Point {
	p, ok := g.byID[id]
	if !ok {
		return nil
	}
	result := make([]Point, 0, len(p.Prerequisites))
	for _, prereqID := range p.Prerequisites {
		if pre, ok := g.byID[prereqID]; ok {
			result = append(result, *pre)
		}
	}
	return result
}

// Dependents returns the points that directly depend on the given ID.
func (g *Graph) Dependents(id string) []Point {
	depIDs := g.dependents[id]
	result := make([]Point, 0, len(depIDs))
	for _, depID := range depIDs {
		if p, ok := g.byID[depID]; ok {
			result = append(result, *p)
		}
	}
	return result
}

// IsUnlocked reports whether every prerequisite of the given point is
// in the completed set.
func (g *Graph) IsUnlocked(id string, completed map[string]bool) bool {
	p, ok := g.byID[id]
	if !ok {
		return false
	}
	for _, prereqID := range p.Prerequisites {
		if !completed[prereqID] {
			return false
		}
	}
	return true
}

// NextAvailable returns, in topological order, the IDs of all points
// that are unlocked but not yet completed. An empty result means the
// path is exhausted.
func (g *Graph) NextAvailable(completed map[string]bool) []string {
	var result []string
	for _, id := range g.topoOrder {
		if !completed[id] && g.IsUnlocked(id, completed) {
			result = append(result, id)
		}
	}
	return result
}

type graphDoc struct {
	Topic  string  `json:"topic"`
	Meta   Meta    `json:"meta"`
	Points []Point `json:"points"`
}

// Encode serializes the graph structure for storage. Only topic, meta
// and points are written; indices are rebuilt on decode.
func (g *Graph) Encode() ([]byte, error) {
	return json.Marshal(graphDoc{Topic: g.topic, Meta: g.meta, Points: g.points})
}

// Decode reconstructs a graph from an Encode payload, re-running full
// structural validation.
func Decode(data []byte) (*Graph, error) {
	var doc graphDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	return New(doc.Topic, doc.Meta, doc.Points)
}
