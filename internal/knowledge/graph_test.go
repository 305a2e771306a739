package knowledge

import (
	"reflect"
	"testing"
)

// diamond: basics → {left, right} → goal
func diamondPoints() []Point {
	return []Point{
		{ID: "basics", Name: "Basics", Prerequisites: []string{}},
		{ID: "left", Name: "Left branch", Prerequisites: []string{"basics"}},
		{ID: "right", Name: "Right branch", Prerequisites: []string{"basics"}},
		{ID: "goal", Name: "Goal", Prerequisites: []string{"left", "right"}},
	}
}

func mustGraph(t *testing.T, topic string, meta Meta, points []Point) *Graph {
	t.Helper()
	g, err := New(topic, meta, points)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func assertTopological(t *testing.T, g *Graph, order []string) {
	t.Helper()
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	if len(order) != g.Len() {
		t.Fatalf("order has %d ids, graph has %d points", len(order), g.Len())
	}
	for _, p := range g.Points() {
		for _, prereqID := range p.Prerequisites {
			if pos[prereqID] >= pos[p.ID] {
				t.Errorf("prerequisite %q at position %d does not precede %q at %d",
					prereqID, pos[prereqID], p.ID, pos[p.ID])
			}
		}
	}
}

func TestTopologicalOrder(t *testing.T) {
	g := mustGraph(t, "algebra", Meta{GoalID: "goal"}, diamondPoints())
	assertTopological(t, g, g.TopologicalOrder())
}

func TestRootsAndDependents(t *testing.T) {
	g := mustGraph(t, "algebra", Meta{}, diamondPoints())

	if got := g.Roots(); !reflect.DeepEqual(got, []string{"basics"}) {
		t.Errorf("Roots() = %v, want [basics]", got)
	}

	deps := g.Dependents("basics")
	if len(deps) != 2 || deps[0].ID != "left" || deps[1].ID != "right" {
		t.Errorf("Dependents(basics) = %v, want left then right", deps)
	}

	prereqs := g.Prerequisites("goal")
	if len(prereqs) != 2 || prereqs[0].ID != "left" || prereqs[1].ID != "right" {
		t.Errorf("Prerequisites(goal) = %v, want left then right", prereqs)
	}
}

func TestNextAvailable(t *testing.T) {
	g := mustGraph(t, "algebra", Meta{}, diamondPoints())

	cases := []struct {
		name      string
		completed map[string]bool
		want      []string
	}{
		{"nothing completed", map[string]bool{}, []string{"basics"}},
		{"root completed", map[string]bool{"basics": true}, []string{"left", "right"}},
		{"one branch done", map[string]bool{"basics": true, "left": true}, []string{"right"}},
		{"both branches done", map[string]bool{"basics": true, "left": true, "right": true}, []string{"goal"}},
		{"all completed", map[string]bool{"basics": true, "left": true, "right": true, "goal": true}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := g.NextAvailable(tc.completed); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("NextAvailable(%v) = %v, want %v", tc.completed, got, tc.want)
			}
		})
	}
}

func TestIsUnlocked_UnknownID(t *testing.T) {
	g := mustGraph(t, "algebra", Meta{}, diamondPoints())
	if g.IsUnlocked("nope", map[string]bool{}) {
		t.Error("unknown id must not be unlocked")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	meta := Meta{GoalID: "goal", StartLevel: "beginner", GoalLevel: "advanced"}
	g := mustGraph(t, "algebra", meta, diamondPoints())

	data, err := g.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got.Topic() != g.Topic() {
		t.Errorf("topic = %q, want %q", got.Topic(), g.Topic())
	}
	if got.Meta() != g.Meta() {
		t.Errorf("meta = %+v, want %+v", got.Meta(), g.Meta())
	}
	if !reflect.DeepEqual(got.Points(), g.Points()) {
		t.Errorf("points = %+v, want %+v", got.Points(), g.Points())
	}
	if !reflect.DeepEqual(got.TopologicalOrder(), g.TopologicalOrder()) {
		t.Errorf("topo order = %v, want %v", got.TopologicalOrder(), g.TopologicalOrder())
	}
}

func TestDecode_RejectsMalformedPayload(t *testing.T) {
	if _, err := Decode([]byte(`{"topic":"x","points":[{"id":"a","prerequisites":["ghost"]}]}`)); err == nil {
		t.Error("Decode must re-validate structure")
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Error("Decode must reject invalid JSON")
	}
}
