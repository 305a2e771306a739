package knowledge

import (
	"reflect"
	"testing"
)

func TestPlan_IsTopological(t *testing.T) {
	g := mustGraph(t, "algebra", Meta{GoalID: "goal"}, diamondPoints())
	assertTopological(t, g, g.Plan())
}

func TestPlan_PrefersNodesCloserToGoal(t *testing.T) {
	// "detour" is generated before "step" but does not feed the goal;
	// the plan must pull "step" forward.
	points := []Point{
		{ID: "root", Prerequisites: []string{}},
		{ID: "detour", Prerequisites: []string{"root"}},
		{ID: "step", Prerequisites: []string{"root"}},
		{ID: "goal", Prerequisites: []string{"step"}},
	}
	g := mustGraph(t, "algebra", Meta{GoalID: "goal"}, points)

	want := []string{"root", "step", "goal", "detour"}
	if got := g.Plan(); !reflect.DeepEqual(got, want) {
		t.Errorf("Plan() = %v, want %v", got, want)
	}
}

func TestPlan_EqualDistanceFallsBackToGenerationOrder(t *testing.T) {
	// "left" and "right" are both one hop from the goal; generation
	// order breaks the tie.
	g := mustGraph(t, "algebra", Meta{GoalID: "goal"}, diamondPoints())

	want := []string{"basics", "left", "right", "goal"}
	if got := g.Plan(); !reflect.DeepEqual(got, want) {
		t.Errorf("Plan() = %v, want %v", got, want)
	}
}

func TestPlan_NoGoalUsesGenerationOrder(t *testing.T) {
	g := mustGraph(t, "algebra", Meta{}, diamondPoints())

	want := []string{"basics", "left", "right", "goal"}
	if got := g.Plan(); !reflect.DeepEqual(got, want) {
		t.Errorf("Plan() = %v, want %v", got, want)
	}
}

func TestPlan_Deterministic(t *testing.T) {
	g := mustGraph(t, "algebra", Meta{GoalID: "goal"}, diamondPoints())
	first := g.Plan()
	for i := 0; i < 5; i++ {
		if got := g.Plan(); !reflect.DeepEqual(got, first) {
			t.Fatalf("Plan() run %d = %v, differs from first run %v", i, got, first)
		}
	}
}
