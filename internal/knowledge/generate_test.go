package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/astramentor/astra/internal/llm"
)

const validGraphJSON = `{
	"goal_id": "goal",
	"points": [
		{"id": "basics", "name": "Basics", "description": "d", "prerequisites": []},
		{"id": "goal", "name": "Goal", "description": "d", "prerequisites": ["basics"]}
	]
}`

func TestBuilder_Build(t *testing.T) {
	mock := llm.NewMockProvider(llm.JSONResponse(validGraphJSON))
	b := NewBuilder(mock)

	g, err := b.Build(context.Background(), "algebra", "beginner", "advanced")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Len() != 2 {
		t.Errorf("Len() = %d, want 2", g.Len())
	}
	if g.Meta().GoalID != "goal" {
		t.Errorf("GoalID = %q, want goal", g.Meta().GoalID)
	}
	if g.Meta().StartLevel != "beginner" || g.Meta().GoalLevel != "advanced" {
		t.Errorf("levels = %+v, want beginner/advanced", g.Meta())
	}
	if mock.CallCount() != 1 {
		t.Errorf("CallCount = %d, want 1", mock.CallCount())
	}
	if mock.Calls[0].Schema == nil || mock.Calls[0].Schema.Name != "knowledge-graph" {
		t.Error("request must carry the knowledge-graph schema")
	}
}

func TestBuilder_RegeneratesOnceOnMalformedGraph(t *testing.T) {
	cyclic := `{
		"goal_id": "b",
		"points": [
			{"id": "a", "name": "A", "description": "d", "prerequisites": ["b"]},
			{"id": "b", "name": "B", "description": "d", "prerequisites": ["a"]}
		]
	}`
	mock := llm.NewMockProvider(llm.JSONResponse(cyclic), llm.JSONResponse(validGraphJSON))
	b := NewBuilder(mock)

	g, err := b.Build(context.Background(), "algebra", "beginner", "advanced")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Len() != 2 {
		t.Errorf("Len() = %d, want 2", g.Len())
	}
	if mock.CallCount() != 2 {
		t.Errorf("CallCount = %d, want 2 (one regeneration)", mock.CallCount())
	}
}

func TestBuilder_SecondMalformedGraphFails(t *testing.T) {
	cyclic := `{
		"goal_id": "b",
		"points": [
			{"id": "a", "name": "A", "description": "d", "prerequisites": ["b"]},
			{"id": "b", "name": "B", "description": "d", "prerequisites": ["a"]}
		]
	}`
	mock := llm.NewMockProvider(llm.JSONResponse(cyclic), llm.JSONResponse(cyclic))
	b := NewBuilder(mock)

	_, err := b.Build(context.Background(), "algebra", "beginner", "advanced")
	var malformed *MalformedGraphError
	if !errors.As(err, &malformed) {
		t.Fatalf("err = %v, want MalformedGraphError after regeneration budget", err)
	}
	if mock.CallCount() != 2 {
		t.Errorf("CallCount = %d, want exactly 2", mock.CallCount())
	}
}
