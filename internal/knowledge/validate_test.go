package knowledge

import (
	"errors"
	"strings"
	"testing"
)

func assertMalformed(t *testing.T, points []Point, wantSubstr string) {
	t.Helper()
	_, err := New("topic", Meta{}, points)
	var malformed *MalformedGraphError
	if !errors.As(err, &malformed) {
		t.Fatalf("err = %v, want MalformedGraphError", err)
	}
	if !strings.Contains(malformed.Error(), wantSubstr) {
		t.Errorf("error %q does not mention %q", malformed.Error(), wantSubstr)
	}
}

func TestValidate_CycleRejected(t *testing.T) {
	assertMalformed(t, []Point{
		{ID: "root", Prerequisites: []string{}},
		{ID: "a", Prerequisites: []string{"c", "root"}},
		{ID: "b", Prerequisites: []string{"a"}},
		{ID: "c", Prerequisites: []string{"b"}},
	}, "cycle detected")
}

func TestValidate_DanglingPrerequisiteRejected(t *testing.T) {
	assertMalformed(t, []Point{
		{ID: "a", Prerequisites: []string{}},
		{ID: "b", Prerequisites: []string{"ghost"}},
	}, `nonexistent prerequisite "ghost"`)
}

func TestValidate_DuplicateIDRejected(t *testing.T) {
	assertMalformed(t, []Point{
		{ID: "a", Prerequisites: []string{}},
		{ID: "a", Prerequisites: []string{}},
	}, `duplicate point ID: "a"`)
}

func TestValidate_SelfEdgeRejected(t *testing.T) {
	assertMalformed(t, []Point{
		{ID: "root", Prerequisites: []string{}},
		{ID: "a", Prerequisites: []string{"a"}},
	}, "lists itself")
}

func TestValidate_NoRootRejected(t *testing.T) {
	assertMalformed(t, []Point{
		{ID: "a", Prerequisites: []string{"b"}},
		{ID: "b", Prerequisites: []string{"a"}},
	}, "no root points")
}

func TestValidate_EmptyGraphRejected(t *testing.T) {
	assertMalformed(t, nil, "no knowledge points")
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	_, err := New("topic", Meta{}, []Point{
		{ID: "a", Prerequisites: []string{}},
		{ID: "a", Prerequisites: []string{"ghost"}},
	})
	var malformed *MalformedGraphError
	if !errors.As(err, &malformed) {
		t.Fatalf("err = %v, want MalformedGraphError", err)
	}
	if len(malformed.Problems) < 2 {
		t.Errorf("Problems = %v, want both the duplicate and the dangling edge reported", malformed.Problems)
	}
}
