package knowledge

import (
	"fmt"
	"strings"
)

// MalformedGraphError reports every structural problem found in a
// generated point set. A malformed graph is unrecoverable: the caller
// must regenerate, never silently drop edges.
type MalformedGraphError struct {
	Problems []string
}

func (e *MalformedGraphError) Error() string {
	return fmt.Sprintf("malformed knowledge graph:\n  %s", strings.Join(e.Problems, "\n  "))
}

// validatePoints performs all structural checks on a point set and
// returns a combined *MalformedGraphError, or nil if the set is a
// valid DAG.
func validatePoints(points []Point) error {
	var problems []string

	if len(points) == 0 {
		return &MalformedGraphError{Problems: []string{"graph has no knowledge points"}}
	}

	idSet := make(map[string]bool, len(points))
	for _, p := range points {
		if p.ID == "" {
			problems = append(problems, fmt.Sprintf("point %q has an empty id", p.Name))
			continue
		}
		if idSet[p.ID] {
			problems = append(problems, fmt.Sprintf("duplicate point ID: %q", p.ID))
		}
		idSet[p.ID] = true
	}

	// Dangling prerequisites and self-edges
	for _, p := range points {
		for _, prereqID := range p.Prerequisites {
			if prereqID == p.ID {
				problems = append(problems, fmt.Sprintf("point %q lists itself as a prerequisite", p.ID))
				continue
			}
			if !idSet[prereqID] {
				problems = append(problems, fmt.Sprintf("point %q references nonexistent prerequisite %q", p.ID, prereqID))
			}
		}
	}

	// Cycle check (Kahn's algorithm): nodes left with positive
	// in-degree after draining all ready nodes sit on a cycle.
	inDegree := make(map[string]int, len(points))
	adj := make(map[string][]string)
	for _, p := range points {
		inDegree[p.ID] = len(p.Prerequisites)
		for _, prereqID := range p.Prerequisites {
			adj[prereqID] = append(adj[prereqID], p.ID)
		}
	}
	var queue []string
	for _, p := range points {
		if inDegree[p.ID] == 0 {
			queue = append(queue, p.ID)
		}
	}
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, depID := range adj[id] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}
	if visited < len(points) {
		var cycleNodes []string
		for _, p := range points {
			if inDegree[p.ID] > 0 {
				cycleNodes = append(cycleNodes, p.ID)
			}
		}
		problems = append(problems, fmt.Sprintf("cycle detected involving points: %s", strings.Join(cycleNodes, ", ")))
	}

	hasRoot := false
	for _, p := range points {
		if len(p.Prerequisites) == 0 {
			hasRoot = true
			break
		}
	}
	if !hasRoot {
		problems = append(problems, "no root points found (at least one point must have no prerequisites)")
	}

	if len(problems) > 0 {
		return &MalformedGraphError{Problems: problems}
	}
	return nil
}
