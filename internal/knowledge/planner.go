package knowledge

import "sort"

// unreachable marks nodes with no path to the goal. They still get
// planned, after everything that feeds the goal.
const unreachable = 1 << 30

// Plan returns a topological ordering of all point IDs tuned for goal
// pursuit: among simultaneously-ready nodes it prefers the one with the
// fewest hops to the goal point, falling back to generation order. With
// no goal set the plan degrades to plain generation-order Kahn.
func (g *Graph) Plan() []string {
	dist := g.goalDistances()

	inDegree := make(map[string]int, len(g.points))
	for i := range g.points {
		inDegree[g.points[i].ID] = len(g.points[i].Prerequisites)
	}

	var ready []string
	for i := range g.points {
		if inDegree[g.points[i].ID] == 0 {
			ready = append(ready, g.points[i].ID)
		}
	}

	order := make([]string, 0, len(g.points))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			di, dj := dist[ready[i]], dist[ready[j]]
			if di != dj {
				return di < dj
			}
			return g.genIndex[ready[i]] < g.genIndex[ready[j]]
		})
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, depID := range g.dependents[id] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				ready = append(ready, depID)
			}
		}
	}
	return order
}

// goalDistances computes, for every point, the fewest hops along
// dependency edges to the goal point. BFS from the goal walking
// prerequisite edges backwards.
func (g *Graph) goalDistances() map[string]int {
	dist := make(map[string]int, len(g.points))
	for i := range g.points {
		dist[g.points[i].ID] = unreachable
	}

	goal := g.meta.GoalID
	if _, ok := g.byID[goal]; !ok {
		return dist
	}

	dist[goal] = 0
	queue := []string{goal}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, prereqID := range g.byID[id].Prerequisites {
			if dist[prereqID] > dist[id]+1 {
				dist[prereqID] = dist[id] + 1
				queue = append(queue, prereqID)
			}
		}
	}
	return dist
}
