package knowledge

// Point is a single knowledge point in the dependency graph. Structure
// only: mastery and history live with the learner track, so a graph can
// be regenerated or shared without touching progress data.
type Point struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Prerequisites []string `json:"prerequisites"`
	EstimatedMins int      `json:"estimated_mins,omitempty"`
}

// Meta describes the session target the graph was generated for.
type Meta struct {
	GoalID     string `json:"goal_id"`
	StartLevel string `json:"start_level"`
	GoalLevel  string `json:"goal_level"`
}
