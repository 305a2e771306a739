package knowledge

import "github.com/astramentor/astra/internal/llm"

// graphSchema constrains the model to a flat point list with id-based
// prerequisite edges. Structural soundness (cycles, dangling edges) is
// checked after decoding; JSON schema alone cannot express it.
func graphSchema() *llm.Schema {
	return &llm.Schema{
		Name:        "knowledge-graph",
		Description: "A dependency graph of knowledge points for a learning topic, ordered from fundamentals to the goal.",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"goal_id": map[string]any{
					"type":        "string",
					"description": "ID of the point that represents the learning goal.",
				},
				"points": map[string]any{
					"type":     "array",
					"minItems": 3,
					"maxItems": 20,
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"id": map[string]any{
								"type":        "string",
								"description": "Stable kebab-case identifier, unique within the graph.",
							},
							"name":        map[string]any{"type": "string"},
							"description": map[string]any{"type": "string"},
							"prerequisites": map[string]any{
								"type":        "array",
								"items":       map[string]any{"type": "string"},
								"description": "IDs of points that must be learned first. Empty for starting points.",
							},
							"estimated_mins": map[string]any{
								"type":    "integer",
								"minimum": 5,
								"maximum": 120,
							},
						},
						"required":             []string{"id", "name", "description", "prerequisites"},
						"additionalProperties": false,
					},
				},
			},
			"required":             []string{"goal_id", "points"},
			"additionalProperties": false,
		},
	}
}
