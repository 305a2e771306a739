package tutor

import "github.com/astramentor/astra/internal/llm"

var questionSchema = &llm.Schema{
	Name:        "assessment-question",
	Description: "One assessment question with a reference answer for grading.",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The question or exercise shown to the learner.",
			},
			"reference_answer": map[string]any{
				"type":        "string",
				"description": "A model answer the grader compares the learner's response against.",
			},
			"difficulty": map[string]any{
				"type":        "string",
				"enum":        []string{"concept", "guided", "applied"},
				"description": "concept: recognition/recall. guided: one concrete task. applied: open problem solving.",
			},
		},
		"required":             []string{"question", "reference_answer", "difficulty"},
		"additionalProperties": false,
	},
}

var evaluationSchema = &llm.Schema{
	Name:        "response-evaluation",
	Description: "A graded score and feedback for a learner's response.",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "number",
				"minimum":     0,
				"maximum":     1,
				"description": "0.0 = no understanding, 1.0 = fully correct.",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "One or two sentences addressed to the learner.",
			},
		},
		"required":             []string{"score", "feedback"},
		"additionalProperties": false,
	},
}
