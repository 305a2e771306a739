package scoring

import "strings"

// Difficulty classifies an assessment task. Each difficulty carries a
// mastery cap (W_cap): acing easy items cannot prove expertise, so the
// score an item contributes is discounted by its cap.
type Difficulty string

const (
	// DifficultyConcept covers multiple-choice and concept questions.
	DifficultyConcept Difficulty = "concept"

	// DifficultyGuided covers fill-in and guided exercises.
	DifficultyGuided Difficulty = "guided"

	// DifficultyApplied covers full implementations and open problems.
	DifficultyApplied Difficulty = "applied"
)

// WCap returns the mastery cap for a difficulty.
func (d Difficulty) WCap() float64 {
	switch d {
	case DifficultyConcept:
		return 0.4
	case DifficultyGuided:
		return 0.7
	case DifficultyApplied:
		return 1.0
	default:
		return 0.7
	}
}

var appliedKeywords = []string{
	"implement", "write", "design", "optimize", "architecture",
	"algorithm", "project", "system", "build",
}

var guidedKeywords = []string{
	"fill", "complete", "modify", "debug", "fix", "code", "function",
}

// ClassifyDifficulty infers a task's difficulty from its question text.
// Applied keywords win over guided ones; anything else is a concept
// question.
func ClassifyDifficulty(question string) Difficulty {
	q := strings.ToLower(question)
	for _, kw := range appliedKeywords {
		if strings.Contains(q, kw) {
			return DifficultyApplied
		}
	}
	for _, kw := range guidedKeywords {
		if strings.Contains(q, kw) {
			return DifficultyGuided
		}
	}
	return DifficultyConcept
}
