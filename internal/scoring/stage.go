package scoring

// Stage is one of four teaching styles selected by mastery band.
type Stage int

const (
	StageIntro        Stage = iota // mastery [0.0, 0.2): first-principles teaching
	StageFoundation                // [0.2, 0.5): core concepts with examples
	StageIntermediate              // [0.5, 0.8): applied practice
	StageAdvanced                  // [0.8, 1.0]: expert-level depth
)

// stageBands holds the lower bound of each stage. Bands are inclusive on
// the lower edge, exclusive on the upper; 1.0 maps to StageAdvanced.
var stageBands = [4]float64{0.0, 0.2, 0.5, 0.8}

// StageFor returns the teaching stage for a mastery value. Out-of-range
// inputs are treated as their nearest band.
func StageFor(mastery float64) Stage {
	for s := StageAdvanced; s > StageIntro; s-- {
		if mastery >= stageBands[s] {
			return s
		}
	}
	return StageIntro
}

// Label returns a human-readable stage name.
func (s Stage) Label() string {
	switch s {
	case StageIntro:
		return "Intro"
	case StageFoundation:
		return "Foundation"
	case StageIntermediate:
		return "Intermediate"
	case StageAdvanced:
		return "Advanced"
	default:
		return "Unknown"
	}
}
