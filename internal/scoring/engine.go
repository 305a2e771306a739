package scoring

import (
	"fmt"
	"math"
)

// InvalidScoreError reports an assessment score or difficulty cap outside
// its contract range. Scores are never silently clamped.
type InvalidScoreError struct {
	Field string
	Value float64
}

func (e *InvalidScoreError) Error() string {
	return fmt.Sprintf("invalid %s: %v (must be in [0,1])", e.Field, e.Value)
}

// Config holds the scoring constants. Defaults match the reference
// algorithm; Beta and Gamma are exposed as tunables and default to 1.0.
type Config struct {
	// AlphaMax is the learning rate at StageIntro; AlphaMin at
	// StageAdvanced. Intermediate stages interpolate linearly.
	AlphaMax float64
	AlphaMin float64

	// Beta is the decay-carry weight in the EMA blend.
	Beta float64

	// Gamma is the gain factor applied to the EMA delta.
	Gamma float64

	// DecayPerDay is the daily forgetting rate applied beyond the grace
	// window.
	DecayPerDay float64

	// GraceDays is the window after practice during which no decay
	// applies.
	GraceDays float64

	// SlipThreshold: above this mastery, a failing score is treated as
	// a probable slip and the penalty halved.
	SlipThreshold float64

	// GuessThreshold: below this mastery, a passing score is treated as
	// a possible guess and the reward scaled by GuessFactor.
	GuessThreshold float64
	GuessFactor    float64

	// PassBoundary splits failing from passing raw scores.
	PassBoundary float64
}

// DefaultConfig returns the reference scoring constants.
func DefaultConfig() Config {
	return Config{
		AlphaMax:       0.4,
		AlphaMin:       0.15,
		Beta:           1.0,
		Gamma:          1.0,
		DecayPerDay:    0.02,
		GraceDays:      7,
		SlipThreshold:  0.7,
		GuessThreshold: 0.3,
		GuessFactor:    0.6,
		PassBoundary:   0.5,
	}
}

// Engine computes mastery updates. It is stateless: every update is a
// pure function of its inputs and the config, so any mastery value can
// be replayed from history.
type Engine struct {
	cfg Config
}

// NewEngine creates an Engine with the given config.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Result reports one mastery update with its intermediate values, so
// callers can audit or display each step.
type Result struct {
	AOld          float64
	ADecayed      float64
	STaskAdjusted float64
	Alpha         float64
	WCap          float64
	ANew          float64
}

// Improvement returns the mastery change.
func (r Result) Improvement() float64 {
	return r.ANew - r.AOld
}

// NeverPracticed is the daysSincePractice sentinel for a point with no
// prior practice; it skips the decay step.
const NeverPracticed float64 = -1

// Update computes the new mastery for a knowledge point. Steps run in a
// fixed order: time decay, learning-rate selection, slip/guess
// correction, weighted EMA, clamp.
//
// daysSincePractice < 0 means the point was never practiced and decay
// is skipped. sTask outside [0,1] or wCap outside (0,1] is a contract
// violation.
func (e *Engine) Update(aOld, sTask, wCap float64, stage Stage, daysSincePractice float64) (Result, error) {
	if sTask < 0 || sTask > 1 || math.IsNaN(sTask) {
		return Result{}, &InvalidScoreError{Field: "task score", Value: sTask}
	}
	if wCap <= 0 || wCap > 1 || math.IsNaN(wCap) {
		return Result{}, &InvalidScoreError{Field: "difficulty cap", Value: wCap}
	}

	res := Result{AOld: aOld, WCap: wCap}

	// 1. Time decay: forgetting starts after the grace window,
	// exponential per elapsed day beyond it.
	aDecayed := aOld
	if daysSincePractice > e.cfg.GraceDays {
		excess := daysSincePractice - e.cfg.GraceDays
		aDecayed = aOld * math.Pow(1-e.cfg.DecayPerDay, excess)
	}
	res.ADecayed = aDecayed

	// 2. Adaptive learning rate, fastest at StageIntro.
	alpha := e.Alpha(stage)
	res.Alpha = alpha

	// 3. Slip/guess correction on the raw score.
	sAdj := sTask
	switch {
	case aDecayed > e.cfg.SlipThreshold && sTask < e.cfg.PassBoundary:
		// Probable slip: blend the failing score halfway back toward
		// current mastery.
		sAdj = sTask + (aDecayed-sTask)/2
	case aDecayed < e.cfg.GuessThreshold && sTask >= e.cfg.PassBoundary:
		// Possible guess: discount the reward.
		sAdj = sTask * e.cfg.GuessFactor
	}
	res.STaskAdjusted = sAdj

	// 4. Weighted EMA toward the capped target.
	carried := aDecayed * e.cfg.Beta
	aNew := carried + alpha*(sAdj*wCap-carried)*e.cfg.Gamma

	// 5. Clamp.
	res.ANew = math.Max(0, math.Min(1, aNew))

	return res, nil
}

// Alpha returns the learning rate for a stage, interpolated linearly
// from AlphaMax (stage 0) down to AlphaMin (stage 3).
func (e *Engine) Alpha(stage Stage) float64 {
	if stage < StageIntro {
		stage = StageIntro
	}
	if stage > StageAdvanced {
		stage = StageAdvanced
	}
	span := e.cfg.AlphaMax - e.cfg.AlphaMin
	return e.cfg.AlphaMax - span*float64(stage)/float64(StageAdvanced)
}
