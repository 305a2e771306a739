package scoring

import "testing"

func TestClassifyDifficulty(t *testing.T) {
	cases := []struct {
		question string
		want     Difficulty
	}{
		{"Which of these describes a binary search tree?", DifficultyConcept},
		{"What is the time complexity of merge sort?", DifficultyConcept},
		{"Fill in the missing line of this loop", DifficultyGuided},
		{"Debug the following snippet", DifficultyGuided},
		{"Implement a queue using two stacks", DifficultyApplied},
		{"Design an algorithm to detect cycles", DifficultyApplied},
		// Applied keywords take priority over guided ones.
		{"Complete the design of this cache", DifficultyApplied},
	}
	for _, tc := range cases {
		if got := ClassifyDifficulty(tc.question); got != tc.want {
			t.Errorf("ClassifyDifficulty(%q) = %v, want %v", tc.question, got, tc.want)
		}
	}
}

func TestWCap(t *testing.T) {
	cases := []struct {
		d    Difficulty
		want float64
	}{
		{DifficultyConcept, 0.4},
		{DifficultyGuided, 0.7},
		{DifficultyApplied, 1.0},
		{Difficulty("unknown"), 0.7},
	}
	for _, tc := range cases {
		if got := tc.d.WCap(); got != tc.want {
			t.Errorf("%v.WCap() = %v, want %v", tc.d, got, tc.want)
		}
	}
}
