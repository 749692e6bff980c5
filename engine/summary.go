package engine

import "fmt"

// Summary holds the result of running a predictor over a trace.
type Summary struct {
	// Config is the configuration string of the predictor.
	Config string `json:"config"`
	// Branches is the total number of predictions made.
	Branches uint64 `json:"branches"`
	// Correct is the number of correct predictions.
	Correct uint64 `json:"correct"`
	// Mispredictions is the number of incorrect predictions.
	Mispredictions uint64 `json:"mispredictions"`
}

// MispredictionRate returns mispredictions divided by branches, or 0 for an
// empty trace.
func (s Summary) MispredictionRate() float64 {
	if s.Branches == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Branches)
}

// Accuracy returns the fraction of correct predictions, or 0 for an empty
// trace.
func (s Summary) Accuracy() float64 {
	if s.Branches == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Branches)
}

// String returns the one-line run summary.
func (s Summary) String() string {
	return fmt.Sprintf("Branches: %d Incorrect: %d Misprediction Rate: %.3f%%",
		s.Branches, s.Mispredictions, 100*s.MispredictionRate())
}
