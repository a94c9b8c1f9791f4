package logging

import (
	"time"

	"github.com/sirenlab/siren/go-controller/internal/resonance"
)

// #region decision-entry

// DecisionEntry is a single row in the decision_log table: one gate
// evaluation with the exact inputs and thresholds active at decision time.
type DecisionEntry struct {
	StreamID  string
	StepID    string
	Candidate string

	Breakdown resonance.ScoreBreakdown
	NormLogit float32
	Entropy   *float32 // nil when the decoder supplied no entropy

	// Hysteresis-adjusted thresholds actually applied.
	ResonanceMin float32
	NormLogitMax float32

	Open   bool
	Emit   bool
	Reason string

	CreatedAt time.Time
}

// #endregion decision-entry
