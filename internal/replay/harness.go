// Package replay re-evaluates recorded gate decisions deterministically.
// A manual clock driven by recorded step offsets removes the wall-clock
// dependency, so a fixture replays identically on every run.
package replay

import (
	"fmt"
	"time"

	"github.com/sirenlab/siren/go-controller/internal/kairos"
)

// #region types

// Step is one recorded gate evaluation to replay.
type Step struct {
	StepID    string
	Resonance float32
	NormLogit float32
	Entropy   *float32
	Offset    time.Duration // elapsed since run start
}

// StepResult pairs a replayed step with its gate decision.
type StepResult struct {
	StepID   string
	Decision kairos.Decision
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	Steps int
	Opens int
	Emits int
}

// Mismatch records a divergence between a replayed decision and the
// fixture's expectation.
type Mismatch struct {
	StepID string
	Want   bool
	Got    bool
}

// #endregion types

// #region replay

// Replay evaluates the steps in order against a fresh gate under a manual
// clock. Steps must be sorted by offset; an out-of-order step is an error
// because the gate's contract requires strict temporal order.
func Replay(cfg kairos.GateConfig, steps []Step) ([]StepResult, Summary, error) {
	base := time.Unix(0, 0)
	clock := kairos.NewManualClock(base)
	gate, err := kairos.NewGateWithClock(cfg, clock)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("replay gate: %w", err)
	}

	results := make([]StepResult, 0, len(steps))
	summary := Summary{Steps: len(steps)}
	var prev time.Duration

	for i, s := range steps {
		if s.Offset < prev {
			return nil, Summary{}, fmt.Errorf("step %d (%s): offset %s before previous %s", i, s.StepID, s.Offset, prev)
		}
		prev = s.Offset
		clock.Set(base.Add(s.Offset))

		d := gate.Decide(s.Resonance, s.NormLogit, s.Entropy)
		if d.Open {
			summary.Opens++
		}
		if d.Emit {
			summary.Emits++
		}
		results = append(results, StepResult{StepID: s.StepID, Decision: d})
	}
	return results, summary, nil
}

// #endregion replay

// #region verify

// Verify diffs replayed decisions against the fixture's expectations.
// Steps without an expectation are skipped.
func Verify(results []StepResult, expected []FixtureExpected) []Mismatch {
	want := make(map[string]bool, len(expected))
	for _, e := range expected {
		want[e.StepID] = e.Emit
	}

	var mismatches []Mismatch
	for _, r := range results {
		w, ok := want[r.StepID]
		if !ok {
			continue
		}
		if r.Decision.Emit != w {
			mismatches = append(mismatches, Mismatch{StepID: r.StepID, Want: w, Got: r.Decision.Emit})
		}
	}
	return mismatches
}

// #endregion verify
