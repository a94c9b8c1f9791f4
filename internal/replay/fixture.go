package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirenlab/siren/go-controller/internal/kairos"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string            `json:"description"`
	Gate        FixtureGateConfig `json:"gate_config"`
	Steps       []FixtureStep     `json:"steps"`
	Expected    []FixtureExpected `json:"expected_results"`
}

// FixtureGateConfig mirrors kairos.GateConfig with JSON tags. Cooldown is
// serialized as fractional seconds for parity with recorded runs.
type FixtureGateConfig struct {
	ResonanceMin    float32  `json:"resonance_min"`
	NormLogitMax    float32  `json:"norm_logit_max"`
	EntropyMin      *float32 `json:"entropy_min,omitempty"`
	HysteresisDelta float32  `json:"hysteresis_delta"`
	CooldownSeconds float64  `json:"cooldown_seconds"`
}

// FixtureStep is one recorded gate evaluation. OffsetSeconds is measured
// from the start of the run.
type FixtureStep struct {
	StepID        string   `json:"step_id"`
	Resonance     float32  `json:"resonance"`
	NormLogit     float32  `json:"norm_logit"`
	Entropy       *float32 `json:"entropy,omitempty"`
	OffsetSeconds float64  `json:"offset_seconds"`
}

// FixtureExpected captures the expected emit decision per step.
type FixtureExpected struct {
	StepID string `json:"step_id"`
	Emit   bool   `json:"emit"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToGateConfig converts a fixture gate config to the domain config.
func (c *FixtureGateConfig) ToGateConfig() kairos.GateConfig {
	return kairos.GateConfig{
		ResonanceMin:    c.ResonanceMin,
		NormLogitMax:    c.NormLogitMax,
		EntropyMin:      c.EntropyMin,
		HysteresisDelta: c.HysteresisDelta,
		Cooldown:        time.Duration(c.CooldownSeconds * float64(time.Second)),
	}
}

// ToStep converts a fixture step to the domain step.
func (s *FixtureStep) ToStep() Step {
	return Step{
		StepID:    s.StepID,
		Resonance: s.Resonance,
		NormLogit: s.NormLogit,
		Entropy:   s.Entropy,
		Offset:    time.Duration(s.OffsetSeconds * float64(time.Second)),
	}
}

// Interactions converts all fixture steps to domain steps.
func (f *Fixture) Interactions() []Step {
	steps := make([]Step, len(f.Steps))
	for i := range f.Steps {
		steps[i] = f.Steps[i].ToStep()
	}
	return steps
}

// #endregion fixture-loader
