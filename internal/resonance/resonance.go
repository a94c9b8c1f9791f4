// Package resonance blends decoder confidence with semantic fidelity to an
// intent vector, producing a single bounded score per candidate token.
package resonance

import (
	"fmt"

	"github.com/sirenlab/siren/go-controller/internal/vecmath"
)

// #region alpha-config

// AlphaConfig controls the entropy coupling of the confidence weight.
// Above OpenThreshold, alpha is reduced by (entropy-threshold)*Slope,
// capped at MaxShift, shifting weight toward semantic fidelity when the
// decoder distribution is strained.
type AlphaConfig struct {
	OpenThreshold float32 // entropy at or below this leaves alpha unchanged
	MaxShift      float32 // largest reduction applied to alpha
	Slope         float32 // alpha reduction per unit of entropy above threshold
}

// DefaultAlphaConfig returns the standard entropy coupling.
func DefaultAlphaConfig() AlphaConfig {
	return AlphaConfig{
		OpenThreshold: 1.5,
		MaxShift:      0.25,
		Slope:         0.1,
	}
}

// #endregion alpha-config

// #region types

// ScoreInput bundles the per-call inputs to Score.
type ScoreInput struct {
	Confidence     float32   // raw logit or normalized probability
	InputIsLogit   bool      // apply sigmoid when true
	Candidate      []float32 // candidate token embedding
	Intent         []float32 // intent vector
	Alpha          float32   // base confidence weight in [0,1]
	UseKairosAlpha bool      // enable entropy coupling
	Entropy        *float32  // decoder entropy/strain; nil when absent
}

// ScoreBreakdown records the intermediate terms of one scoring call.
// All fields lie in [0,1].
type ScoreBreakdown struct {
	Confidence       float32 `json:"confidence"`
	SemanticFidelity float32 `json:"semantic_fidelity"`
	EffectiveAlpha   float32 `json:"effective_alpha"`
	Resonance        float32 `json:"resonance"`
}

// #endregion types

// #region scorer

// Scorer computes resonance scores. Stateless; one Scorer may serve any
// number of streams.
type Scorer struct {
	alpha AlphaConfig
}

// NewScorer creates a scorer with the given entropy coupling.
func NewScorer(cfg AlphaConfig) *Scorer {
	return &Scorer{alpha: cfg}
}

// Score blends the confidence term with semantic fidelity. The result is a
// convex combination of two values in [0,1], so it is itself in [0,1].
func (s *Scorer) Score(in ScoreInput) (ScoreBreakdown, error) {
	// 1. Confidence term
	conf := in.Confidence
	if in.InputIsLogit {
		conf = vecmath.Sigmoid(conf)
	}
	conf = vecmath.Clamp01(conf)

	// 2. Semantic fidelity via rescaled cosine
	cos, err := vecmath.Cosine(in.Candidate, in.Intent)
	if err != nil {
		return ScoreBreakdown{}, fmt.Errorf("semantic fidelity: %w", err)
	}
	semFid := vecmath.RescaleCosine(cos)

	// 3. Effective alpha
	alpha := vecmath.Clamp01(in.Alpha)
	if in.UseKairosAlpha {
		alpha = s.EffectiveAlpha(in.Alpha, in.Entropy)
	}

	// 4. Blend
	return ScoreBreakdown{
		Confidence:       conf,
		SemanticFidelity: semFid,
		EffectiveAlpha:   alpha,
		Resonance:        alpha*conf + (1-alpha)*semFid,
	}, nil
}

// EffectiveAlpha applies the entropy coupling to a base alpha. A nil
// entropy leaves the base unchanged apart from clamping.
func (s *Scorer) EffectiveAlpha(base float32, entropy *float32) float32 {
	if entropy == nil || *entropy <= s.alpha.OpenThreshold {
		return vecmath.Clamp01(base)
	}
	shift := (*entropy - s.alpha.OpenThreshold) * s.alpha.Slope
	if shift > s.alpha.MaxShift {
		shift = s.alpha.MaxShift
	}
	return vecmath.Clamp01(base - shift)
}

// #endregion scorer
