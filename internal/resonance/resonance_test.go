package resonance

import (
	"errors"
	"math"
	"testing"

	"github.com/sirenlab/siren/go-controller/internal/vecmath"
)

func f32(v float32) *float32 { return &v }

func scoreOrFail(t *testing.T, s *Scorer, in ScoreInput) ScoreBreakdown {
	t.Helper()
	out, err := s.Score(in)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	return out
}

func TestAlphaOneIsPureConfidence(t *testing.T) {
	s := NewScorer(DefaultAlphaConfig())
	out := scoreOrFail(t, s, ScoreInput{
		Confidence:   2.5,
		InputIsLogit: true,
		Candidate:    []float32{1, 0, 0},
		Intent:       []float32{0, 1, 0},
		Alpha:        1.0,
	})
	if math.Abs(float64(out.Resonance-out.Confidence)) > 1e-6 {
		t.Fatalf("alpha=1 should equal confidence: %f != %f", out.Resonance, out.Confidence)
	}
}

func TestAlphaZeroIsPureSemanticFidelity(t *testing.T) {
	s := NewScorer(DefaultAlphaConfig())
	out := scoreOrFail(t, s, ScoreInput{
		Confidence:   2.5,
		InputIsLogit: true,
		Candidate:    []float32{1, 0, 0},
		Intent:       []float32{0, 1, 0},
		Alpha:        0.0,
	})
	if math.Abs(float64(out.Resonance-out.SemanticFidelity)) > 1e-6 {
		t.Fatalf("alpha=0 should equal semantic fidelity: %f != %f", out.Resonance, out.SemanticFidelity)
	}
}

func TestSelfSimilarityIsOne(t *testing.T) {
	s := NewScorer(DefaultAlphaConfig())
	v := []float32{0.3, -0.2, 0.9}
	out := scoreOrFail(t, s, ScoreInput{
		Confidence: 0.5,
		Candidate:  v,
		Intent:     v,
		Alpha:      0.0,
	})
	if math.Abs(float64(out.SemanticFidelity-1.0)) > 1e-5 {
		t.Fatalf("expected semantic fidelity 1.0, got %f", out.SemanticFidelity)
	}
}

func TestLogitMapping(t *testing.T) {
	s := NewScorer(DefaultAlphaConfig())
	out := scoreOrFail(t, s, ScoreInput{
		Confidence:   0.0,
		InputIsLogit: true,
		Candidate:    []float32{1, 0},
		Intent:       []float32{1, 0},
		Alpha:        1.0,
	})
	if math.Abs(float64(out.Confidence-0.5)) > 1e-6 {
		t.Fatalf("sigmoid(0) should be 0.5, got %f", out.Confidence)
	}
}

func TestProbabilityPassthroughClamped(t *testing.T) {
	s := NewScorer(DefaultAlphaConfig())
	out := scoreOrFail(t, s, ScoreInput{
		Confidence: 1.7, // malformed probability, must clamp
		Candidate:  []float32{1, 0},
		Intent:     []float32{1, 0},
		Alpha:      1.0,
	})
	if out.Confidence != 1.0 {
		t.Fatalf("expected clamp to 1.0, got %f", out.Confidence)
	}
}

func TestEffectiveAlphaBelowThresholdUnchanged(t *testing.T) {
	s := NewScorer(DefaultAlphaConfig())
	if a := s.EffectiveAlpha(0.7, f32(1.2)); math.Abs(float64(a-0.7)) > 1e-6 {
		t.Fatalf("entropy below threshold should not shift alpha, got %f", a)
	}
	if a := s.EffectiveAlpha(0.7, nil); math.Abs(float64(a-0.7)) > 1e-6 {
		t.Fatalf("nil entropy should not shift alpha, got %f", a)
	}
}

func TestEffectiveAlphaMonotone(t *testing.T) {
	s := NewScorer(DefaultAlphaConfig())
	prev := s.EffectiveAlpha(0.7, f32(1.5))
	for _, e := range []float32{1.6, 1.8, 2.0, 2.5, 3.0, 5.0} {
		cur := s.EffectiveAlpha(0.7, f32(e))
		if cur > prev+1e-6 {
			t.Fatalf("alpha increased with entropy: %f -> %f at entropy %f", prev, cur, e)
		}
		prev = cur
	}
}

func TestEffectiveAlphaClampedAtMaxShift(t *testing.T) {
	s := NewScorer(DefaultAlphaConfig())
	a := s.EffectiveAlpha(0.7, f32(1000))
	if math.Abs(float64(a-0.45)) > 1e-5 {
		t.Fatalf("expected base-maxShift = 0.45, got %f", a)
	}
}

func TestKairosAlphaAppliedOnlyWhenEnabled(t *testing.T) {
	s := NewScorer(DefaultAlphaConfig())
	in := ScoreInput{
		Confidence: 0.9,
		Candidate:  []float32{1, 0},
		Intent:     []float32{1, 0},
		Alpha:      0.7,
		Entropy:    f32(3.0),
	}
	out := scoreOrFail(t, s, in)
	if math.Abs(float64(out.EffectiveAlpha-0.7)) > 1e-6 {
		t.Fatalf("coupling disabled, alpha should stay 0.7: got %f", out.EffectiveAlpha)
	}

	in.UseKairosAlpha = true
	out = scoreOrFail(t, s, in)
	if out.EffectiveAlpha >= 0.7 {
		t.Fatalf("coupling enabled, alpha should drop below 0.7: got %f", out.EffectiveAlpha)
	}
}

func TestResonanceBounded(t *testing.T) {
	s := NewScorer(DefaultAlphaConfig())
	for _, alpha := range []float32{0, 0.25, 0.5, 0.75, 1} {
		out := scoreOrFail(t, s, ScoreInput{
			Confidence:   5.0,
			InputIsLogit: true,
			Candidate:    []float32{1, 0},
			Intent:       []float32{-1, 0},
			Alpha:        alpha,
		})
		if out.Resonance < 0 || out.Resonance > 1 {
			t.Fatalf("resonance out of bounds at alpha %f: %f", alpha, out.Resonance)
		}
	}
}

func TestDimensionMismatch(t *testing.T) {
	s := NewScorer(DefaultAlphaConfig())
	_, err := s.Score(ScoreInput{
		Confidence: 0.5,
		Candidate:  []float32{1, 0},
		Intent:     []float32{1, 0, 0},
		Alpha:      0.5,
	})
	if !errors.Is(err, vecmath.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}
