// Package pipeline wires Builder → Scorer → Gate into a per-stream decision
// loop. The production decoding loop lives outside this repository; Stream
// is the reference host wiring it calls once per decoding step.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"
	"github.com/sirenlab/siren/go-controller/internal/intent"
	"github.com/sirenlab/siren/go-controller/internal/kairos"
	"github.com/sirenlab/siren/go-controller/internal/logging"
	"github.com/sirenlab/siren/go-controller/internal/resonance"
	"github.com/sirenlab/siren/go-controller/internal/vecmath"
)

// #region types

// Candidate is one decoding step's candidate token with its decoder signals.
type Candidate struct {
	Text      string
	Embedding []float32
	Logit     float32
	Entropy   *float32
}

// StepResult is the outcome of one pipeline step.
type StepResult struct {
	StepID    string
	Candidate string
	Breakdown resonance.ScoreBreakdown
	NormLogit float32
	Decision  kairos.Decision
}

// Config holds per-stream scoring parameters.
type Config struct {
	Alpha          float32 // base confidence weight
	UseKairosAlpha bool    // couple alpha to entropy
}

// DefaultConfig returns the standard scoring parameters.
func DefaultConfig() Config {
	return Config{Alpha: 0.5, UseKairosAlpha: true}
}

// #endregion types

// #region stream

// Stream owns the per-stream decision state. Each concurrent decoding
// stream needs its own Stream; the gate inside is not safe for sharing.
type Stream struct {
	ID string

	builder intent.Builder
	scorer  *resonance.Scorer
	gate    *kairos.Gate
	cfg     Config
	declog  *logging.DecisionLog // optional

	stepNum int
}

// NewStream creates a stream with a fresh uuid. The decision log may be nil.
func NewStream(builder intent.Builder, scorer *resonance.Scorer, gate *kairos.Gate, cfg Config, declog *logging.DecisionLog) *Stream {
	return &Stream{
		ID:      uuid.NewString(),
		builder: builder,
		scorer:  scorer,
		gate:    gate,
		cfg:     cfg,
		declog:  declog,
	}
}

// Step runs one decoding step: build the intent vector from the context,
// score the candidate against it, and gate the result.
func (s *Stream) Step(ctx context.Context, contextTexts []string, cand Candidate) (StepResult, error) {
	s.stepNum++
	stepID := fmt.Sprintf("step-%d", s.stepNum)

	intentVec, err := s.builder.Build(ctx, contextTexts)
	if err != nil {
		return StepResult{}, fmt.Errorf("build intent: %w", err)
	}

	breakdown, err := s.scorer.Score(resonance.ScoreInput{
		Confidence:     cand.Logit,
		InputIsLogit:   true,
		Candidate:      cand.Embedding,
		Intent:         intentVec,
		Alpha:          s.cfg.Alpha,
		UseKairosAlpha: s.cfg.UseKairosAlpha,
		Entropy:        cand.Entropy,
	})
	if err != nil {
		return StepResult{}, fmt.Errorf("score candidate: %w", err)
	}

	normLogit := vecmath.Sigmoid(cand.Logit)
	decision := s.gate.Decide(breakdown.Resonance, normLogit, cand.Entropy)

	log.Printf("[PIPE] stream=%s %s cand=%q res=%.4f norm_logit=%.4f open=%v emit=%v",
		s.ID, stepID, cand.Text, breakdown.Resonance, normLogit, decision.Open, decision.Emit)

	if s.declog != nil {
		err := s.declog.Log(logging.DecisionEntry{
			StreamID:     s.ID,
			StepID:       stepID,
			Candidate:    cand.Text,
			Breakdown:    breakdown,
			NormLogit:    normLogit,
			Entropy:      cand.Entropy,
			ResonanceMin: decision.ResonanceMin,
			NormLogitMax: decision.NormLogitMax,
			Open:         decision.Open,
			Emit:         decision.Emit,
			Reason:       decision.Reason,
		})
		if err != nil {
			log.Printf("[PIPE] decision log error: %v", err)
		}
	}

	return StepResult{
		StepID:    stepID,
		Candidate: cand.Text,
		Breakdown: breakdown,
		NormLogit: normLogit,
		Decision:  decision,
	}, nil
}

// #endregion stream

// #region ranking

// Ranked is one candidate with its score, for diagnostics and demos.
type Ranked struct {
	Candidate string
	NormLogit float32
	Breakdown resonance.ScoreBreakdown
}

// RankCandidates scores a candidate set against a fixed intent vector and
// sorts by resonance, highest first. No gate state is touched.
func RankCandidates(scorer *resonance.Scorer, intentVec []float32, cands []Candidate, cfg Config) ([]Ranked, error) {
	out := make([]Ranked, 0, len(cands))
	for _, c := range cands {
		breakdown, err := scorer.Score(resonance.ScoreInput{
			Confidence:     c.Logit,
			InputIsLogit:   true,
			Candidate:      c.Embedding,
			Intent:         intentVec,
			Alpha:          cfg.Alpha,
			UseKairosAlpha: cfg.UseKairosAlpha,
			Entropy:        c.Entropy,
		})
		if err != nil {
			return nil, fmt.Errorf("score %q: %w", c.Text, err)
		}
		out = append(out, Ranked{
			Candidate: c.Text,
			NormLogit: vecmath.Sigmoid(c.Logit),
			Breakdown: breakdown,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Breakdown.Resonance > out[j].Breakdown.Resonance
	})
	return out, nil
}

// #endregion ranking
