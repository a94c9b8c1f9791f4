package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirenlab/siren/go-controller/internal/intent"
	"github.com/sirenlab/siren/go-controller/internal/kairos"
	"github.com/sirenlab/siren/go-controller/internal/logging"
	"github.com/sirenlab/siren/go-controller/internal/resonance"
)

func f32(v float32) *float32 { return &v }

// axisEmbedder maps known words to fixed axes.
type axisEmbedder struct{}

func (axisEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	axes := map[string][]float32{
		"justice": {1, 0, 0},
		"maiden":  {0.9, 0.1, 0},
		"noise":   {0, 0, 1},
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := axes[t]
		if !ok {
			v = []float32{0.5, 0.5, 0}
		}
		out[i] = v
	}
	return out, nil
}

func newTestStream(t *testing.T, declog *logging.DecisionLog) (*Stream, *kairos.ManualClock) {
	t.Helper()
	clock := kairos.NewManualClock(time.Unix(1_700_000_000, 0))
	entropyMin := float32(1.5)
	gate, err := kairos.NewGateWithClock(kairos.GateConfig{
		ResonanceMin:    0.60,
		NormLogitMax:    0.40,
		EntropyMin:      &entropyMin,
		HysteresisDelta: 0.05,
		Cooldown:        500 * time.Millisecond,
	}, clock)
	if err != nil {
		t.Fatalf("gate: %v", err)
	}
	builder := intent.NewMeanBuilder(axisEmbedder{})
	scorer := resonance.NewScorer(resonance.DefaultAlphaConfig())
	cfg := Config{Alpha: 0.3, UseKairosAlpha: true}
	return NewStream(builder, scorer, gate, cfg, declog), clock
}

func TestStepEmitsOnAlignedLowConfidenceCandidate(t *testing.T) {
	s, _ := newTestStream(t, nil)

	// Candidate aligned with the intent axis, low decoder logit, strained
	// decoder: the canonical kairos moment.
	res, err := s.Step(context.Background(), []string{"justice", "maiden"}, Candidate{
		Text:      "justice",
		Embedding: []float32{1, 0, 0},
		Logit:     -1.5,
		Entropy:   f32(1.9),
	})
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if !res.Decision.Emit {
		t.Fatalf("expected emit, got %s", res.Decision.Reason)
	}
	if res.Breakdown.SemanticFidelity < 0.95 {
		t.Fatalf("expected high semantic fidelity, got %f", res.Breakdown.SemanticFidelity)
	}
}

func TestStepSuppressesMisalignedCandidate(t *testing.T) {
	s, _ := newTestStream(t, nil)

	res, err := s.Step(context.Background(), []string{"justice", "maiden"}, Candidate{
		Text:      "noise",
		Embedding: []float32{0, 0, 1},
		Logit:     -1.5,
		Entropy:   f32(1.9),
	})
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if res.Decision.Emit {
		t.Fatal("misaligned candidate should not emit")
	}
}

func TestStepIDsIncrement(t *testing.T) {
	s, clock := newTestStream(t, nil)
	for i, want := range []string{"step-1", "step-2"} {
		res, err := s.Step(context.Background(), []string{"justice"}, Candidate{
			Text:      "justice",
			Embedding: []float32{1, 0, 0},
			Logit:     -1.5,
			Entropy:   f32(1.9),
		})
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if res.StepID != want {
			t.Fatalf("expected %s, got %s", want, res.StepID)
		}
		clock.Advance(time.Second)
	}
}

func TestStreamsHaveDistinctIDs(t *testing.T) {
	a, _ := newTestStream(t, nil)
	b, _ := newTestStream(t, nil)
	if a.ID == b.ID {
		t.Fatal("streams must have independent IDs")
	}
}

func TestStepWritesDecisionLog(t *testing.T) {
	declog, err := logging.Open(filepath.Join(t.TempDir(), "decisions.db"))
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer declog.Close()

	s, _ := newTestStream(t, declog)
	if _, err := s.Step(context.Background(), []string{"justice"}, Candidate{
		Text:      "justice",
		Embedding: []float32{1, 0, 0},
		Logit:     -1.5,
		Entropy:   f32(1.9),
	}); err != nil {
		t.Fatalf("step: %v", err)
	}

	entries, err := declog.Recent(5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 logged decision, got %d", len(entries))
	}
	if entries[0].StreamID != s.ID || entries[0].StepID != "step-1" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

func TestStepEmptyContextFails(t *testing.T) {
	s, _ := newTestStream(t, nil)
	_, err := s.Step(context.Background(), nil, Candidate{
		Text:      "justice",
		Embedding: []float32{1, 0, 0},
	})
	if err == nil {
		t.Fatal("expected error for empty context")
	}
}

func TestRankCandidatesOrdersByResonance(t *testing.T) {
	scorer := resonance.NewScorer(resonance.DefaultAlphaConfig())
	intentVec := []float32{1, 0, 0}

	ranked, err := RankCandidates(scorer, intentVec, []Candidate{
		{Text: "noise", Embedding: []float32{0, 0, 1}, Logit: -1.0},
		{Text: "justice", Embedding: []float32{1, 0, 0}, Logit: -1.0},
		{Text: "maiden", Embedding: []float32{0.9, 0.1, 0}, Logit: -1.0},
	}, Config{Alpha: 0.2})
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if ranked[0].Candidate != "justice" {
		t.Fatalf("expected justice first, got %s", ranked[0].Candidate)
	}
	if ranked[len(ranked)-1].Candidate != "noise" {
		t.Fatalf("expected noise last, got %s", ranked[len(ranked)-1].Candidate)
	}
}

func TestRankCandidatesDimensionError(t *testing.T) {
	scorer := resonance.NewScorer(resonance.DefaultAlphaConfig())
	_, err := RankCandidates(scorer, []float32{1, 0}, []Candidate{
		{Text: "bad", Embedding: []float32{1, 0, 0}},
	}, DefaultConfig())
	if err == nil {
		t.Fatal("expected dimension error")
	}
}
