// Package intent builds latent "intent vectors" from context or probe terms.
// An intent vector is the direction candidate tokens are scored against
// (see internal/resonance).
package intent

import (
	"context"
	"fmt"

	"github.com/sirenlab/siren/go-controller/internal/vecmath"
)

// #region defaults

const (
	// DefaultSIFSmoothing is the SIF smoothing constant a in w = a/(a+p).
	DefaultSIFSmoothing float32 = 1e-3

	// DefaultBoost is the weight multiplier for neighbors of redacted items.
	DefaultBoost float32 = 1.5

	// weightFloor guards the weighted-average divisor.
	weightFloor = 1e-9
)

// #endregion defaults

// #region mean

// MeanBuilder mean-pools every context item into one vector.
type MeanBuilder struct {
	Embedder  Embedder
	Normalize bool
}

// NewMeanBuilder creates a mean-pooling builder with L2 normalization on.
func NewMeanBuilder(e Embedder) *MeanBuilder {
	return &MeanBuilder{Embedder: e, Normalize: true}
}

// Build embeds the texts and averages them componentwise.
func (b *MeanBuilder) Build(ctx context.Context, texts []string) ([]float32, error) {
	embs, err := embedAll(ctx, b.Embedder, texts)
	if err != nil {
		return nil, err
	}
	return pool(embs, nil, b.Normalize)
}

// #endregion mean

// #region sif

// SIFBuilder weights each item by a/(a+p), where p approximates the item's
// corpus frequency as 1/IDF. With a nil IDF map every weight is 1, which
// degenerates to mean pooling.
type SIFBuilder struct {
	Embedder  Embedder
	IDF       map[string]float32
	Smoothing float32
	Normalize bool
}

// NewSIFBuilder creates a SIF-weighted builder with default smoothing.
func NewSIFBuilder(e Embedder, idf map[string]float32) *SIFBuilder {
	return &SIFBuilder{
		Embedder:  e,
		IDF:       idf,
		Smoothing: DefaultSIFSmoothing,
		Normalize: true,
	}
}

// Build embeds the texts and applies the SIF-weighted average.
func (b *SIFBuilder) Build(ctx context.Context, texts []string) ([]float32, error) {
	embs, err := embedAll(ctx, b.Embedder, texts)
	if err != nil {
		return nil, err
	}

	var weights []float32
	if b.IDF != nil {
		a := b.Smoothing
		if a <= 0 {
			a = DefaultSIFSmoothing
		}
		weights = make([]float32, len(texts))
		for i, t := range texts {
			idf, ok := b.IDF[t]
			if !ok {
				idf = 1.0
			}
			if idf < 1e-6 {
				idf = 1e-6
			}
			p := 1.0 / idf
			weights[i] = a / (a + p)
		}
	}

	return pool(embs, weights, b.Normalize)
}

// #endregion sif

// #region probe

// ProbeBuilder ignores conversational context entirely and mean-pools an
// explicit set of probe terms. Used when the latent axis of interest is
// already known.
type ProbeBuilder struct {
	Embedder  Embedder
	Terms     []string
	Normalize bool
}

// NewProbeBuilder creates a probe builder for the given terms.
func NewProbeBuilder(e Embedder, terms []string) *ProbeBuilder {
	return &ProbeBuilder{Embedder: e, Terms: terms, Normalize: true}
}

// Build embeds the probe terms and averages them. The texts argument is
// ignored; the probe terms define the intent.
func (b *ProbeBuilder) Build(ctx context.Context, _ []string) ([]float32, error) {
	embs, err := embedAll(ctx, b.Embedder, b.Terms)
	if err != nil {
		return nil, err
	}
	return pool(embs, nil, b.Normalize)
}

// #endregion probe

// #region suppression

// SuppressionBuilder up-weights the immediate neighbors of redacted context
// items to approximate a suppressed concept from its surroundings. Redacted
// items themselves keep unit weight. Mask is set per build; nil means no
// redaction.
type SuppressionBuilder struct {
	Embedder  Embedder
	Mask      []bool
	Boost     float32
	Normalize bool
}

// NewSuppressionBuilder creates a suppression-aware builder with the
// default neighbor boost.
func NewSuppressionBuilder(e Embedder) *SuppressionBuilder {
	return &SuppressionBuilder{Embedder: e, Boost: DefaultBoost, Normalize: true}
}

// Build embeds the texts and applies neighbor-boosted weighted averaging.
// A non-nil mask whose length disagrees with the context is rejected.
func (b *SuppressionBuilder) Build(ctx context.Context, texts []string) ([]float32, error) {
	if b.Mask != nil && len(b.Mask) != len(texts) {
		return nil, fmt.Errorf("%w: mask %d, context %d", ErrMaskLength, len(b.Mask), len(texts))
	}

	embs, err := embedAll(ctx, b.Embedder, texts)
	if err != nil {
		return nil, err
	}

	var weights []float32
	if b.Mask != nil {
		boost := b.Boost
		if boost <= 0 {
			boost = DefaultBoost
		}
		weights = make([]float32, len(texts))
		for i := range weights {
			weights[i] = 1.0
		}
		for i, redacted := range b.Mask {
			if !redacted {
				continue
			}
			if i-1 >= 0 {
				weights[i-1] *= boost
			}
			if i+1 < len(weights) {
				weights[i+1] *= boost
			}
		}
	}

	return pool(embs, weights, b.Normalize)
}

// #endregion suppression

// #region helpers

// embedAll validates the input, runs the embedder, and checks the returned
// batch for count and dimension consistency.
func embedAll(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	embs, err := e.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(embs) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(embs), len(texts))
	}
	dim := len(embs[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: embedder returned empty vector", vecmath.ErrEmptyVector)
	}
	for i, v := range embs {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, expected %d",
				vecmath.ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return embs, nil
}

// pool computes the weighted average of a validated batch. A nil weights
// slice means uniform weights.
func pool(embs [][]float32, weights []float32, normalize bool) ([]float32, error) {
	dim := len(embs[0])
	out := make([]float32, dim)

	var wsum float64
	for i, v := range embs {
		w := 1.0
		if weights != nil {
			w = float64(weights[i])
		}
		wsum += w
		for j, x := range v {
			out[j] += float32(w * float64(x))
		}
	}
	if wsum < weightFloor {
		wsum = weightFloor
	}
	for j := range out {
		out[j] = float32(float64(out[j]) / wsum)
	}

	if normalize {
		out = vecmath.Normalize(out)
	}
	return out, nil
}

// #endregion helpers
