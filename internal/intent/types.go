package intent

import (
	"context"
	"errors"
)

// #region embedder-interface

// Embedder abstracts the external embedding service so builders can be
// tested without a live backend. Implementations must return one vector per
// input text, in input order, all of one fixed dimension.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// #endregion embedder-interface

// #region errors

// ErrEmptyInput is returned when a builder is given zero context items
// or zero probe terms.
var ErrEmptyInput = errors.New("empty input: no texts to build intent from")

// ErrMaskLength is returned when a redaction mask is present but its length
// does not match the context length.
var ErrMaskLength = errors.New("redaction mask length does not match context length")

// #endregion errors

// #region builder-interface

// Builder derives a single intent vector from a sequence of context texts.
type Builder interface {
	Build(ctx context.Context, texts []string) ([]float32, error)
}

// #endregion builder-interface
