package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirenlab/siren/go-controller/internal/codec"
	"github.com/sirenlab/siren/go-controller/internal/config"
	"github.com/sirenlab/siren/go-controller/internal/intent"
	"github.com/sirenlab/siren/go-controller/internal/kairos"
	"github.com/sirenlab/siren/go-controller/internal/logging"
	"github.com/sirenlab/siren/go-controller/internal/pipeline"
	"github.com/sirenlab/siren/go-controller/internal/resonance"
)

// #region wire-types

// stepRequest is one decoding step supplied by the host loop, one JSON
// object per stdin line.
type stepRequest struct {
	Context   []string `json:"context"`
	Mask      []bool   `json:"mask,omitempty"`
	Candidate string   `json:"candidate"`
	Logit     float32  `json:"logit"`
	Entropy   *float32 `json:"entropy,omitempty"`
}

// stepResponse is the decision reported back, one JSON object per line.
type stepResponse struct {
	StepID    string                   `json:"step_id"`
	Candidate string                   `json:"candidate"`
	Breakdown resonance.ScoreBreakdown `json:"breakdown"`
	NormLogit float32                  `json:"norm_logit"`
	Open      bool                     `json:"open"`
	Emit      bool                     `json:"emit"`
	Reason    string                   `json:"reason"`
}

// #endregion wire-types

// #region main

func main() {
	configPath := flag.String("config", envOr("SIREN_CONFIG", ""), "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	gate, err := kairos.NewGate(cfg.ToGateConfig())
	if err != nil {
		log.Fatalf("gate config: %v", err)
	}

	embedder := codec.NewEmbedClient(cfg.ToCodecConfig())
	builder, err := cfg.NewBuilder(embedder)
	if err != nil {
		log.Fatalf("intent builder: %v", err)
	}
	scorer := resonance.NewScorer(cfg.ToAlphaConfig())

	declog, err := logging.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open decision log: %v", err)
	}
	defer declog.Close()

	stream := pipeline.NewStream(builder, scorer, gate, cfg.ToPipelineConfig(), declog)
	log.Printf("[SIREN] stream=%s db=%s embed=%s strategy=%s",
		stream.ID, cfg.DBPath, cfg.Codec.Endpoint, cfg.Intent.Strategy)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	out := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req stepRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("[SIREN] bad input line: %v", err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		resp, err := runStep(ctx, stream, builder, embedder, req)
		cancel()
		if err != nil {
			log.Printf("[SIREN] step error: %v", err)
			continue
		}
		if err := out.Encode(resp); err != nil {
			log.Printf("[SIREN] output error: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("read stdin: %v", err)
	}
}

// #endregion main

// #region step

// runStep embeds the candidate and drives one pipeline step.
func runStep(ctx context.Context, stream *pipeline.Stream, builder intent.Builder, embedder intent.Embedder, req stepRequest) (stepResponse, error) {
	if sup, ok := builder.(*intent.SuppressionBuilder); ok {
		sup.Mask = req.Mask
	}

	embs, err := embedder.Embed(ctx, []string{req.Candidate})
	if err != nil {
		return stepResponse{}, fmt.Errorf("embed candidate: %w", err)
	}

	res, err := stream.Step(ctx, req.Context, pipeline.Candidate{
		Text:      req.Candidate,
		Embedding: embs[0],
		Logit:     req.Logit,
		Entropy:   req.Entropy,
	})
	if err != nil {
		return stepResponse{}, err
	}

	return stepResponse{
		StepID:    res.StepID,
		Candidate: res.Candidate,
		Breakdown: res.Breakdown,
		NormLogit: res.NormLogit,
		Open:      res.Decision.Open,
		Emit:      res.Decision.Emit,
		Reason:    res.Decision.Reason,
	}, nil
}

// #endregion step

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
