package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sirenlab/siren/go-controller/internal/logging"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the decision log database")
	last := flag.Int("last", 20, "show N most recent decisions")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	emitOnly := flag.Bool("emits", false, "show only emitted decisions")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/siren_decisions.db [--last N] [--emits] [--json]")
		os.Exit(2)
	}

	declog, err := logging.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer declog.Close()

	entries, err := declog.Recent(*last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *emitOnly {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Emit {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if *jsonOut {
		printJSON(entries)
		return
	}
	printTable(entries)
}

// #endregion main

// #region output

type jsonRow struct {
	StreamID     string   `json:"stream_id"`
	StepID       string   `json:"step_id"`
	Candidate    string   `json:"candidate,omitempty"`
	Resonance    float32  `json:"resonance"`
	NormLogit    float32  `json:"norm_logit"`
	Entropy      *float32 `json:"entropy,omitempty"`
	ResonanceMin float32  `json:"resonance_min"`
	NormLogitMax float32  `json:"norm_logit_max"`
	Open         bool     `json:"open"`
	Emit         bool     `json:"emit"`
	Reason       string   `json:"reason,omitempty"`
	CreatedAt    string   `json:"created_at"`
}

func printJSON(entries []logging.DecisionEntry) {
	rows := make([]jsonRow, len(entries))
	for i, e := range entries {
		rows[i] = jsonRow{
			StreamID:     e.StreamID,
			StepID:       e.StepID,
			Candidate:    e.Candidate,
			Resonance:    e.Breakdown.Resonance,
			NormLogit:    e.NormLogit,
			Entropy:      e.Entropy,
			ResonanceMin: e.ResonanceMin,
			NormLogitMax: e.NormLogitMax,
			Open:         e.Open,
			Emit:         e.Emit,
			Reason:       e.Reason,
			CreatedAt:    e.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(rows)
}

func printTable(entries []logging.DecisionEntry) {
	if len(entries) == 0 {
		fmt.Println("no decisions logged")
		return
	}
	fmt.Printf("%-8s  %-12s  %-9s  %-10s  %-5s  %-5s  %s\n",
		"STEP", "CANDIDATE", "RESONANCE", "NORM_LOGIT", "OPEN", "EMIT", "REASON")
	for _, e := range entries {
		cand := e.Candidate
		if len(cand) > 12 {
			cand = cand[:11] + "…"
		}
		fmt.Printf("%-8s  %-12s  %-9.4f  %-10.4f  %-5v  %-5v  %s\n",
			e.StepID, cand, e.Breakdown.Resonance, e.NormLogit, e.Open, e.Emit, e.Reason)
	}
}

// #endregion output
