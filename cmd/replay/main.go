package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirenlab/siren/go-controller/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to replay fixture JSON")
	verbose := flag.Bool("v", false, "print every step, not just emissions")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [-v]")
		os.Exit(2)
	}

	fixture, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if fixture.Description != "" {
		fmt.Printf("Fixture: %s\n", fixture.Description)
	}

	results, summary, err := replay.Replay(fixture.Gate.ToGateConfig(), fixture.Interactions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay error: %v\n", err)
		os.Exit(1)
	}

	for _, r := range results {
		if !*verbose && !r.Decision.Emit {
			continue
		}
		printStep(r)
	}
	fmt.Printf("\n%d steps: %d open, %d emitted\n", summary.Steps, summary.Opens, summary.Emits)

	mismatches := replay.Verify(results, fixture.Expected)
	if len(mismatches) == 0 {
		fmt.Println("verify: OK")
		return
	}
	for _, m := range mismatches {
		fmt.Fprintf(os.Stderr, "verify: %s emit=%v, fixture expected %v\n", m.StepID, m.Got, m.Want)
	}
	os.Exit(1)
}

// #endregion main

// #region print

func printStep(r replay.StepResult) {
	marker := " "
	if r.Decision.Emit {
		marker = "*"
	}
	fmt.Printf("%s %-8s open=%-5v emit=%-5v %s\n",
		marker, r.StepID, r.Decision.Open, r.Decision.Emit, r.Decision.Reason)
}

// #endregion print
