// Package kairos decides when a decoding step is a "moment" meriting
// symbolic emission. A two-state gate with hysteresis keeps the open/closed
// decision from flickering at threshold boundaries; a cooldown keeps
// emissions from bursting.
package kairos

import (
	"fmt"
	"time"
)

// #region gate

// Gate is the per-stream emission state machine. It holds the only
// long-lived mutable state in the system: the sticky open flag and the
// last emission time. One Gate per decoding stream; calls must arrive in
// temporal order and there is no internal locking.
type Gate struct {
	cfg      GateConfig
	clock    Clock
	open     bool
	lastEmit time.Time // zero means never emitted
}

// NewGate creates a gate on the system clock.
func NewGate(cfg GateConfig) (*Gate, error) {
	return NewGateWithClock(cfg, systemClock{})
}

// NewGateWithClock creates a gate with an injected clock.
func NewGateWithClock(cfg GateConfig, clock Clock) (*Gate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("gate config: %w", err)
	}
	return &Gate{cfg: cfg, clock: clock}, nil
}

// Open reports the current sticky state.
func (g *Gate) Open() bool { return g.open }

// #endregion gate

// #region decide

// Decide evaluates one step. The sticky state is updated on every call;
// the cooldown only suppresses the reported emission, never the state
// transition. A nil entropy while EntropyMin is configured fails the
// condition for this call without error.
func (g *Gate) Decide(resonance, normLogit float32, entropy *float32) Decision {
	// Hysteresis: while open, loosen the thresholds so the gate tends to
	// stay open; while closed, tighten them so it resists newly opening.
	// Computed locally; the config is never mutated.
	var resMin, logMax float32
	if g.open {
		resMin = clamp01(g.cfg.ResonanceMin - g.cfg.HysteresisDelta)
		logMax = clamp01(g.cfg.NormLogitMax + g.cfg.HysteresisDelta)
	} else {
		resMin = clamp01(g.cfg.ResonanceMin + g.cfg.HysteresisDelta)
		logMax = clamp01(g.cfg.NormLogitMax - g.cfg.HysteresisDelta)
	}

	ok, reason := coreCondition(resonance, normLogit, entropy, resMin, logMax, g.cfg.EntropyMin)
	g.open = ok

	d := Decision{
		Open:         ok,
		ResonanceMin: resMin,
		NormLogitMax: logMax,
		Reason:       reason,
	}
	if !ok {
		return d
	}

	now := g.clock.Now()
	if !g.lastEmit.IsZero() {
		elapsed := now.Sub(g.lastEmit)
		if elapsed < g.cfg.Cooldown {
			d.Reason = fmt.Sprintf("open: cooldown, %s remaining", g.cfg.Cooldown-elapsed)
			return d
		}
	}

	g.lastEmit = now
	d.Emit = true
	d.Reason = "emit: kairos moment"
	return d
}

// coreCondition checks the open condition against the given thresholds and
// reports the first failing check.
func coreCondition(resonance, normLogit float32, entropy *float32, resMin, logMax float32, entropyMin *float32) (bool, string) {
	if resonance < resMin {
		return false, fmt.Sprintf("resonance %.4f below min %.4f", resonance, resMin)
	}
	if normLogit > logMax {
		return false, fmt.Sprintf("norm_logit %.4f above max %.4f", normLogit, logMax)
	}
	if entropyMin != nil {
		if entropy == nil {
			return false, fmt.Sprintf("entropy absent, min %.4f required", *entropyMin)
		}
		if *entropy < *entropyMin {
			return false, fmt.Sprintf("entropy %.4f below min %.4f", *entropy, *entropyMin)
		}
	}
	return true, "open"
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// #endregion decide
