package kairos

import (
	"fmt"
	"time"
)

// #region gate-config

// GateConfig holds the emission thresholds. Emit only when resonance is
// high and normalized logit is low, optionally requiring decoder entropy
// above a floor.
type GateConfig struct {
	ResonanceMin    float32       // minimum resonance in [0,1]
	NormLogitMax    float32       // maximum normalized logit in [0,1]
	EntropyMin      *float32      // entropy floor; nil disables the check
	HysteresisDelta float32       // threshold slack applied per sticky state
	Cooldown        time.Duration // minimum interval between emissions
}

// DefaultGateConfig returns a fresh config value with the standard
// thresholds. Each call returns an independent value; gates never share
// configuration.
func DefaultGateConfig() GateConfig {
	entropyMin := float32(1.5)
	return GateConfig{
		ResonanceMin:    0.70,
		NormLogitMax:    0.30,
		EntropyMin:      &entropyMin,
		HysteresisDelta: 0.05,
		Cooldown:        time.Second,
	}
}

// Validate rejects malformed thresholds once, at construction time.
func (c GateConfig) Validate() error {
	if c.ResonanceMin < 0 || c.ResonanceMin > 1 {
		return fmt.Errorf("resonance_min %.4f outside [0,1]", c.ResonanceMin)
	}
	if c.NormLogitMax < 0 || c.NormLogitMax > 1 {
		return fmt.Errorf("norm_logit_max %.4f outside [0,1]", c.NormLogitMax)
	}
	if c.HysteresisDelta < 0 {
		return fmt.Errorf("hysteresis_delta %.4f is negative", c.HysteresisDelta)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("cooldown %s is negative", c.Cooldown)
	}
	return nil
}

// #endregion gate-config

// #region decision

// Decision is the outcome of one gate evaluation.
type Decision struct {
	Emit bool // emission should occur now
	Open bool // sticky state after this evaluation

	// Hysteresis-adjusted thresholds actually applied, for provenance.
	ResonanceMin float32
	NormLogitMax float32

	Reason string
}

// #endregion decision

// #region clock

// Clock supplies the current instant. Injecting it keeps cooldown behavior
// deterministic in tests and replay.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ManualClock is a controllable Clock for tests and replay.
type ManualClock struct {
	now time.Time
}

// NewManualClock creates a manual clock starting at the given instant.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the clock's current instant.
func (c *ManualClock) Now() time.Time { return c.now }

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// Set moves the clock to an absolute instant.
func (c *ManualClock) Set(t time.Time) { c.now = t }

// #endregion clock
