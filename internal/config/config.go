// Package config loads command-level configuration from YAML with
// environment overrides. Library packages keep their own DefaultXxxConfig
// factories; this package only aggregates them for the binaries.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sirenlab/siren/go-controller/internal/codec"
	"github.com/sirenlab/siren/go-controller/internal/intent"
	"github.com/sirenlab/siren/go-controller/internal/kairos"
	"github.com/sirenlab/siren/go-controller/internal/pipeline"
	"github.com/sirenlab/siren/go-controller/internal/resonance"
)

// #region types

// Config is the full configuration surface for the siren binaries.
type Config struct {
	DBPath string       `yaml:"db_path"`
	Codec  CodecConfig  `yaml:"codec"`
	Gate   GateConfig   `yaml:"gate"`
	Scorer ScorerConfig `yaml:"scorer"`
	Intent IntentConfig `yaml:"intent"`
}

// CodecConfig configures the embedding service client.
type CodecConfig struct {
	Endpoint       string  `yaml:"endpoint"`
	Model          string  `yaml:"model"`
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
}

// GateConfig mirrors kairos.GateConfig in YAML-friendly form.
type GateConfig struct {
	ResonanceMin    float32  `yaml:"resonance_min"`
	NormLogitMax    float32  `yaml:"norm_logit_max"`
	EntropyMin      *float32 `yaml:"entropy_min,omitempty"`
	HysteresisDelta float32  `yaml:"hysteresis_delta"`
	CooldownSeconds float64  `yaml:"cooldown_seconds"`
}

// ScorerConfig configures resonance scoring.
type ScorerConfig struct {
	Alpha          float32 `yaml:"alpha"`
	UseKairosAlpha bool    `yaml:"use_kairos_alpha"`
	OpenThreshold  float32 `yaml:"open_threshold"`
	MaxShift       float32 `yaml:"max_shift"`
	Slope          float32 `yaml:"slope"`
}

// IntentConfig selects and tunes the intent-vector strategy.
type IntentConfig struct {
	Strategy   string   `yaml:"strategy"` // mean | sif | probe | suppression
	Normalize  bool     `yaml:"normalize"`
	Boost      float32  `yaml:"boost"`
	Smoothing  float32  `yaml:"smoothing"`
	ProbeTerms []string `yaml:"probe_terms"`
}

// #endregion types

// #region defaults

// Default returns a fresh config with the standard values.
func Default() Config {
	gd := kairos.DefaultGateConfig()
	ad := resonance.DefaultAlphaConfig()
	cd := codec.DefaultConfig()
	pd := pipeline.DefaultConfig()
	return Config{
		DBPath: "siren_decisions.db",
		Codec: CodecConfig{
			Endpoint:       cd.Endpoint,
			Model:          cd.Model,
			TimeoutSeconds: cd.Timeout.Seconds(),
		},
		Gate: GateConfig{
			ResonanceMin:    gd.ResonanceMin,
			NormLogitMax:    gd.NormLogitMax,
			EntropyMin:      gd.EntropyMin,
			HysteresisDelta: gd.HysteresisDelta,
			CooldownSeconds: gd.Cooldown.Seconds(),
		},
		Scorer: ScorerConfig{
			Alpha:          pd.Alpha,
			UseKairosAlpha: pd.UseKairosAlpha,
			OpenThreshold:  ad.OpenThreshold,
			MaxShift:       ad.MaxShift,
			Slope:          ad.Slope,
		},
		Intent: IntentConfig{
			Strategy:  "mean",
			Normalize: true,
			Boost:     intent.DefaultBoost,
			Smoothing: intent.DefaultSIFSmoothing,
		},
	}
}

// #endregion defaults

// #region load

// Load reads a YAML file over the defaults, then applies env overrides.
// An empty path skips the file and returns defaults plus env.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv applies SIREN_DB and SIREN_EMBED_ADDR overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("SIREN_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("SIREN_EMBED_ADDR"); v != "" {
		c.Codec.Endpoint = v
	}
}

// #endregion load

// #region converters

// ToGateConfig converts to the domain gate config.
func (c *Config) ToGateConfig() kairos.GateConfig {
	return kairos.GateConfig{
		ResonanceMin:    c.Gate.ResonanceMin,
		NormLogitMax:    c.Gate.NormLogitMax,
		EntropyMin:      c.Gate.EntropyMin,
		HysteresisDelta: c.Gate.HysteresisDelta,
		Cooldown:        time.Duration(c.Gate.CooldownSeconds * float64(time.Second)),
	}
}

// ToAlphaConfig converts to the scorer's entropy coupling config.
func (c *Config) ToAlphaConfig() resonance.AlphaConfig {
	return resonance.AlphaConfig{
		OpenThreshold: c.Scorer.OpenThreshold,
		MaxShift:      c.Scorer.MaxShift,
		Slope:         c.Scorer.Slope,
	}
}

// ToCodecConfig converts to the embedding client config.
func (c *Config) ToCodecConfig() codec.Config {
	return codec.Config{
		Endpoint: c.Codec.Endpoint,
		Model:    c.Codec.Model,
		Timeout:  time.Duration(c.Codec.TimeoutSeconds * float64(time.Second)),
	}
}

// ToPipelineConfig converts to the per-stream scoring config.
func (c *Config) ToPipelineConfig() pipeline.Config {
	return pipeline.Config{
		Alpha:          c.Scorer.Alpha,
		UseKairosAlpha: c.Scorer.UseKairosAlpha,
	}
}

// NewBuilder constructs the configured intent-vector strategy.
func (c *Config) NewBuilder(e intent.Embedder) (intent.Builder, error) {
	switch c.Intent.Strategy {
	case "", "mean":
		b := intent.NewMeanBuilder(e)
		b.Normalize = c.Intent.Normalize
		return b, nil
	case "sif":
		b := intent.NewSIFBuilder(e, nil)
		b.Smoothing = c.Intent.Smoothing
		b.Normalize = c.Intent.Normalize
		return b, nil
	case "probe":
		if len(c.Intent.ProbeTerms) == 0 {
			return nil, fmt.Errorf("probe strategy requires probe_terms")
		}
		b := intent.NewProbeBuilder(e, c.Intent.ProbeTerms)
		b.Normalize = c.Intent.Normalize
		return b, nil
	case "suppression":
		b := intent.NewSuppressionBuilder(e)
		b.Boost = c.Intent.Boost
		b.Normalize = c.Intent.Normalize
		return b, nil
	default:
		return nil, fmt.Errorf("unknown intent strategy %q", c.Intent.Strategy)
	}
}

// #endregion converters
