// Package config holds the externally tunable surface of the inference
// engine: thresholds, tie-break priority, per-rule weights and enablement,
// plus logging and store settings. Invalid configuration fails at load time,
// never at inference time.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalid is wrapped by all configuration validation errors.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete intentlens configuration.
type Config struct {
	Version    string                    `yaml:"version"`
	Settings   Settings                  `yaml:"settings"`
	Thresholds Thresholds                `yaml:"thresholds"`
	Priority   []string                  `yaml:"priority,omitempty"`
	Rules      map[string]RuleSettings   `yaml:"rules,omitempty"`
	Extractors map[string]ExtractorFlags `yaml:"extractors,omitempty"`
	Store      StoreSettings             `yaml:"store"`
}

// Settings contains global settings.
type Settings struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file,omitempty"`
}

// Thresholds holds the numeric decision thresholds of the state machine and
// confidence calculator.
type Thresholds struct {
	// HysteresisMargin is the confidence advantage a challenger state needs
	// over the incumbent to change the trajectory.
	HysteresisMargin float64 `yaml:"hysteresis_margin"`
	// FallbackConfidence is assigned to the default browsing state when no
	// rule produces a hypothesis.
	FallbackConfidence float64 `yaml:"fallback_confidence"`
	// HighSalience marks purchase_ready / abandonment_risk sticky once
	// reached at or above this confidence.
	HighSalience float64 `yaml:"high_salience"`
}

// RuleSettings tunes one rule by ID.
type RuleSettings struct {
	Enabled *bool   `yaml:"enabled,omitempty"`
	Weight  float64 `yaml:"weight,omitempty"`
}

// ExtractorFlags tunes one extractor by name.
type ExtractorFlags struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// StoreSettings configures the optional SQLite session store used by the CLI.
type StoreSettings struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path,omitempty"`
	SessionTTL string `yaml:"session_ttl,omitempty"`
}

// DefaultPriority is the documented tie-break order, most actionable first.
// States not listed rank after all listed ones, alphabetically, so the
// outcome never depends on rule registration order.
var DefaultPriority = []string{
	"purchase_ready",
	"abandonment_risk",
	"price_sensitive",
	"trust_seeking",
	"evaluating_options",
	"hesitating",
	"browsing",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Settings: Settings{
			LogLevel: "info",
		},
		Thresholds: Thresholds{
			HysteresisMargin:   0.10,
			FallbackConfidence: 0.30,
			HighSalience:       0.75,
		},
		Priority: append([]string(nil), DefaultPriority...),
	}
}

// Validate checks the configuration. All errors wrap ErrInvalid so callers
// can fail fast at construction time.
func (c *Config) Validate() error {
	if err := unit("thresholds.hysteresis_margin", c.Thresholds.HysteresisMargin); err != nil {
		return err
	}
	if err := unit("thresholds.fallback_confidence", c.Thresholds.FallbackConfidence); err != nil {
		return err
	}
	if err := unit("thresholds.high_salience", c.Thresholds.HighSalience); err != nil {
		return err
	}
	for i, state := range c.Priority {
		if state == "" {
			return fmt.Errorf("%w: priority[%d] is empty", ErrInvalid, i)
		}
	}
	for id, rs := range c.Rules {
		if rs.Weight < 0 {
			return fmt.Errorf("%w: rules.%s.weight must be >= 0, got %v", ErrInvalid, id, rs.Weight)
		}
	}
	if ttl := c.Store.SessionTTL; ttl != "" {
		if _, err := time.ParseDuration(ttl); err != nil {
			return fmt.Errorf("%w: store.session_ttl: %v", ErrInvalid, err)
		}
	}
	return nil
}

func unit(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%w: %s must be in [0,1], got %v", ErrInvalid, name, v)
	}
	return nil
}

// RuleEnabled reports whether a rule is enabled (default true).
func (c *Config) RuleEnabled(id string) bool {
	if rs, ok := c.Rules[id]; ok && rs.Enabled != nil {
		return *rs.Enabled
	}
	return true
}

// RuleWeight returns a rule's configured weight (default 1.0).
func (c *Config) RuleWeight(id string) float64 {
	if rs, ok := c.Rules[id]; ok && rs.Weight > 0 {
		return rs.Weight
	}
	return 1.0
}

// ExtractorEnabled reports whether an extractor is enabled (default true).
func (c *Config) ExtractorEnabled(name string) bool {
	if xf, ok := c.Extractors[name]; ok && xf.Enabled != nil {
		return *xf.Enabled
	}
	return true
}

// SessionTTL returns the parsed store TTL, or def when unset.
func (c *Config) SessionTTL(def time.Duration) time.Duration {
	if c.Store.SessionTTL == "" {
		return def
	}
	d, err := time.ParseDuration(c.Store.SessionTTL)
	if err != nil {
		return def
	}
	return d
}
