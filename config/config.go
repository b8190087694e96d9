// Package config loads and validates bot configuration from YAML or JSON
// files. Zero-valued numeric fields fall back to component defaults, so a
// minimal config file is valid.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/bounce/backtest"
	"github.com/rustyeddy/bounce/classifier"
	"github.com/rustyeddy/bounce/detector"
	"github.com/rustyeddy/bounce/paper"
	"github.com/rustyeddy/bounce/strategies"
)

// Config is the complete bot configuration.
type Config struct {
	Detector   detector.Config  `json:"detector" yaml:"detector"`
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier"`
	Account    paper.Config     `json:"account" yaml:"account"`
	Backtest   backtest.Config  `json:"backtest" yaml:"backtest"`
	Strategy   StrategyConfig   `json:"strategy" yaml:"strategy"`
}

// ClassifierConfig extends the classifier parameters with an optional RNG
// seed. Seed 0 means wall-clock seeding.
type ClassifierConfig struct {
	classifier.Config `yaml:",inline"`
	Seed              int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// StrategyConfig selects and parameterizes the backtest strategy.
type StrategyConfig struct {
	Name          string  `json:"name" yaml:"name"`
	Symbol        string  `json:"symbol" yaml:"symbol"`
	Quantity      float64 `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	TakeProfitPct float64 `json:"take_profit_pct,omitempty" yaml:"take_profit_pct,omitempty"`
	StopLossPct   float64 `json:"stop_loss_pct,omitempty" yaml:"stop_loss_pct,omitempty"`
	MaxHoldMs     int64   `json:"max_hold_ms,omitempty" yaml:"max_hold_ms,omitempty"`
}

// BounceConfig assembles the strategy-layer config, threading the detector
// section through.
func (c *Config) BounceConfig() strategies.BounceConfig {
	return strategies.BounceConfig{
		Symbol:        c.Strategy.Symbol,
		Quantity:      c.Strategy.Quantity,
		TakeProfitPct: c.Strategy.TakeProfitPct,
		StopLossPct:   c.Strategy.StopLossPct,
		MaxHoldMs:     c.Strategy.MaxHoldMs,
		Detector:      c.Detector,
	}
}

// LoadFromFile loads configuration from a YAML or JSON file. YAML is tried
// first, JSON as a fallback, matching either extension.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration, choosing the format by extension
// (.yaml/.yml for YAML, anything else JSON).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate rejects configurations no component could accept. Zero values are
// fine (they default); out-of-range values are not.
func (c *Config) Validate() error {
	if c.Detector.MinBouncePercent < 0 {
		return fmt.Errorf("detector.min_bounce_percent must not be negative")
	}
	if c.Detector.TimeWindowMs < 0 {
		return fmt.Errorf("detector.time_window_ms must not be negative")
	}
	if c.Detector.VolumeThreshold < 0 {
		return fmt.Errorf("detector.volume_threshold must not be negative")
	}

	if t := c.Classifier.ConfidenceThreshold; t < 0 || t > 1 {
		return fmt.Errorf("classifier.confidence_threshold must be within [0, 1]")
	}
	if c.Classifier.LearningRate < 0 {
		return fmt.Errorf("classifier.learning_rate must not be negative")
	}

	if c.Account.InitialBalance < 0 {
		return fmt.Errorf("account.initial_balance must not be negative")
	}
	if r := c.Account.CommissionRate; r < 0 || r >= 1 {
		return fmt.Errorf("account.commission_rate must be within [0, 1)")
	}
	if r := c.Account.SlippageRate; r < 0 || r >= 1 {
		return fmt.Errorf("account.slippage_rate must be within [0, 1)")
	}

	if c.Backtest.InitialCapital < 0 {
		return fmt.Errorf("backtest.initial_capital must not be negative")
	}
	if r := c.Backtest.CommissionRate; r < 0 || r >= 1 {
		return fmt.Errorf("backtest.commission_rate must be within [0, 1)")
	}
	if r := c.Backtest.SlippageRate; r < 0 || r >= 1 {
		return fmt.Errorf("backtest.slippage_rate must be within [0, 1)")
	}

	if c.Strategy.Name != "" {
		switch strings.ToLower(strings.TrimSpace(c.Strategy.Name)) {
		case "noop", "none":
		case "buy-once", "buyonce", "bounce":
			if c.Strategy.Symbol == "" {
				return fmt.Errorf("strategy.symbol is required for %q", c.Strategy.Name)
			}
		default:
			return fmt.Errorf("unknown strategy %q", c.Strategy.Name)
		}
	}
	if c.Strategy.TakeProfitPct < 0 || c.Strategy.StopLossPct < 0 {
		return fmt.Errorf("strategy exit percentages must not be negative")
	}

	return nil
}

// Default returns a configuration with every knob at its component default.
func Default() *Config {
	return &Config{
		Detector: detector.Config{
			MinBouncePercent: detector.DefaultMinBouncePercent,
			TimeWindowMs:     detector.DefaultTimeWindowMs,
			VolumeThreshold:  detector.DefaultVolumeThreshold,
		},
		Classifier: ClassifierConfig{
			Config: classifier.Config{
				ConfidenceThreshold: classifier.DefaultConfidenceThreshold,
				LearningRate:        classifier.DefaultLearningRate,
			},
		},
		Account: paper.Config{
			InitialBalance: paper.DefaultInitialBalance,
			CommissionRate: paper.DefaultCommissionRate,
			SlippageRate:   paper.DefaultSlippageRate,
		},
		Backtest: backtest.Config{
			InitialCapital: backtest.DefaultInitialCapital,
			CommissionRate: backtest.DefaultCommissionRate,
			SlippageRate:   backtest.DefaultSlippageRate,
		},
		Strategy: StrategyConfig{
			Name:          "bounce",
			Symbol:        "MEME",
			TakeProfitPct: strategies.DefaultTakeProfitPct,
			StopLossPct:   strategies.DefaultStopLossPct,
		},
	}
}
