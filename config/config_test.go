package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestZeroConfigIsValid(t *testing.T) {
	// Zero values defer to component defaults, so an empty config passes.
	require.NoError(t, (&Config{}).Validate())
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative bounce", func(c *Config) { c.Detector.MinBouncePercent = -1 }},
		{"threshold above one", func(c *Config) { c.Classifier.ConfidenceThreshold = 1.5 }},
		{"negative learning rate", func(c *Config) { c.Classifier.LearningRate = -0.01 }},
		{"commission of 100%", func(c *Config) { c.Account.CommissionRate = 1.0 }},
		{"negative capital", func(c *Config) { c.Backtest.InitialCapital = -5 }},
		{"unknown strategy", func(c *Config) { c.Strategy.Name = "martingale" }},
		{"bounce without symbol", func(c *Config) { c.Strategy = StrategyConfig{Name: "bounce"} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bounce.yaml")

	cfg := Default()
	cfg.Detector.MinBouncePercent = 7.5
	cfg.Classifier.Seed = 42
	cfg.Strategy.Symbol = "DOGE"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, 7.5, loaded.Detector.MinBouncePercent)
	require.Equal(t, int64(42), loaded.Classifier.Seed)
	require.Equal(t, "DOGE", loaded.Strategy.Symbol)
}

func TestJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bounce.json")

	cfg := Default()
	cfg.Account.InitialBalance = 25_000
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, 25_000.0, loaded.Account.InitialBalance)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")

	cfg := Default()
	cfg.Strategy.Name = "martingale"
	require.NoError(t, cfg.SaveToFile(path))

	_, err := LoadFromFile(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestBounceConfigThreadsDetectorSection(t *testing.T) {
	cfg := Default()
	cfg.Detector.MinBouncePercent = 9
	cfg.Strategy.Symbol = "MEME"
	cfg.Strategy.MaxHoldMs = 60_000

	bc := cfg.BounceConfig()
	require.Equal(t, 9.0, bc.Detector.MinBouncePercent)
	require.Equal(t, "MEME", bc.Symbol)
	require.Equal(t, int64(60_000), bc.MaxHoldMs)
}
