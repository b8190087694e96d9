// Package detector watches a stream of price/volume observations for a single
// instrument and emits bounce signals: a rebound off a recent local low
// confirmed by a volume spike.
package detector

import (
	"math"
)

// SignalBounce is the only signal kind the detector produces.
const SignalBounce = "BOUNCE"

const (
	DefaultMinBouncePercent = 5.0
	DefaultTimeWindowMs     = 300_000 // 5 minutes
	DefaultVolumeThreshold  = 1.5
	DefaultSignalMaxAgeMs   = 3_600_000 // 1 hour

	// recentWindow bounds how many of the newest observations participate in
	// low/average-volume calculations.
	recentWindow = 10

	// minObservations is the least history required before a signal may fire.
	minObservations = 3
)

// Observation is a single feed tick. Timestamps are monotonic milliseconds
// supplied by the feed; the detector never consults the wall clock.
type Observation struct {
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	Timestamp int64   `json:"timestamp"`
}

// Signal describes a detected bounce. Immutable once returned.
type Signal struct {
	Kind          string  `json:"type"`
	Timestamp     int64   `json:"timestamp"`
	Price         float64 `json:"price"`
	Low           float64 `json:"low"`
	BouncePercent float64 `json:"bouncePercent"`
	VolumeRatio   float64 `json:"volumeRatio"`
	Strength      int     `json:"strength"`

	// PriceChange and Momentum are optional enrichments a caller may set
	// before classification; the detector leaves them zero.
	PriceChange float64 `json:"priceChange,omitempty"`
	Momentum    float64 `json:"momentum,omitempty"`
}

// Config holds detection thresholds. Zero values fall back to defaults.
type Config struct {
	MinBouncePercent float64 `json:"min_bounce_percent" yaml:"min_bounce_percent"`
	TimeWindowMs     int64   `json:"time_window_ms" yaml:"time_window_ms"`
	VolumeThreshold  float64 `json:"volume_threshold" yaml:"volume_threshold"`
}

func (c *Config) applyDefaults() {
	if c.MinBouncePercent == 0 {
		c.MinBouncePercent = DefaultMinBouncePercent
	}
	if c.TimeWindowMs == 0 {
		c.TimeWindowMs = DefaultTimeWindowMs
	}
	if c.VolumeThreshold == 0 {
		c.VolumeThreshold = DefaultVolumeThreshold
	}
}

// Stats is a point-in-time summary of detector activity.
type Stats struct {
	TotalSignals int     `json:"totalSignals"`
	DataPoints   int     `json:"dataPoints"`
	AvgStrength  float64 `json:"avgStrength"`
}

// Detector owns the observation window and an append-only signal log.
// It is single-writer: callers must serialize access externally.
type Detector struct {
	cfg     Config
	window  []Observation
	signals []Signal
}

func New(cfg Config) *Detector {
	cfg.applyDefaults()
	return &Detector{cfg: cfg}
}

// Config returns the effective configuration after defaulting.
func (d *Detector) Config() Config { return d.cfg }

// AddObservation appends a tick, prunes the window to the configured time
// horizon, and returns a Signal when bounce and volume conditions are jointly
// met. A nil return means "no signal", never an error: insufficient history
// and degenerate prices are quiet conditions.
func (d *Detector) AddObservation(price, volume float64, timestamp int64) *Signal {
	obs := Observation{Price: price, Volume: volume, Timestamp: timestamp}
	d.window = append(d.window, obs)
	d.prune(timestamp)
	return d.detect(obs)
}

// prune drops observations at or before timestamp-TimeWindowMs. Idempotent.
func (d *Detector) prune(now int64) {
	cutoff := now - d.cfg.TimeWindowMs
	keep := d.window[:0]
	for _, o := range d.window {
		if o.Timestamp > cutoff {
			keep = append(keep, o)
		}
	}
	d.window = keep
}

func (d *Detector) detect(cur Observation) *Signal {
	if len(d.window) < minObservations {
		return nil
	}

	recent := d.window
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}

	low := recent[0].Price
	var volSum float64
	for _, o := range recent {
		if o.Price < low {
			low = o.Price
		}
		volSum += o.Volume
	}

	// Division guards: a zero low or an all-zero volume window can never
	// produce a meaningful ratio, so treat both as "no signal".
	if low <= 0 {
		return nil
	}
	avgVolume := volSum / float64(len(recent))
	if avgVolume <= 0 {
		return nil
	}

	bouncePercent := (cur.Price - low) / low * 100
	volumeRatio := cur.Volume / avgVolume

	if bouncePercent < d.cfg.MinBouncePercent || volumeRatio < d.cfg.VolumeThreshold {
		return nil
	}

	sig := Signal{
		Kind:          SignalBounce,
		Timestamp:     cur.Timestamp,
		Price:         cur.Price,
		Low:           low,
		BouncePercent: bouncePercent,
		VolumeRatio:   volumeRatio,
		Strength:      d.strength(bouncePercent, volumeRatio),
	}
	d.signals = append(d.signals, sig)
	return &sig
}

// strength scores a signal 0..100, half from bounce magnitude and half from
// the volume spike, each capped at 50.
func (d *Detector) strength(bouncePercent, volumeRatio float64) int {
	bounceScore := math.Min(bouncePercent/d.cfg.MinBouncePercent*50, 50)
	volumeScore := math.Min(volumeRatio/d.cfg.VolumeThreshold*50, 50)
	return int(math.Round(bounceScore + volumeScore))
}

// RecentSignals returns up to n of the newest logged signals, oldest first.
func (d *Detector) RecentSignals(n int) []Signal {
	if n <= 0 || len(d.signals) == 0 {
		return nil
	}
	if n > len(d.signals) {
		n = len(d.signals)
	}
	out := make([]Signal, n)
	copy(out, d.signals[len(d.signals)-n:])
	return out
}

// ClearOldSignals drops logged signals older than maxAge relative to now.
// The signal log is otherwise unbounded; callers run this as maintenance.
func (d *Detector) ClearOldSignals(now, maxAge int64) {
	if maxAge <= 0 {
		maxAge = DefaultSignalMaxAgeMs
	}
	cutoff := now - maxAge
	keep := d.signals[:0]
	for _, s := range d.signals {
		if s.Timestamp > cutoff {
			keep = append(keep, s)
		}
	}
	d.signals = keep
}

func (d *Detector) Stats() Stats {
	st := Stats{
		TotalSignals: len(d.signals),
		DataPoints:   len(d.window),
	}
	if len(d.signals) > 0 {
		var sum float64
		for _, s := range d.signals {
			sum += float64(s.Strength)
		}
		st.AvgStrength = sum / float64(len(d.signals))
	}
	return st
}
