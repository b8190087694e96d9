// Package classifier scores bounce signals with a minimal online logistic
// regression. It is deliberately not a machine-learning framework: five fixed
// features, single-pass SGD, no decay or regularization.
package classifier

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/rustyeddy/bounce/detector"
)

const (
	DefaultConfidenceThreshold = 0.7
	DefaultLearningRate        = 0.01
)

// ErrDimensionMismatch is returned by Train when signals and labels differ in
// length. It is a hard precondition failure: the model is left untouched.
var ErrDimensionMismatch = errors.New("classifier: signals and labels must have the same length")

// featureNames fixes both the feature set and the iteration order. A stable
// order makes weight trajectories reproducible under a seeded RNG; Go map
// iteration would otherwise vary the order weights are first initialized.
var featureNames = []string{"bouncePercent", "volumeRatio", "strength", "priceChange", "momentum"}

// Model is the trainable state: one weight per feature plus a bias. Weights
// are lazily initialized to U(-0.05, 0.05) the first time a feature is seen
// during training; prediction treats unseen features as zero-weighted.
type Model struct {
	Weights map[string]float64 `json:"weights"`
	Bias    float64            `json:"bias"`
}

// Prediction is the classifier's verdict on one signal. Appended to an
// internal log that only aggregate metrics consume.
type Prediction struct {
	Signal      detector.Signal `json:"signal"`
	Probability float64         `json:"probability"`
	Confidence  float64         `json:"confidence"`
	ShouldTrade bool            `json:"shouldTrade"`
	Timestamp   int64           `json:"timestamp"`
}

// Metrics summarizes the prediction log. Field formatting (three-decimal
// confidence, trailing-% filter rate) matches what downstream consumers
// render.
type Metrics struct {
	TotalPredictions int    `json:"totalPredictions"`
	AvgConfidence    string `json:"avgConfidence"`
	TradedSignals    int    `json:"tradedSignals"`
	FilterRate       string `json:"filterRate"`
}

// Config holds classifier parameters. Zero values fall back to defaults.
type Config struct {
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold"`
	LearningRate        float64 `json:"learning_rate" yaml:"learning_rate"`
}

func (c *Config) applyDefaults() {
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if c.LearningRate == 0 {
		c.LearningRate = DefaultLearningRate
	}
}

// Classifier owns the model and prediction log. Single-writer, like the
// detector: concurrent callers must serialize externally.
type Classifier struct {
	cfg         Config
	model       Model
	predictions []Prediction
	rng         *rand.Rand
	trained     int
}

// New builds a classifier with wall-clock-seeded weight initialization.
func New(cfg Config) *Classifier {
	return NewSeeded(cfg, time.Now().UnixNano())
}

// NewSeeded builds a classifier whose lazy weight initialization draws from a
// deterministic sequence, so tests can assert exact trajectories.
func NewSeeded(cfg Config, seed int64) *Classifier {
	cfg.applyDefaults()
	return &Classifier{
		cfg:   cfg,
		model: Model{Weights: make(map[string]float64)},
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Config returns the effective configuration after defaulting.
func (c *Classifier) Config() Config { return c.cfg }

// Model returns a copy of the current model state.
func (c *Classifier) Model() Model {
	m := Model{Bias: c.model.Bias, Weights: make(map[string]float64, len(c.model.Weights))}
	for k, v := range c.model.Weights {
		m.Weights[k] = v
	}
	return m
}

// extractFeatures derives the fixed feature vector from a signal. Optional
// fields default to zero rather than erroring.
func extractFeatures(sig detector.Signal) map[string]float64 {
	return map[string]float64{
		"bouncePercent": sig.BouncePercent,
		"volumeRatio":   sig.VolumeRatio,
		"strength":      float64(sig.Strength),
		"priceChange":   sig.PriceChange,
		"momentum":      sig.Momentum,
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// score is the raw linear score for a feature vector under the current model.
// Unseen features contribute nothing.
func (c *Classifier) score(features map[string]float64) float64 {
	s := c.model.Bias
	for _, name := range featureNames {
		s += c.model.Weights[name] * features[name]
	}
	return s
}

// Predict scores a signal against the current model. Pure with respect to the
// model, but appends to the prediction log as an observable side effect.
func (c *Classifier) Predict(sig detector.Signal) Prediction {
	probability := sigmoid(c.score(extractFeatures(sig)))

	pred := Prediction{
		Signal:      sig,
		Probability: probability,
		Confidence:  probability,
		ShouldTrade: probability >= c.cfg.ConfidenceThreshold,
		Timestamp:   time.Now().UnixMilli(),
	}
	c.predictions = append(c.predictions, pred)
	return pred
}

// Train runs one pass of stochastic gradient descent over the batch in input
// order. Each step recomputes the probability under the current weights; it
// never reuses one recorded by an earlier Predict call.
func (c *Classifier) Train(signals []detector.Signal, labels []int) error {
	if len(signals) != len(labels) {
		return fmt.Errorf("%w: %d signals, %d labels", ErrDimensionMismatch, len(signals), len(labels))
	}

	for i, sig := range signals {
		features := extractFeatures(sig)
		probability := sigmoid(c.score(features))
		err := float64(labels[i]) - probability

		for _, name := range featureNames {
			if _, ok := c.model.Weights[name]; !ok {
				c.model.Weights[name] = c.rng.Float64()*0.1 - 0.05
			}
			c.model.Weights[name] += c.cfg.LearningRate * err * features[name]
		}
		c.model.Bias += c.cfg.LearningRate * err
	}

	c.trained += len(signals)
	return nil
}

// FilterSignals scores every input and returns only the trade-worthy
// predictions, ordered by descending confidence. Ties keep input order.
func (c *Classifier) FilterSignals(signals []detector.Signal) []Prediction {
	var kept []Prediction
	for _, sig := range signals {
		if pred := c.Predict(sig); pred.ShouldTrade {
			kept = append(kept, pred)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence > kept[j].Confidence
	})
	return kept
}

// Metrics summarizes the prediction log, or nil before any prediction.
func (c *Classifier) Metrics() *Metrics {
	if len(c.predictions) == 0 {
		return nil
	}

	var sum float64
	traded := 0
	for _, p := range c.predictions {
		sum += p.Confidence
		if p.ShouldTrade {
			traded++
		}
	}
	total := len(c.predictions)

	return &Metrics{
		TotalPredictions: total,
		AvgConfidence:    fmt.Sprintf("%.3f", sum/float64(total)),
		TradedSignals:    traded,
		FilterRate:       fmt.Sprintf("%.2f%%", (1-float64(traded)/float64(total))*100),
	}
}

// TrainedSamples reports how many labeled samples the model has consumed.
func (c *Classifier) TrainedSamples() int { return c.trained }

// Reset discards the model and prediction log. The RNG sequence is not
// rewound, so a reset-and-retrain follows a fresh trajectory.
func (c *Classifier) Reset() {
	c.model = Model{Weights: make(map[string]float64)}
	c.predictions = nil
	c.trained = 0
}
