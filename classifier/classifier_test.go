package classifier

import (
	"errors"
	"math"
	"testing"

	"github.com/rustyeddy/bounce/detector"
)

func bounceSignal(bounce, ratio float64, strength int) detector.Signal {
	return detector.Signal{
		Kind:          detector.SignalBounce,
		Timestamp:     1000,
		Price:         1.1,
		Low:           0.9,
		BouncePercent: bounce,
		VolumeRatio:   ratio,
		Strength:      strength,
	}
}

func TestPredictUntrainedIsCoinFlip(t *testing.T) {
	c := NewSeeded(Config{}, 1)

	pred := c.Predict(bounceSignal(10, 2, 80))
	if math.Abs(pred.Probability-0.5) > 1e-12 {
		t.Fatalf("untrained probability = %v, want 0.5", pred.Probability)
	}
	if pred.ShouldTrade {
		t.Fatal("0.5 probability must not clear the 0.7 threshold")
	}
	if pred.Confidence != pred.Probability {
		t.Fatalf("confidence %v != probability %v", pred.Confidence, pred.Probability)
	}
}

func TestTrainDimensionMismatch(t *testing.T) {
	c := NewSeeded(Config{}, 1)

	signals := []detector.Signal{bounceSignal(10, 2, 80)}
	err := c.Train(signals, []int{1, 0})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("err = %v, want ErrDimensionMismatch", err)
	}
	if m := c.Model(); len(m.Weights) != 0 || m.Bias != 0 {
		t.Fatalf("model mutated on failed train: %+v", m)
	}
}

func TestTrainMovesProbabilityTowardLabel(t *testing.T) {
	c := NewSeeded(Config{}, 42)

	strong := bounceSignal(12, 3, 90)
	weak := bounceSignal(5, 1.5, 20)

	before := sigmoid(c.score(extractFeatures(strong)))

	signals := make([]detector.Signal, 0, 40)
	labels := make([]int, 0, 40)
	for i := 0; i < 20; i++ {
		signals = append(signals, strong, weak)
		labels = append(labels, 1, 0)
	}
	if err := c.Train(signals, labels); err != nil {
		t.Fatal(err)
	}

	after := sigmoid(c.score(extractFeatures(strong)))
	if after <= before {
		t.Fatalf("probability did not increase: before=%v after=%v", before, after)
	}
	if c.TrainedSamples() != 40 {
		t.Fatalf("trained samples = %d", c.TrainedSamples())
	}
}

func TestSeededTrainingIsDeterministic(t *testing.T) {
	sig := bounceSignal(10, 2, 80)

	run := func() Model {
		c := NewSeeded(Config{}, 7)
		if err := c.Train([]detector.Signal{sig, sig}, []int{1, 1}); err != nil {
			t.Fatal(err)
		}
		return c.Model()
	}

	a, b := run(), run()
	if a.Bias != b.Bias {
		t.Fatalf("bias diverged: %v vs %v", a.Bias, b.Bias)
	}
	for name, w := range a.Weights {
		if b.Weights[name] != w {
			t.Fatalf("weight %q diverged: %v vs %v", name, w, b.Weights[name])
		}
	}
}

func TestFilterSignalsOrdersByConfidence(t *testing.T) {
	c := NewSeeded(Config{ConfidenceThreshold: 0.4}, 3)

	// Bias the model so stronger bounces score higher.
	c.model.Weights["bouncePercent"] = 0.1

	signals := []detector.Signal{
		bounceSignal(5, 2, 50),
		bounceSignal(20, 2, 90),
		bounceSignal(10, 2, 70),
	}
	preds := c.FilterSignals(signals)
	if len(preds) != 3 {
		t.Fatalf("kept %d predictions, want 3", len(preds))
	}
	for i := 1; i < len(preds); i++ {
		if preds[i].Confidence > preds[i-1].Confidence {
			t.Fatalf("predictions not in descending confidence: %v then %v",
				preds[i-1].Confidence, preds[i].Confidence)
		}
	}
}

func TestFilterSignalsDropsLowConfidence(t *testing.T) {
	c := NewSeeded(Config{}, 3)

	// Untrained model scores everything at 0.5, below the 0.7 default.
	preds := c.FilterSignals([]detector.Signal{bounceSignal(10, 2, 80)})
	if len(preds) != 0 {
		t.Fatalf("kept %d predictions, want 0", len(preds))
	}
}

func TestMetrics(t *testing.T) {
	c := NewSeeded(Config{}, 1)

	if m := c.Metrics(); m != nil {
		t.Fatalf("metrics before any prediction = %+v, want nil", m)
	}

	c.Predict(bounceSignal(10, 2, 80))
	c.Predict(bounceSignal(6, 1.6, 40))

	m := c.Metrics()
	if m == nil {
		t.Fatal("nil metrics after predictions")
	}
	if m.TotalPredictions != 2 {
		t.Fatalf("total = %d", m.TotalPredictions)
	}
	if m.AvgConfidence != "0.500" {
		t.Fatalf("avgConfidence = %q", m.AvgConfidence)
	}
	if m.TradedSignals != 0 {
		t.Fatalf("traded = %d", m.TradedSignals)
	}
	if m.FilterRate != "100.00%" {
		t.Fatalf("filterRate = %q", m.FilterRate)
	}
}

func TestReset(t *testing.T) {
	c := NewSeeded(Config{}, 1)
	if err := c.Train([]detector.Signal{bounceSignal(10, 2, 80)}, []int{1}); err != nil {
		t.Fatal(err)
	}
	c.Predict(bounceSignal(10, 2, 80))

	c.Reset()
	if m := c.Model(); len(m.Weights) != 0 || m.Bias != 0 {
		t.Fatalf("model survived reset: %+v", m)
	}
	if c.Metrics() != nil {
		t.Fatal("prediction log survived reset")
	}
	if c.TrainedSamples() != 0 {
		t.Fatal("trained count survived reset")
	}
}
