package ensemble

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"stockai/internal/features"
	"stockai/internal/logger"
)

// Signal is a discrete trade direction.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// Raw actions inside (-0.5, 0.5) read as hold.
const actionThreshold = 0.5

// ErrNoModels is returned when every policy failed for an observation.
var ErrNoModels = errors.New("ensemble: no model produced a prediction")

// Result is the aggregate vote across the loaded policies.
type Result struct {
	Signal     Signal
	Confidence float64
	ModelVotes map[string]Signal
	ActionStd  float64
}

// Ensemble holds the loaded policies. Policies are read-only after
// construction, so Predict is safe across symbol pipelines.
type Ensemble struct {
	policies []Policy
}

func New(policies ...Policy) *Ensemble {
	return &Ensemble{policies: policies}
}

// Load opens every named model under dir as <name>.onnx. Models that
// fail to load are skipped with a warning so a partial ensemble still
// serves.
func Load(dir string, names []string) (*Ensemble, error) {
	if err := InitRuntime(""); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}
	e := &Ensemble{}
	for _, name := range names {
		path := filepath.Join(dir, name+".onnx")
		policy, err := NewONNXPolicy(name, path)
		if err != nil {
			logger.Warnf("skip model %s: %v", name, err)
			continue
		}
		e.policies = append(e.policies, policy)
	}
	logger.Infof("ensemble loaded %d/%d models from %s", len(e.policies), len(names), dir)
	return e, nil
}

// IsReady reports whether at least one policy is loaded.
func (e *Ensemble) IsReady() bool { return len(e.policies) > 0 }

func (e *Ensemble) Close() {
	for _, p := range e.policies {
		p.Close()
	}
}

// Predict runs every policy on the observation and aggregates the
// discretized votes by strict plurality. A policy error drops that
// policy's vote for this observation only.
func (e *Ensemble) Predict(obs features.Observation) (Result, error) {
	input := obs.Float32s()
	votes := make(map[string]Signal, len(e.policies))
	var actions []float64

	for _, p := range e.policies {
		action, err := p.Predict(input)
		if err != nil {
			logger.Warnf("model %s dropped from vote: %v", p.Name(), err)
			continue
		}
		votes[p.Name()] = discretize(action)
		actions = append(actions, action)
	}
	if len(votes) == 0 {
		return Result{}, ErrNoModels
	}

	signal, agree := tally(votes)
	confidence := math.Min(95, agree/float64(len(votes))*100)

	return Result{
		Signal:     signal,
		Confidence: confidence,
		ModelVotes: votes,
		ActionStd:  stddev(actions),
	}, nil
}

func discretize(action float64) Signal {
	switch {
	case action > actionThreshold:
		return SignalBuy
	case action < -actionThreshold:
		return SignalSell
	default:
		return SignalHold
	}
}

// tally returns the strict plurality winner and its vote count. A tie
// between buy and sell resolves to hold.
func tally(votes map[string]Signal) (Signal, float64) {
	counts := map[Signal]int{}
	for _, v := range votes {
		counts[v]++
	}
	buy, sell, hold := counts[SignalBuy], counts[SignalSell], counts[SignalHold]

	switch {
	case buy > sell && buy > hold:
		return SignalBuy, float64(buy)
	case sell > buy && sell > hold:
		return SignalSell, float64(sell)
	default:
		return SignalHold, float64(hold)
	}
}

func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	variance := 0.0
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	return math.Sqrt(variance / float64(len(xs)))
}
