package scope

import (
	"math"

	consts "github.com/nca-tools/nca-cli/internal/shared/constants"
)

// Estimate projects the resource usage of processing a control set.
// Derived and stateless: recomputed on every call, never cached.
type Estimate struct {
	ControlCount     int     `json:"control_count"`
	EstimatedTokens  int     `json:"estimated_tokens"`
	EstimatedMinutes float64 `json:"estimated_minutes"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	Mode             string  `json:"mode"`
}

// Estimator turns a control count and mode into an Estimate using fixed
// empirical per-control coefficients:
//
//	quick: 200 tokens, 0.5s per control (batch validation)
//	smart: 1000 tokens, 1.5s per control (selective deep reasoning)
//	deep:  8000 tokens, 5.0s per control (full deep reasoning)
type Estimator struct {
	ratePerMillion float64
}

// NewEstimator builds an estimator charging ratePerMillion USD per million
// tokens. A non-positive rate falls back to the default.
func NewEstimator(ratePerMillion float64) *Estimator {
	if ratePerMillion <= 0 {
		ratePerMillion = consts.DefaultCostPerMillionTokens
	}
	return &Estimator{ratePerMillion: ratePerMillion}
}

// RatePerMillion returns the configured USD rate per million tokens.
func (e *Estimator) RatePerMillion() float64 {
	return e.ratePerMillion
}

// Estimate computes projections for processing controlCount controls in
// the given mode. An unrecognized mode uses the deep coefficients; the
// mode string is echoed back unchanged. A zero count yields all-zero
// fields, not an error.
func (e *Estimator) Estimate(controlCount int, mode Mode) Estimate {
	var tokensPerControl int
	var secondsPerControl float64

	switch mode {
	case ModeQuick:
		tokensPerControl = 200
		secondsPerControl = 0.5
	case ModeSmart:
		tokensPerControl = 1000
		secondsPerControl = 1.5
	default:
		tokensPerControl = 8000
		secondsPerControl = 5
	}

	totalTokens := controlCount * tokensPerControl
	totalSeconds := float64(controlCount) * secondsPerControl

	return Estimate{
		ControlCount:     controlCount,
		EstimatedTokens:  totalTokens,
		EstimatedMinutes: round1(totalSeconds / 60),
		EstimatedCostUSD: round2(float64(totalTokens) / 1_000_000 * e.ratePerMillion),
		Mode:             mode.String(),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
