package assess

import (
	"math"
	"time"
)

// Metrics tracks optimization counters during assessment processing. One
// instance lives for the duration of a run and is serialized into results
// and telemetry.
type Metrics struct {
	SessionID string    `json:"session_id"`
	StartTime time.Time `json:"-"`
	EndTime   time.Time `json:"-"`

	// Scope metrics
	Baseline        string `json:"-"`
	Mode            string `json:"-"`
	ControlsInScope int    `json:"-"`

	// Processing metrics
	TotalControls    int `json:"-"`
	ControlsChecked  int `json:"-"`
	ControlsSkipped  int `json:"-"`
	CriticalControls int `json:"-"`
	StandardControls int `json:"-"`
	PassingControls  int `json:"-"`

	// Batch metrics
	BatchPasses      int `json:"-"`
	IndividualPasses int `json:"-"`

	// Token metrics
	TokensEstimated int `json:"-"`

	// Results
	GapsFound    int `json:"-"`
	CriticalGaps int `json:"-"`
}

// NewMetrics starts tracking a run for the given session.
func NewMetrics(sessionID string) *Metrics {
	return &Metrics{SessionID: sessionID, StartTime: time.Now()}
}

// Finish marks processing as complete.
func (m *Metrics) Finish() {
	m.EndTime = time.Now()
}

// Duration reports elapsed processing time; before Finish it measures up to
// the current instant.
func (m *Metrics) Duration() time.Duration {
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

// Snapshot renders the metrics into the nested shape logged with results.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		SessionID:       m.SessionID,
		DurationSeconds: math.Round(m.Duration().Seconds()*100) / 100,
		Scope: ScopeMetrics{
			Baseline:        m.Baseline,
			Mode:            m.Mode,
			ControlsInScope: m.ControlsInScope,
		},
		Processing: ProcessingMetrics{
			TotalControls: m.TotalControls,
			Checked:       m.ControlsChecked,
			Skipped:       m.ControlsSkipped,
			Prioritization: TierCounts{
				Critical: m.CriticalControls,
				Standard: m.StandardControls,
				Passing:  m.PassingControls,
			},
			BatchPasses:      m.BatchPasses,
			IndividualPasses: m.IndividualPasses,
			TokensEstimated:  m.TokensEstimated,
		},
		Results: ResultMetrics{
			GapsFound:    m.GapsFound,
			CriticalGaps: m.CriticalGaps,
		},
	}
}

// MetricsSnapshot is the wire form of Metrics.
type MetricsSnapshot struct {
	SessionID       string            `json:"session_id"`
	DurationSeconds float64           `json:"duration_seconds"`
	Scope           ScopeMetrics      `json:"scope"`
	Processing      ProcessingMetrics `json:"processing"`
	Results         ResultMetrics     `json:"results"`
}

// ScopeMetrics records what the assessment covered.
type ScopeMetrics struct {
	Baseline        string `json:"baseline"`
	Mode            string `json:"mode"`
	ControlsInScope int    `json:"controls_in_scope"`
}

// ProcessingMetrics records how the run processed its controls.
type ProcessingMetrics struct {
	TotalControls    int        `json:"total_controls"`
	Checked          int        `json:"checked"`
	Skipped          int        `json:"skipped"`
	Prioritization   TierCounts `json:"prioritization"`
	BatchPasses      int        `json:"batch_passes"`
	IndividualPasses int        `json:"individual_passes"`
	TokensEstimated  int        `json:"tokens_estimated"`
}

// TierCounts counts controls per priority tier.
type TierCounts struct {
	Critical int `json:"critical"`
	Standard int `json:"standard"`
	Passing  int `json:"passing"`
}

// ResultMetrics summarizes assessment findings.
type ResultMetrics struct {
	GapsFound    int `json:"gaps_found"`
	CriticalGaps int `json:"critical_gaps"`
}

// ComplianceScore computes the overall score as the share of implemented
// mappings over all mappings and gaps, as a percentage with two decimals.
// An assessment with nothing mapped scores zero.
func ComplianceScore(mappings []ControlMapping, gaps []ControlGap) float64 {
	if len(mappings) == 0 {
		return 0
	}
	total := len(mappings) + len(gaps)
	if total == 0 {
		return 0
	}

	implemented := 0
	for _, m := range mappings {
		if m.ImplementationStatus == StatusImplemented {
			implemented++
		}
	}
	return math.Round(float64(implemented)/float64(total)*100*100) / 100
}
