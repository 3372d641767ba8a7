package assess

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/nca-tools/nca-cli/internal/scope"
	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

// pipelineSource yields three controls with distinct coverage bands for the
// canned evidence in pipelineEvidence: AC-2 fully covered, AU-6 half
// covered, SC-7 not covered at all.
func pipelineSource() *stubSource {
	return &stubSource{requirements: map[string]Requirements{
		"AC-2": {ControlID: "AC-2", Title: "Account Management", Family: "AC",
			Statement: "account management lifecycle"},
		"AU-6": {ControlID: "AU-6", Title: "Audit Record Review", Family: "AU",
			Statement: "review analyze audit records collected weekly"},
		"SC-7": {ControlID: "SC-7", Title: "Boundary Protection", Family: "SC",
			Statement: "boundary protection subnetworks"},
	}}
}

func pipelineEvidence() []Evidence {
	return []Evidence{
		{ID: "ev-1", Source: "iam-policy.md", Text: "account management lifecycle audit records weekly"},
	}
}

func pipelineScope() []string {
	return []string{"AC-2", "AU-6", "SC-7"}
}

func TestRunnerQuickMode(t *testing.T) {
	r := NewRunner(NewKeywordValidator(pipelineSource()), Config{Mode: scope.ModeQuick})

	result, err := r.Run(context.Background(), "sess-1", pipelineScope(), pipelineEvidence(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Mappings) != 2 {
		t.Fatalf("mappings = %d, want 2 (AC-2, AU-6)", len(result.Mappings))
	}
	if result.Mappings[0].ControlID != "AC-2" || result.Mappings[1].ControlID != "AU-6" {
		t.Errorf("mapping order = %s, %s", result.Mappings[0].ControlID, result.Mappings[1].ControlID)
	}
	if result.Mappings[0].ImplementationStatus != StatusImplemented {
		t.Errorf("AC-2 status = %s", result.Mappings[0].ImplementationStatus)
	}
	if result.Mappings[1].ImplementationStatus != StatusPartiallyImplemented {
		t.Errorf("AU-6 status = %s", result.Mappings[1].ImplementationStatus)
	}

	if len(result.Gaps) != 2 {
		t.Fatalf("gaps = %d, want 2 (AU-6, SC-7)", len(result.Gaps))
	}
	if result.Gaps[0].ControlID != "AU-6" || result.Gaps[1].ControlID != "SC-7" {
		t.Errorf("gap order = %s, %s", result.Gaps[0].ControlID, result.Gaps[1].ControlID)
	}
	if result.Gaps[1].RiskLevel != RiskCritical {
		t.Errorf("SC-7 risk = %s, want critical", result.Gaps[1].RiskLevel)
	}

	// one implemented mapping over two mappings plus two gaps
	if result.ComplianceScore != 25.0 {
		t.Errorf("ComplianceScore = %v, want 25.0", result.ComplianceScore)
	}

	m := result.Metrics
	if m.Scope.ControlsInScope != 3 {
		t.Errorf("ControlsInScope = %d, want 3", m.Scope.ControlsInScope)
	}
	if m.Scope.Mode != "quick" {
		t.Errorf("Mode = %q", m.Scope.Mode)
	}
	if m.Processing.Checked != 2 {
		t.Errorf("Checked = %d, want 2", m.Processing.Checked)
	}
	if m.Processing.BatchPasses != 2 {
		t.Errorf("BatchPasses = %d, want 2 (mapping pass + validation pass)", m.Processing.BatchPasses)
	}
	if m.Results.GapsFound != 2 || m.Results.CriticalGaps != 1 {
		t.Errorf("Results = %+v", m.Results)
	}
}

func TestRunnerSmartModeSkipsPassing(t *testing.T) {
	r := NewRunner(NewKeywordValidator(pipelineSource()), Config{
		Mode:        scope.ModeSmart,
		SkipPassing: true,
	})

	result, err := r.Run(context.Background(), "sess-2", pipelineScope(), pipelineEvidence(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// AC-2 has no gap (passing); AU-6 has a medium gap (standard); SC-7 is
	// unmapped and never reaches the tiers
	if len(result.Tiers.Passing) != 1 || result.Tiers.Passing[0] != "AC-2" {
		t.Errorf("Passing = %v", result.Tiers.Passing)
	}
	if len(result.Tiers.Standard) != 1 || result.Tiers.Standard[0] != "AU-6" {
		t.Errorf("Standard = %v", result.Tiers.Standard)
	}
	if len(result.Tiers.Critical) != 0 {
		t.Errorf("Critical = %v", result.Tiers.Critical)
	}

	if len(result.Validations) != 1 || result.Validations[0].ControlID != "AU-6" {
		t.Fatalf("validations = %+v, want only the standard tier", result.Validations)
	}

	m := result.Metrics
	if m.Processing.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", m.Processing.Skipped)
	}
	if m.Processing.Checked != 1 {
		t.Errorf("Checked = %d, want 1", m.Processing.Checked)
	}
	if m.Processing.Prioritization.Passing != 1 || m.Processing.Prioritization.Standard != 1 {
		t.Errorf("Prioritization = %+v", m.Processing.Prioritization)
	}
}

func TestRunnerSmartModeValidatesPassingWhenConfigured(t *testing.T) {
	r := NewRunner(NewKeywordValidator(pipelineSource()), Config{
		Mode:        scope.ModeSmart,
		SkipPassing: false,
	})

	result, err := r.Run(context.Background(), "sess-3", pipelineScope(), pipelineEvidence(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Validations) != 2 {
		t.Fatalf("validations = %d, want standard + passing", len(result.Validations))
	}
	if result.Metrics.Processing.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", result.Metrics.Processing.Skipped)
	}
	if result.Metrics.Processing.Checked != 2 {
		t.Errorf("Checked = %d, want 2", result.Metrics.Processing.Checked)
	}
}

func TestRunnerDeepMode(t *testing.T) {
	r := NewRunner(NewKeywordValidator(pipelineSource()), Config{Mode: scope.ModeDeep})

	result, err := r.Run(context.Background(), "sess-4", pipelineScope(), pipelineEvidence(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Validations) != 2 {
		t.Fatalf("validations = %d, want every mapped control", len(result.Validations))
	}
	if result.Metrics.Processing.IndividualPasses != 2 {
		t.Errorf("IndividualPasses = %d, want 2", result.Metrics.Processing.IndividualPasses)
	}
}

func TestRunnerRequiresEvidence(t *testing.T) {
	r := NewRunner(NewKeywordValidator(pipelineSource()), Config{})

	_, err := r.Run(context.Background(), "sess-5", pipelineScope(), nil, nil)
	if !errors.Is(err, sharedErrors.ErrNoEvidence) {
		t.Fatalf("expected ErrNoEvidence, got %v", err)
	}
}

func TestRunnerCancelledContext(t *testing.T) {
	r := NewRunner(NewKeywordValidator(pipelineSource()), Config{Mode: scope.ModeQuick})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, "sess-6", pipelineScope(), pipelineEvidence(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunnerPreservesScopeOrderAcrossBatches(t *testing.T) {
	// 25 controls across 3 concurrent batches of 10
	requirements := make(map[string]Requirements, 25)
	ids := make([]string, 0, 25)
	for i := 1; i <= 25; i++ {
		id := fmt.Sprintf("AC-%d", i)
		ids = append(ids, id)
		requirements[id] = Requirements{ControlID: id, Title: "Control " + id, Statement: "alpha"}
	}

	r := NewRunner(NewKeywordValidator(&stubSource{requirements: requirements}), Config{
		Mode:          scope.ModeQuick,
		BatchSize:     10,
		MaxConcurrent: 3,
	})

	result, err := r.Run(context.Background(), "sess-7", ids, []Evidence{{ID: "ev-1", Text: "alpha"}}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Mappings) != 25 {
		t.Fatalf("mappings = %d, want 25", len(result.Mappings))
	}
	for i, m := range result.Mappings {
		if m.ControlID != ids[i] {
			t.Fatalf("mapping[%d] = %s, want %s (scope order must survive batch scheduling)", i, m.ControlID, ids[i])
		}
	}
	if result.Metrics.Processing.BatchPasses != 6 {
		t.Errorf("BatchPasses = %d, want 6 (3 mapping + 3 validation)", result.Metrics.Processing.BatchPasses)
	}
}

func TestRunnerProgressReporting(t *testing.T) {
	r := NewRunner(NewKeywordValidator(pipelineSource()), Config{Mode: scope.ModeSmart, SkipPassing: true})

	var mu sync.Mutex
	var updates []Progress
	report := func(p Progress) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, p)
	}

	if _, err := r.Run(context.Background(), "sess-8", pipelineScope(), pipelineEvidence(), report); err != nil {
		t.Fatalf("Run: %v", err)
	}

	stages := map[string]bool{}
	for _, u := range updates {
		stages[u.Stage] = true
		if u.Percent < 0 || u.Percent > 100 {
			t.Errorf("percent %d out of range", u.Percent)
		}
	}
	for _, want := range []string{"mapping", "validating", "finalizing", "complete"} {
		if !stages[want] {
			t.Errorf("missing stage %q in %v", want, stages)
		}
	}

	last := updates[len(updates)-1]
	if last.Stage != "complete" || last.Percent != 100 {
		t.Errorf("final update = %+v, want complete/100", last)
	}
}

func TestComplianceScore(t *testing.T) {
	tests := []struct {
		name     string
		mappings []ControlMapping
		gaps     []ControlGap
		want     float64
	}{
		{"no mappings", nil, []ControlGap{gap("AC-2", RiskHigh)}, 0},
		{"all implemented no gaps", []ControlMapping{mapping("AC-2"), mapping("AU-6")}, nil, 100},
		{
			"half implemented with gaps",
			[]ControlMapping{
				mapping("AC-2"),
				{ControlID: "AU-6", ImplementationStatus: StatusPartiallyImplemented},
			},
			[]ControlGap{gap("AU-6", RiskMedium), gap("SC-7", RiskCritical)},
			25.0,
		},
		{
			"thirds round to two decimals",
			[]ControlMapping{mapping("AC-2")},
			[]ControlGap{gap("SC-7", RiskHigh), gap("SI-4", RiskLow)},
			33.33,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComplianceScore(tt.mappings, tt.gaps); got != tt.want {
				t.Errorf("ComplianceScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetricsSnapshotShape(t *testing.T) {
	m := NewMetrics("sess-9")
	m.Baseline = "moderate"
	m.Mode = "smart"
	m.ControlsInScope = 40
	m.TotalControls = 38
	m.ControlsChecked = 30
	m.ControlsSkipped = 8
	m.CriticalControls = 5
	m.StandardControls = 25
	m.PassingControls = 8
	m.GapsFound = 12
	m.CriticalGaps = 3
	m.Finish()

	snap := m.Snapshot()
	if snap.SessionID != "sess-9" {
		t.Errorf("SessionID = %q", snap.SessionID)
	}
	if snap.Scope.Baseline != "moderate" || snap.Scope.ControlsInScope != 40 {
		t.Errorf("Scope = %+v", snap.Scope)
	}
	if snap.Processing.Prioritization.Critical != 5 {
		t.Errorf("Prioritization = %+v", snap.Processing.Prioritization)
	}
	if snap.Results.CriticalGaps != 3 {
		t.Errorf("Results = %+v", snap.Results)
	}
	if snap.DurationSeconds < 0 {
		t.Errorf("DurationSeconds = %v", snap.DurationSeconds)
	}
}
