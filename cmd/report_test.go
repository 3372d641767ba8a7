package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nca-tools/nca-cli/internal/assess"
	"github.com/nca-tools/nca-cli/internal/domain/assessment"
)

// newReportAssessment reconstructs a completed run with mixed findings and a
// sealed audit hash. Timestamps are fixed so rendered output is deterministic.
func newReportAssessment() *assessment.Assessment {
	started := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	completed := time.Date(2025, 1, 1, 10, 5, 30, 0, time.UTC)

	mappings := []assess.ControlMapping{
		{
			ControlID:                 "AC-2",
			ControlName:               "Account Management",
			ControlFamily:             "AC",
			EvidenceIDs:               []string{"ev-1"},
			ImplementationStatus:      assess.StatusImplemented,
			ImplementationDescription: "Accounts are provisioned and revoked through the central directory.",
			ConfidenceScore:           0.9,
		},
		{
			ControlID:                 "AC-3",
			ControlName:               "Access Enforcement",
			ControlFamily:             "AC",
			EvidenceIDs:               []string{"ev-1", "ev-3"},
			ImplementationStatus:      assess.StatusPartiallyImplemented,
			ImplementationDescription: "Role based access covers production but staging uses shared accounts.",
			ConfidenceScore:           0.6,
			GapsIdentified:            []string{"staging shared accounts"},
		},
		{
			ControlID:                 "SC-7",
			ControlName:               "Boundary Protection",
			ControlFamily:             "SC",
			EvidenceIDs:               []string{"ev-2"},
			ImplementationStatus:      assess.StatusNotImplemented,
			ImplementationDescription: "No boundary device evidence was provided.",
			ConfidenceScore:           0.4,
			GapsIdentified:            []string{"no managed interface"},
		},
	}

	gaps := []assess.ControlGap{
		{
			ControlID:          "AC-3",
			ControlName:        "Access Enforcement",
			GapDescription:     "Staging environments bypass role based enforcement.",
			RiskLevel:          assess.RiskMedium,
			RiskScore:          40,
			RecommendedActions: []string{"Extend role based policies to staging"},
		},
		{
			ControlID:            "SC-7",
			ControlName:          "Boundary Protection",
			GapDescription:       "No boundary protection evidence for external connections.",
			RiskLevel:            assess.RiskCritical,
			RiskScore:            90,
			AffectedRequirements: []string{"SC-7a"},
			RecommendedActions:   []string{"Deploy a managed boundary firewall"},
		},
	}

	metrics := assess.MetricsSnapshot{
		SessionID:       "sess-123",
		DurationSeconds: 330,
		Scope:           assess.ScopeMetrics{Baseline: "moderate", Mode: "smart", ControlsInScope: 42},
		Processing: assess.ProcessingMetrics{
			TotalControls:    42,
			Checked:          40,
			Skipped:          2,
			BatchPasses:      4,
			IndividualPasses: 2,
			TokensEstimated:  42000,
		},
		Results: assess.ResultMetrics{GapsFound: 2, CriticalGaps: 1},
	}

	return assessment.Reconstruct(
		"run-1", "sess-123", "Quarterly Review", "test-operator", "smart",
		started, completed, assessment.RunStatusCompleted,
		mappings, gaps,
		assess.PriorityTiers{Critical: []string{"SC-7"}, Standard: []string{"AC-2", "AC-3"}},
		33.3, metrics,
		assessment.Metadata{AuditHash: "abc123def456", HashAlgorithm: "sha256", TotalControls: 3},
	)
}

// newBareReportAssessment reconstructs a completed run without audit metadata,
// for exercising optional-field and empty-result rendering paths.
func newBareReportAssessment(name string, mappings []assess.ControlMapping, gaps []assess.ControlGap, score float64) *assessment.Assessment {
	started := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	metrics := assess.MetricsSnapshot{
		SessionID: "sess-123",
		Scope:     assess.ScopeMetrics{Baseline: "moderate", Mode: "smart", ControlsInScope: len(mappings)},
		Processing: assess.ProcessingMetrics{
			TotalControls: len(mappings),
			Checked:       len(mappings),
		},
		Results: assess.ResultMetrics{GapsFound: len(gaps)},
	}

	return assessment.Reconstruct(
		"run-2", "sess-123", name, "test-operator", "smart",
		started, started, assessment.RunStatusCompleted,
		mappings, gaps,
		assess.PriorityTiers{},
		score, metrics,
		assessment.Metadata{TotalControls: len(mappings)},
	)
}

func TestGenerateJSONReport(t *testing.T) {
	report, err := generateJSONReport(newReportAssessment())
	if err != nil {
		t.Fatalf("Failed to generate JSON report: %v", err)
	}

	// Verify it's valid JSON
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(report), &decoded); err != nil {
		t.Fatalf("Generated report is not valid JSON: %v", err)
	}

	// Verify structure
	if decoded["id"] != "run-1" {
		t.Errorf("Expected id 'run-1', got %v", decoded["id"])
	}

	if decoded["session_id"] != "sess-123" {
		t.Errorf("Expected session_id 'sess-123', got %v", decoded["session_id"])
	}

	if decoded["started_at"] != "2025-01-01T10:00:00Z" {
		t.Errorf("Expected RFC3339 started_at, got %v", decoded["started_at"])
	}

	mappings, ok := decoded["control_mappings"].([]interface{})
	if !ok {
		t.Fatal("Expected 'control_mappings' array in JSON report")
	}
	if len(mappings) != 3 {
		t.Errorf("Expected 3 control mappings, got %d", len(mappings))
	}

	if _, exists := decoded["control_gaps"]; !exists {
		t.Error("Expected 'control_gaps' key in JSON report")
	}

	if _, exists := decoded["metrics"]; !exists {
		t.Error("Expected 'metrics' key in JSON report")
	}

	if score, ok := decoded["overall_compliance_score"].(float64); !ok || score != 33.3 {
		t.Errorf("Expected overall_compliance_score 33.3, got %v", decoded["overall_compliance_score"])
	}

	if decoded["audit_hash"] != "abc123def456" {
		t.Errorf("Expected audit hash in JSON report, got %v", decoded["audit_hash"])
	}
}

func TestGenerateMarkdownReport(t *testing.T) {
	data := buildTemplateData(newReportAssessment(), "%.2f", nil)

	report, err := generateMarkdownReport(data)
	if err != nil {
		t.Fatalf("Failed to generate Markdown report: %v", err)
	}

	// Verify it contains markdown elements
	if !strings.Contains(report, "# Compliance Assessment Report: Quarterly Review") {
		t.Error("Expected H1 header in markdown report")
	}

	if !strings.Contains(report, "## Summary") {
		t.Error("Expected Summary section in markdown report")
	}

	if !strings.Contains(report, "## Findings") {
		t.Error("Expected Findings section in markdown report")
	}

	if !strings.Contains(report, "## Control Mappings") {
		t.Error("Expected Control Mappings section in markdown report")
	}

	// Verify metadata is present
	if !strings.Contains(report, "test-operator") {
		t.Error("Expected operator name in report")
	}

	if !strings.Contains(report, "Audit trail hash (SHA256):") {
		t.Error("Expected audit hash label in report")
	}

	if !strings.Contains(report, "abc123def456") {
		t.Error("Expected audit hash in report")
	}

	// Verify table structure
	if !strings.Contains(report, "| Metric | Value |") {
		t.Error("Expected summary table header in markdown report")
	}

	if !strings.Contains(report, "| AC | Access Control | 2 | 1 | 1 | 0 | 1 | medium |") {
		t.Error("Expected AC family rollup row in markdown report")
	}

	if !strings.Contains(report, "| 1 | AC-2 Account Management | Implemented | 90% | ev-1 |") {
		t.Error("Expected AC-2 mapping row in markdown report")
	}

	// Verify findings ordering and content
	if !strings.Contains(report, "### Critical (1)") {
		t.Error("Expected critical findings section")
	}

	if !strings.Contains(report, "**SC-7 Boundary Protection** (risk score 90):") {
		t.Error("Expected SC-7 gap entry in findings")
	}

	if !strings.Contains(report, "Affected requirements: SC-7a") {
		t.Error("Expected affected requirements line for SC-7")
	}

	if !strings.Contains(report, "Recommended: Deploy a managed boundary firewall") {
		t.Error("Expected recommended actions line for SC-7")
	}

	critIdx := strings.Index(report, "### Critical (1)")
	medIdx := strings.Index(report, "### Medium (1)")
	if medIdx == -1 || critIdx > medIdx {
		t.Error("Expected critical findings to precede medium findings")
	}

	// Verify the blocking-gap banner
	if !strings.Contains(report, "**Attention:** this assessment found critical or high risk gaps.") {
		t.Error("Expected attention banner when critical gaps exist")
	}

	// Verify processing section
	if !strings.Contains(report, "Prioritization tiers: 1 critical / 2 standard / 0 passing") {
		t.Error("Expected prioritization tier summary")
	}
}

func TestGenerateHTMLReport(t *testing.T) {
	data := buildTemplateData(newReportAssessment(), "%.1f", nil)

	report, err := generateHTMLReport(data)
	if err != nil {
		t.Fatalf("Failed to generate HTML report: %v", err)
	}

	// Verify HTML structure
	if !strings.Contains(report, "<!DOCTYPE html>") {
		t.Error("Expected HTML5 DOCTYPE")
	}

	if !strings.Contains(report, "<html") {
		t.Error("Expected HTML tag")
	}

	if !strings.Contains(report, "<head>") {
		t.Error("Expected HEAD tag")
	}

	if !strings.Contains(report, "<body>") {
		t.Error("Expected BODY tag")
	}

	if !strings.Contains(report, "</html>") {
		t.Error("Expected closing HTML tag")
	}

	// Verify CSS is included
	if !strings.Contains(report, "<style>") {
		t.Error("Expected CSS styles in HTML report")
	}

	// Verify title
	if !strings.Contains(report, "<title>Assessment Report: Quarterly Review</title>") {
		t.Error("Expected title tag with session name")
	}

	if !strings.Contains(report, "<h1>Compliance Assessment Report: Quarterly Review</h1>") {
		t.Error("Expected H1 header with session name")
	}

	// Verify metadata is present
	if !strings.Contains(report, "test-operator") {
		t.Error("Expected operator name in HTML report")
	}

	if !strings.Contains(report, `<span class="hash">abc123def456</span>`) {
		t.Error("Expected audit hash in HTML report")
	}

	// Verify table structure
	if !strings.Contains(report, "<table>") {
		t.Error("Expected table in HTML report")
	}

	if !strings.Contains(report, "<th>Family</th>") {
		t.Error("Expected family table header in HTML report")
	}

	if !strings.Contains(report, "Boundary Protection") {
		t.Error("Expected control name in HTML report")
	}

	// Verify summary cards
	if !strings.Contains(report, "Compliance Score") {
		t.Error("Expected compliance score card in HTML report")
	}

	if !strings.Contains(report, "Gaps (1 critical)") {
		t.Error("Expected gaps card in HTML report")
	}

	// Verify badge and status classes
	if !strings.Contains(report, `<span class="badge badge-critical">critical</span>`) {
		t.Error("Expected critical badge for SC-7 gap")
	}

	if !strings.Contains(report, "status-implemented") {
		t.Error("Expected status-implemented class for AC-2")
	}

	if !strings.Contains(report, "status-partial") {
		t.Error("Expected status-partial class for AC-3")
	}

	if !strings.Contains(report, "status-missing") {
		t.Error("Expected status-missing class for SC-7")
	}
}

func TestGenerateMarkdownReport_EmptyResults(t *testing.T) {
	asmt := newBareReportAssessment("Empty Test", nil, nil, 0)
	data := buildTemplateData(asmt, "%.2f", nil)

	report, err := generateMarkdownReport(data)
	if err != nil {
		t.Fatalf("Failed to generate markdown report for empty results: %v", err)
	}

	if report == "" {
		t.Error("Expected non-empty report even with no results")
	}

	if !strings.Contains(report, "Empty Test") {
		t.Error("Expected session name in report")
	}

	if !strings.Contains(report, "No gaps were identified in the assessed scope.") {
		t.Error("Expected empty findings message")
	}

	if strings.Contains(report, "Audit trail hash") {
		t.Error("Expected audit hash line to be omitted without a hash")
	}
}

func TestGenerateHTMLReport_EmptyResults(t *testing.T) {
	asmt := newBareReportAssessment("Empty Test", nil, nil, 0)
	data := buildTemplateData(asmt, "%.1f", nil)

	report, err := generateHTMLReport(data)
	if err != nil {
		t.Fatalf("Failed to generate HTML report for empty results: %v", err)
	}

	if report == "" {
		t.Error("Expected non-empty report even with no results")
	}

	if !strings.Contains(report, "Empty Test") {
		t.Error("Expected session name in report")
	}

	if !strings.Contains(report, "<!DOCTYPE html>") {
		t.Error("Expected valid HTML structure")
	}

	if !strings.Contains(report, `<p class="muted">No gaps were identified in the assessed scope.</p>`) {
		t.Error("Expected empty gaps message in HTML report")
	}
}

func TestGenerateMarkdownReport_SummaryStatistics(t *testing.T) {
	data := buildTemplateData(newReportAssessment(), "%.2f", nil)

	report, err := generateMarkdownReport(data)
	if err != nil {
		t.Fatalf("Failed to generate markdown report: %v", err)
	}

	// 3 mappings: 1 implemented, 1 partial, 1 missing; 2 gaps with 1 critical.
	if !strings.Contains(report, "| Compliance score | 33.30% |") {
		t.Error("Expected two-decimal compliance score")
	}

	if !strings.Contains(report, "| Controls in scope | 42 |") {
		t.Error("Expected controls in scope count")
	}

	if !strings.Contains(report, "| Mapped controls | 3 |") {
		t.Error("Expected mapped control count")
	}

	if !strings.Contains(report, "| Implemented | 1 |") {
		t.Error("Expected implemented count")
	}

	if !strings.Contains(report, "| Partially implemented | 1 |") {
		t.Error("Expected partially implemented count")
	}

	if !strings.Contains(report, "| Not implemented | 1 |") {
		t.Error("Expected not implemented count")
	}

	if !strings.Contains(report, "| Gaps identified | 2 (1 critical) |") {
		t.Error("Expected gap counts")
	}

	if !strings.Contains(report, "| Estimated tokens | 42000 |") {
		t.Error("Expected token estimate")
	}
}

func TestGenerateHTMLReport_SummaryStatistics(t *testing.T) {
	data := buildTemplateData(newReportAssessment(), "%.1f", nil)

	report, err := generateHTMLReport(data)
	if err != nil {
		t.Fatalf("Failed to generate HTML report: %v", err)
	}

	if !strings.Contains(report, `<div class="value">33.3%</div>`) {
		t.Error("Expected one-decimal compliance score card")
	}

	if !strings.Contains(report, `<div class="value">42</div>`) {
		t.Error("Expected controls-in-scope card")
	}

	if !strings.Contains(report, `<div class="value">3</div>`) {
		t.Error("Expected mapped controls card")
	}

	if !strings.Contains(report, `<div class="value">2</div>`) {
		t.Error("Expected gap count card")
	}
}

func TestGenerateMarkdownReport_DurationCalculation(t *testing.T) {
	data := buildTemplateData(newReportAssessment(), "%.2f", nil)

	report, err := generateMarkdownReport(data)
	if err != nil {
		t.Fatalf("Failed to generate markdown report: %v", err)
	}

	// 330 recorded seconds renders as minutes
	if !strings.Contains(report, "**Duration:** 5.5 min") {
		t.Error("Expected duration to be calculated and displayed")
	}

	if !strings.Contains(report, "**Started:** 2025-01-01T10:00:00Z") {
		t.Error("Expected RFC3339 start timestamp")
	}

	if !strings.Contains(report, "**Completed:** 2025-01-01T10:05:30Z") {
		t.Error("Expected RFC3339 completion timestamp")
	}
}

func TestGenerateHTMLReport_SpecialCharactersEscaping(t *testing.T) {
	mappings := []assess.ControlMapping{
		{
			ControlID:            "AC-2",
			ControlName:          "Account Management",
			ControlFamily:        "AC",
			ImplementationStatus: assess.StatusImplemented,
			ConfidenceScore:      0.8,
		},
	}
	asmt := newBareReportAssessment("Networks & Platforms <Q3>", mappings, nil, 100)
	data := buildTemplateData(asmt, "%.1f", nil)

	report, err := generateHTMLReport(data)
	if err != nil {
		t.Fatalf("Failed to generate HTML report: %v", err)
	}

	// html/template escapes injected values
	if !strings.Contains(report, "Networks &amp; Platforms &lt;Q3&gt;") {
		t.Error("Expected session name to be HTML-escaped")
	}

	if strings.Contains(report, "<Q3>") {
		t.Error("Expected raw angle brackets to be escaped")
	}
}

func TestGenerateMarkdownReport_OptionalFields(t *testing.T) {
	mappings := []assess.ControlMapping{
		{
			ControlID:            "AC-2",
			ControlName:          "Account Management",
			ControlFamily:        "AC",
			ImplementationStatus: assess.StatusImplemented,
			ConfidenceScore:      1,
		},
	}
	asmt := newBareReportAssessment("Optional Fields Test", mappings, nil, 100)
	data := buildTemplateData(asmt, "%.2f", nil)

	report, err := generateMarkdownReport(data)
	if err != nil {
		t.Fatalf("Failed to generate markdown report: %v", err)
	}

	// No hash recorded, so the audit line is omitted entirely
	if strings.Contains(report, "Audit trail hash") {
		t.Error("Expected audit hash line to be omitted")
	}

	// Families without gaps show a dash for worst risk
	if !strings.Contains(report, "| AC | Access Control | 1 | 1 | 0 | 0 | 0 | - |") {
		t.Error("Expected dash placeholder for family without gaps")
	}

	if strings.Contains(report, "**Attention:**") {
		t.Error("Expected no attention banner without blocking gaps")
	}
}

func TestGenerateMarkdownReport_TrendSection(t *testing.T) {
	trends := []telemetryRecord{
		{
			Timestamp:       time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
			Command:         "assess run",
			SessionID:       "sess-123",
			ComplianceScore: 40,
			DurationSeconds: 100,
		},
		{
			Timestamp:       time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC),
			Command:         "assess run",
			SessionID:       "sess-123",
			ComplianceScore: 60,
			DurationSeconds: 200,
		},
	}
	data := buildTemplateData(newReportAssessment(), "%.2f", trends)

	report, err := generateMarkdownReport(data)
	if err != nil {
		t.Fatalf("Failed to generate markdown report: %v", err)
	}

	if !strings.Contains(report, "## Trend") {
		t.Error("Expected trend section when history exists")
	}

	if !strings.Contains(report, "Average score 50.0% across 2 recorded runs") {
		t.Error("Expected averaged trend summary")
	}

	if !strings.Contains(report, "| Jan 01 09:00 | 40.0% | 1.7 min |") {
		t.Error("Expected first trend row")
	}

	// Without history the section is omitted
	bare, err := generateMarkdownReport(buildTemplateData(newReportAssessment(), "%.2f", nil))
	if err != nil {
		t.Fatalf("Failed to generate markdown report: %v", err)
	}
	if strings.Contains(bare, "## Trend") {
		t.Error("Expected no trend section without history")
	}
}

func TestGeneratePDFReportBytes(t *testing.T) {
	data := buildTemplateData(newReportAssessment(), "%.1f", nil)

	pdfBytes, err := generatePDFReportBytes(data)
	if err != nil {
		t.Fatalf("Failed to generate PDF report: %v", err)
	}

	if len(pdfBytes) == 0 {
		t.Fatal("Expected non-empty PDF output")
	}

	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Errorf("Expected PDF header, got %q", pdfBytes[:8])
	}
}

func TestSummarizeReportStats_EmptyResults(t *testing.T) {
	asmt := newBareReportAssessment("Empty Test", nil, nil, 0)

	summary := summarizeReportStats(asmt)

	if summary.Mapped != 0 || summary.Implemented != 0 || summary.Partial != 0 || summary.Missing != 0 || summary.Gaps != 0 {
		t.Errorf("Expected all zeros for empty results, got %+v", summary)
	}

	if len(summary.Families) != 0 {
		t.Errorf("Expected no family rollups, got %d", len(summary.Families))
	}
}

func TestSummarizeReportStats_AllImplemented(t *testing.T) {
	mappings := []assess.ControlMapping{
		{ControlID: "AC-2", ControlFamily: "AC", ImplementationStatus: assess.StatusImplemented},
		{ControlID: "AC-3", ControlFamily: "AC", ImplementationStatus: assess.StatusImplemented},
		{ControlID: "SC-7", ControlFamily: "SC", ImplementationStatus: assess.StatusImplemented},
	}
	asmt := newBareReportAssessment("All Implemented", mappings, nil, 100)

	summary := summarizeReportStats(asmt)

	if summary.Implemented != 3 {
		t.Errorf("Expected 3 implemented, got %d", summary.Implemented)
	}

	if summary.Partial != 0 || summary.Missing != 0 || summary.Gaps != 0 {
		t.Errorf("Expected no partial, missing, or gaps, got %+v", summary)
	}
}

func TestSummarizeReportStats_AllMissing(t *testing.T) {
	mappings := []assess.ControlMapping{
		{ControlID: "AC-2", ControlFamily: "AC", ImplementationStatus: assess.StatusNotImplemented},
		{ControlID: "AC-3", ControlFamily: "AC", ImplementationStatus: assess.StatusNotImplemented},
		{ControlID: "SC-7", ControlFamily: "SC", ImplementationStatus: assess.StatusNotImplemented},
	}
	asmt := newBareReportAssessment("All Missing", mappings, nil, 0)

	summary := summarizeReportStats(asmt)

	if summary.Missing != 3 {
		t.Errorf("Expected 3 missing, got %d", summary.Missing)
	}

	if summary.Implemented != 0 {
		t.Errorf("Expected 0 implemented, got %d", summary.Implemented)
	}
}

func TestTemplateData_Structure(t *testing.T) {
	// Verify TemplateData has all required fields
	data := TemplateData{
		SessionID:        "sess-123",
		SessionName:      "Structure Test",
		Operator:         "test-operator",
		Baseline:         "moderate",
		Mode:             "smart",
		Status:           "completed",
		GeneratedAt:      "2025-01-01T00:00:00Z",
		StartedAt:        "2025-01-01T00:00:00Z",
		CompletedAt:      "2025-01-01T00:05:00Z",
		Duration:         "5.0 min",
		ComplianceScore:  "83.3",
		ControlsInScope:  42,
		MappedCount:      12,
		ImplementedCount: 10,
		GapCount:         2,
		FooterDate:       "2025-01-01 00:00:00",
	}

	if data.SessionID != "sess-123" {
		t.Error("TemplateData.SessionID should be accessible")
	}

	if data.ControlsInScope != 42 {
		t.Error("TemplateData.ControlsInScope should be accessible")
	}

	if data.ImplementedCount != 10 {
		t.Error("TemplateData.ImplementedCount should be accessible")
	}

	if data.ComplianceScore != "83.3" {
		t.Error("TemplateData.ComplianceScore should be accessible")
	}
}
