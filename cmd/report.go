package cmd

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/spf13/cobra"

	"github.com/nca-tools/nca-cli/internal/assess"
	"github.com/nca-tools/nca-cli/internal/catalog"
	"github.com/nca-tools/nca-cli/internal/domain/assessment"
	consts "github.com/nca-tools/nca-cli/internal/shared/constants"
	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

const (
	htmlTemplatePath     = "templates/report.html"
	markdownTemplatePath = "templates/report.md"
)

//go:embed templates/report.html templates/report.md
var reportTemplateFS embed.FS

var (
	htmlTemplateFuncs = template.FuncMap{
		"add":            addInts,
		"join":           strings.Join,
		"formatTime":     formatShortTimestamp,
		"formatDuration": formatDurationLabel,
		"formatScore":    formatScoreLabel,
		"confidencePct":  formatConfidencePercent,
		"lower":          strings.ToLower,
		"riskBadgeClass": riskBadgeClass,
		"statusClass":    implementationStatusClass,
		"statusLabel":    implementationStatusLabel,
	}

	markdownTemplateFuncs = template.FuncMap{
		"add":             addInts,
		"join":            strings.Join,
		"formatTime":      formatShortTimestamp,
		"formatDuration":  formatDurationLabel,
		"formatScore":     formatScoreLabel,
		"confidencePct":   formatConfidencePercent,
		"statusLabel":     implementationStatusLabel,
		"gapsAtLevel":     gapsAtLevel,
		"hasBlockingGaps": hasBlockingGaps,
	}

	htmlReportTemplate = template.Must(
		template.New("report.html").Funcs(htmlTemplateFuncs).ParseFS(reportTemplateFS, htmlTemplatePath),
	)
	markdownReportTemplate = template.Must(
		template.New("report.md").Funcs(markdownTemplateFuncs).ParseFS(reportTemplateFS, markdownTemplatePath),
	)
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate assessment reports (markdown, HTML, PDF)",
}

var reportGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate report for a session's assessment results",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		// Get application context
		appCtx := getAppContext(cmd)

		sessionID, _ := cmd.Flags().GetString("session")
		format, _ := cmd.Flags().GetString("format")

		if sessionID == "" {
			return fmt.Errorf("--session is required")
		}
		if err := validateSessionID(sessionID); err != nil {
			return err
		}

		// Validate format
		format = strings.ToLower(format)
		if format != "json" && format != "md" && format != "html" && format != "pdf" {
			return fmt.Errorf("invalid format: %s (must be json, md, html, or pdf)", format)
		}

		asmt, err := loadSessionAssessment(ctx, appCtx, sessionID)
		if err != nil {
			return err
		}

		// Generate report based on format
		var reportContent string
		var filename string

		trendHistory, histErr := loadTelemetryHistory(appCtx.ResultsDir, sessionID, 8)
		if histErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to load telemetry history: %v\n", histErr)
		}

		switch format {
		case "json":
			reportContent, err = generateJSONReport(asmt)
			filename = "report.json"
		case "md":
			data := buildTemplateData(asmt, "%.2f", trendHistory)
			reportContent, err = generateMarkdownReport(data)
			filename = "report.md"
		case "html":
			data := buildTemplateData(asmt, "%.1f", trendHistory)
			reportContent, err = generateHTMLReport(data)
			filename = "report.html"
		case "pdf":
			data := buildTemplateData(asmt, "%.1f", trendHistory)
			pdfBytes, perr := generatePDFReportBytes(data)
			if perr != nil {
				return fmt.Errorf("failed to generate PDF report: %w", perr)
			}
			filename = "report.pdf"
			reportPath, err := resolveResultsPath(appCtx.ResultsDir, sessionID, filename)
			if err != nil {
				return fmt.Errorf("resolve report path: %w", err)
			}
			if err := os.WriteFile(reportPath, pdfBytes, consts.DefaultFilePerm); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			printReportFooter(reportPath, format, asmt)
			return nil
		}

		if err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}

		// Write report to file
		reportPath, err := resolveResultsPath(appCtx.ResultsDir, sessionID, filename)
		if err != nil {
			return fmt.Errorf("resolve report path: %w", err)
		}
		if err := os.WriteFile(reportPath, []byte(reportContent), consts.DefaultFilePerm); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}

		printReportFooter(reportPath, format, asmt)

		return nil
	},
}

func printReportFooter(reportPath, format string, asmt *assessment.Assessment) {
	fmt.Printf("Report generated: %s\n", reportPath)
	fmt.Printf("Format: %s\n", format)
	fmt.Printf("Controls in scope: %d\n", asmt.Metrics().Scope.ControlsInScope)
	fmt.Printf("Gaps found: %d\n", len(asmt.Gaps()))
}

// loadSessionAssessment fetches the most recent assessment recorded for the
// session.
func loadSessionAssessment(ctx context.Context, appCtx *AppContext, sessionID string) (*assessment.Assessment, error) {
	assessments, err := appCtx.Services.Orchestrator.GetAssessmentsBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load assessment results: %w", err)
	}
	if len(assessments) == 0 {
		return nil, fmt.Errorf("no assessment results for session %s: %w", sessionID, sharedErrors.ErrAssessmentNotFound)
	}

	latest := assessments[0]
	for _, candidate := range assessments[1:] {
		if candidate.StartedAt().After(latest.StartedAt()) {
			latest = candidate
		}
	}
	return latest, nil
}

// assessmentReportDTO is the JSON report shape. It mirrors the persisted
// results file so both artifacts stay diffable.
type assessmentReportDTO struct {
	ID              string                  `json:"id"`
	SessionID       string                  `json:"session_id"`
	SessionName     string                  `json:"session_name"`
	Operator        string                  `json:"operator"`
	Mode            string                  `json:"mode"`
	StartedAt       string                  `json:"started_at,omitempty"`
	CompletedAt     string                  `json:"completed_at,omitempty"`
	Status          string                  `json:"status"`
	Mappings        []assess.ControlMapping `json:"control_mappings"`
	Gaps            []assess.ControlGap     `json:"control_gaps"`
	Tiers           assess.PriorityTiers    `json:"prioritization"`
	ComplianceScore float64                 `json:"overall_compliance_score"`
	Metrics         assess.MetricsSnapshot  `json:"metrics"`
	AuditHash       string                  `json:"audit_hash,omitempty"`
	HashAlgorithm   string                  `json:"hash_algorithm,omitempty"`
}

func assessmentToReportDTO(asmt *assessment.Assessment) assessmentReportDTO {
	meta := asmt.Metadata()
	dto := assessmentReportDTO{
		ID:              asmt.ID(),
		SessionID:       asmt.SessionID(),
		SessionName:     asmt.SessionName(),
		Operator:        asmt.Operator(),
		Mode:            asmt.Mode(),
		Status:          string(asmt.Status()),
		Mappings:        asmt.Mappings(),
		Gaps:            asmt.Gaps(),
		Tiers:           asmt.Tiers(),
		ComplianceScore: asmt.ComplianceScore(),
		Metrics:         asmt.Metrics(),
		AuditHash:       meta.AuditHash,
		HashAlgorithm:   meta.HashAlgorithm,
	}
	if !asmt.StartedAt().IsZero() {
		dto.StartedAt = asmt.StartedAt().Format(time.RFC3339)
	}
	if !asmt.CompletedAt().IsZero() {
		dto.CompletedAt = asmt.CompletedAt().Format(time.RFC3339)
	}
	return dto
}

func generateJSONReport(asmt *assessment.Assessment) (string, error) {
	data, err := json.MarshalIndent(assessmentToReportDTO(asmt), jsonPrefix, jsonIndent)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func generateMarkdownReport(data TemplateData) (string, error) {
	return executeTemplate(markdownReportTemplate, data)
}

func generateHTMLReport(data TemplateData) (string, error) {
	return executeTemplate(htmlReportTemplate, data)
}

// TemplateData holds the data for HTML/PDF/Markdown template rendering
type TemplateData struct {
	SessionID       string
	SessionName     string
	Operator        string
	Baseline        string
	Mode            string
	Status          string
	Mappings        []assess.ControlMapping
	Gaps            []assess.ControlGap
	Tiers           assess.PriorityTiers
	Metrics         assess.MetricsSnapshot
	Families        []FamilyRollup
	GeneratedAt     string
	StartedAt       string
	CompletedAt     string
	Duration        string
	ComplianceScore string

	ControlsInScope  int
	CheckedCount     int
	SkippedCount     int
	MappedCount      int
	ImplementedCount int
	PartialCount     int
	MissingCount     int
	GapCount         int
	CriticalGapCount int
	TokensEstimated  int

	AuditHash          string
	HashAlgorithmLabel string
	FooterDate         string
	TrendHistory       []telemetryRecord
	TrendSummary       TrendSummary
}

// FamilyRollup aggregates mapping and gap outcomes for one control family.
type FamilyRollup struct {
	Code        string `json:"family"`
	Name        string `json:"name"`
	Mapped      int    `json:"mapped"`
	Implemented int    `json:"implemented"`
	Partial     int    `json:"partially_implemented"`
	Missing     int    `json:"not_implemented"`
	Gaps        int    `json:"gaps"`
	WorstRisk   string `json:"worst_risk,omitempty"`
}

type TrendSummary struct {
	AverageScore    float64
	AverageDuration float64
}

func buildTemplateData(asmt *assessment.Assessment, scoreFmt string, trends []telemetryRecord) TemplateData {
	metrics := asmt.Metrics()
	meta := asmt.Metadata()
	mappings := asmt.Mappings()
	gaps := sortGapsBySeverity(asmt.Gaps())

	implemented, partial, missing := summarizeImplementation(mappings)

	now := time.Now()
	startedAt := ""
	if !asmt.StartedAt().IsZero() {
		startedAt = asmt.StartedAt().Format(time.RFC3339)
	}
	completedAt := ""
	if !asmt.CompletedAt().IsZero() {
		completedAt = asmt.CompletedAt().Format(time.RFC3339)
	}

	return TemplateData{
		SessionID:        asmt.SessionID(),
		SessionName:      asmt.SessionName(),
		Operator:         asmt.Operator(),
		Baseline:         metrics.Scope.Baseline,
		Mode:             asmt.Mode(),
		Status:           string(asmt.Status()),
		Mappings:         mappings,
		Gaps:             gaps,
		Tiers:            asmt.Tiers(),
		Metrics:          metrics,
		Families:         rollupFamilies(mappings, gaps),
		GeneratedAt:      now.Format(time.RFC3339),
		StartedAt:        startedAt,
		CompletedAt:      completedAt,
		Duration:         formatDurationLabel(metrics.DurationSeconds),
		ComplianceScore:  fmt.Sprintf(scoreFmt, asmt.ComplianceScore()),
		ControlsInScope:  metrics.Scope.ControlsInScope,
		CheckedCount:     metrics.Processing.Checked,
		SkippedCount:     metrics.Processing.Skipped,
		MappedCount:      len(mappings),
		ImplementedCount: implemented,
		PartialCount:     partial,
		MissingCount:     missing,
		GapCount:         len(gaps),
		CriticalGapCount: metrics.Results.CriticalGaps,
		TokensEstimated:  metrics.Processing.TokensEstimated,

		AuditHash:          meta.AuditHash,
		HashAlgorithmLabel: strings.ToUpper(meta.HashAlgorithm),
		FooterDate:         now.Format("2006-01-02 15:04:05"),
		TrendHistory:       trends,
		TrendSummary:       summarizeTrendHistory(trends),
	}
}

func sortGapsBySeverity(gaps []assess.ControlGap) []assess.ControlGap {
	sorted := append([]assess.ControlGap(nil), gaps...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].RiskLevel.Rank() != sorted[j].RiskLevel.Rank() {
			return sorted[i].RiskLevel.Rank() > sorted[j].RiskLevel.Rank()
		}
		if sorted[i].RiskScore != sorted[j].RiskScore {
			return sorted[i].RiskScore > sorted[j].RiskScore
		}
		return sorted[i].ControlID < sorted[j].ControlID
	})
	return sorted
}

func summarizeImplementation(mappings []assess.ControlMapping) (implemented, partial, missing int) {
	for _, m := range mappings {
		switch m.ImplementationStatus {
		case assess.StatusImplemented:
			implemented++
		case assess.StatusPartiallyImplemented:
			partial++
		default:
			missing++
		}
	}
	return implemented, partial, missing
}

func rollupFamilies(mappings []assess.ControlMapping, gaps []assess.ControlGap) []FamilyRollup {
	byCode := make(map[string]*FamilyRollup)

	rollupFor := func(code string) *FamilyRollup {
		if r, ok := byCode[code]; ok {
			return r
		}
		r := &FamilyRollup{Code: code}
		if fam := catalog.FamilyByCode(code); fam != nil {
			r.Name = fam.Name
		}
		byCode[code] = r
		return r
	}

	for _, m := range mappings {
		code := m.ControlFamily
		if code == "" {
			code = catalog.FamilyOf(m.ControlID)
		}
		r := rollupFor(code)
		r.Mapped++
		switch m.ImplementationStatus {
		case assess.StatusImplemented:
			r.Implemented++
		case assess.StatusPartiallyImplemented:
			r.Partial++
		default:
			r.Missing++
		}
	}

	worst := make(map[string]assess.RiskLevel)
	for _, g := range gaps {
		code := catalog.FamilyOf(g.ControlID)
		r := rollupFor(code)
		r.Gaps++
		if current, ok := worst[code]; !ok || g.RiskLevel.Rank() > current.Rank() {
			worst[code] = g.RiskLevel
		}
	}
	for code, level := range worst {
		byCode[code].WorstRisk = level.String()
	}

	families := make([]FamilyRollup, 0, len(byCode))
	for _, r := range byCode {
		families = append(families, *r)
	}
	sort.Slice(families, func(i, j int) bool { return families[i].Code < families[j].Code })
	return families
}

func summarizeTrendHistory(trends []telemetryRecord) TrendSummary {
	if len(trends) == 0 {
		return TrendSummary{}
	}
	sumScore := 0.0
	sumDuration := 0.0
	for _, rec := range trends {
		sumScore += rec.ComplianceScore
		sumDuration += rec.DurationSeconds
	}
	count := float64(len(trends))
	return TrendSummary{
		AverageScore:    sumScore / count,
		AverageDuration: sumDuration / count,
	}
}

func addInts(a, b int) int {
	return a + b
}

func formatShortTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 02 15:04")
}

func formatDurationLabel(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	min := seconds / 60
	return fmt.Sprintf("%.1f min", min)
}

func formatScoreLabel(score float64) string {
	return fmt.Sprintf("%.1f%%", score)
}

func formatConfidencePercent(confidence float64) string {
	return fmt.Sprintf("%.0f%%", confidence*100)
}

func riskBadgeClass(risk string) string {
	switch strings.ToLower(strings.TrimSpace(risk)) {
	case "critical":
		return "badge-critical"
	case "high":
		return "badge-high"
	case "medium":
		return "badge-medium"
	case "low":
		return "badge-low"
	default:
		return "badge-info"
	}
}

func implementationStatusClass(status assess.ImplementationStatus) string {
	switch status {
	case assess.StatusImplemented:
		return "status-implemented"
	case assess.StatusPartiallyImplemented:
		return "status-partial"
	default:
		return "status-missing"
	}
}

func implementationStatusLabel(status assess.ImplementationStatus) string {
	switch status {
	case assess.StatusImplemented:
		return "Implemented"
	case assess.StatusPartiallyImplemented:
		return "Partially Implemented"
	case assess.StatusNotImplemented:
		return "Not Implemented"
	default:
		return string(status)
	}
}

func gapsAtLevel(gaps []assess.ControlGap, level string) []assess.ControlGap {
	var filtered []assess.ControlGap
	for _, g := range gaps {
		if strings.EqualFold(g.RiskLevel.String(), level) {
			filtered = append(filtered, g)
		}
	}
	return filtered
}

func hasBlockingGaps(gaps []assess.ControlGap) bool {
	for _, g := range gaps {
		if g.RiskLevel == assess.RiskCritical || g.RiskLevel == assess.RiskHigh {
			return true
		}
	}
	return false
}

func executeTemplate(tmpl *template.Template, data TemplateData) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func generatePDFReportBytes(data TemplateData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("Assessment Report: %s", data.SessionName), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Metadata section
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Session ID: %s", data.SessionID), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Operator: %s", data.Operator), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Baseline: %s | Mode: %s", data.Baseline, data.Mode), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Started: %s", data.StartedAt), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Completed: %s", data.CompletedAt), "", 1, "", false, 0, "")
	if data.AuditHash != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Audit trail hash (%s): %s", data.HashAlgorithmLabel, data.AuditHash), "", 1, "", false, 0, "")
	}
	pdf.Ln(5)

	// Summary section
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Summary", "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Compliance Score: %s%% | Mapped: %d | Gaps: %d (%d critical)",
		data.ComplianceScore, data.MappedCount, data.GapCount, data.CriticalGapCount), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Controls in scope: %d | Checked: %d | Skipped: %d",
		data.ControlsInScope, data.CheckedCount, data.SkippedCount), "", 1, "", false, 0, "")
	pdf.Ln(5)

	// Family rollup
	if len(data.Families) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Control Families", "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, fam := range data.Families {
			line := fmt.Sprintf("%s %s: %d mapped, %d gaps", fam.Code, fam.Name, fam.Mapped, fam.Gaps)
			if fam.WorstRisk != "" {
				line += fmt.Sprintf(" (worst risk: %s)", fam.WorstRisk)
			}
			pdf.MultiCell(0, 5, line, "", "", false)
		}
		pdf.Ln(3)
	}

	// Trend Analysis section (if available)
	if len(data.TrendHistory) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Trend Analysis", "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("Average Score: %.1f%%", data.TrendSummary.AverageScore), "", 1, "", false, 0, "")
		pdf.CellFormat(0, 6, fmt.Sprintf("Average Duration: %s", formatDurationLabel(data.TrendSummary.AverageDuration)), "", 1, "", false, 0, "")
		pdf.Ln(3)

		for _, rec := range data.TrendHistory {
			pdf.CellFormat(0, 6, fmt.Sprintf("  %s -> %s score, %s",
				formatShortTimestamp(rec.Timestamp),
				formatScoreLabel(rec.ComplianceScore),
				formatDurationLabel(rec.DurationSeconds)), "", 1, "", false, 0, "")
		}
		pdf.Ln(5)
	}

	// Findings section per mapped control
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Control Findings", "", 1, "", false, 0, "")
	pdf.Ln(2)

	gapsByControl := make(map[string]assess.ControlGap, len(data.Gaps))
	for _, g := range data.Gaps {
		gapsByControl[g.ControlID] = g
	}

	maxResults := 50
	for i, m := range data.Mappings {
		if i == maxResults {
			pdf.SetFont("Arial", "I", 9)
			pdf.CellFormat(0, 6, fmt.Sprintf("... %d additional controls omitted ...", len(data.Mappings)-maxResults), "", 1, "", false, 0, "")
			break
		}

		// Check if we need a new page before adding content
		if pdf.GetY() > 250 {
			pdf.AddPage()
		}

		status := strings.ToUpper(implementationStatusLabel(m.ImplementationStatus))

		// Control header with status
		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(0, 7, fmt.Sprintf("%s %s - %s", m.ControlID, m.ControlName, status), "", 1, "", true, 0, "")
		pdf.Ln(1)

		// Basic information
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 5, fmt.Sprintf("Confidence: %s | Evidence items: %d",
			formatConfidencePercent(m.ConfidenceScore), len(m.EvidenceIDs)), "", 1, "", false, 0, "")

		if m.ImplementationDescription != "" {
			pdf.MultiCell(0, 4, m.ImplementationDescription, "", "", false)
		}

		if gap, found := gapsByControl[m.ControlID]; found {
			pdf.SetFont("Arial", "B", 9)
			pdf.CellFormat(0, 5, fmt.Sprintf("Gap (%s, risk score %d):", gap.RiskLevel, gap.RiskScore), "", 1, "", false, 0, "")
			pdf.SetFont("Arial", "", 8)
			pdf.MultiCell(0, 4, fmt.Sprintf("  %s", gap.GapDescription), "", "", false)

			if len(gap.AffectedRequirements) > 0 {
				pdf.CellFormat(0, 4, fmt.Sprintf("  Affected requirements: %s", strings.Join(gap.AffectedRequirements, ", ")), "", 1, "", false, 0, "")
			}

			if len(gap.RecommendedActions) > 0 {
				pdf.SetFont("Arial", "I", 8)
				for _, action := range gap.RecommendedActions {
					if pdf.GetY() > 270 {
						pdf.AddPage()
					}
					pdf.MultiCell(0, 4, fmt.Sprintf("  - %s", action), "", "", false)
				}
			}
		}

		pdf.Ln(3) // Gap between controls
	}

	// Generate PDF bytes
	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

type reportStatsSummary struct {
	SessionID   string         `json:"session_id"`
	Score       float64        `json:"overall_compliance_score"`
	Controls    int            `json:"controls_in_scope"`
	Mapped      int            `json:"mapped"`
	Implemented int            `json:"implemented"`
	Partial     int            `json:"partially_implemented"`
	Missing     int            `json:"not_implemented"`
	Gaps        int            `json:"gaps"`
	Critical    int            `json:"critical_gaps"`
	Families    []FamilyRollup `json:"families"`
}

func summarizeReportStats(asmt *assessment.Assessment) reportStatsSummary {
	mappings := asmt.Mappings()
	gaps := asmt.Gaps()
	implemented, partial, missing := summarizeImplementation(mappings)

	return reportStatsSummary{
		SessionID:   asmt.SessionID(),
		Score:       asmt.ComplianceScore(),
		Controls:    asmt.Metrics().Scope.ControlsInScope,
		Mapped:      len(mappings),
		Implemented: implemented,
		Partial:     partial,
		Missing:     missing,
		Gaps:        len(gaps),
		Critical:    asmt.Metrics().Results.CriticalGaps,
		Families:    rollupFamilies(mappings, gaps),
	}
}

func printStatsText(summary reportStatsSummary) {
	fmt.Println(colorInfo("Summary"))
	fmt.Printf("Score: %s | Mapped: %d | Implemented: %s | Partial: %s | Missing: %s | Gaps: %s\n",
		formatScoreLabel(summary.Score),
		summary.Mapped,
		colorSuccess(fmt.Sprintf("%d", summary.Implemented)),
		colorWarn(fmt.Sprintf("%d", summary.Partial)),
		colorError(fmt.Sprintf("%d", summary.Missing)),
		colorError(fmt.Sprintf("%d", summary.Gaps)),
	)
}

func printStatsTable(summary reportStatsSummary) {
	if len(summary.Families) == 0 {
		fmt.Println(colorWarn("No mapped controls found in results."))
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FAMILY\tNAME\tMAPPED\tIMPL\tPARTIAL\tMISSING\tGAPS\tWORST RISK")
	for _, fam := range summary.Families {
		worst := fam.WorstRisk
		if worst == "" {
			worst = "-"
		} else {
			worst = formatRiskWithColor(worst)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			fam.Code, fam.Name, fam.Mapped, fam.Implemented, fam.Partial, fam.Missing, fam.Gaps, worst)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to flush stats table: %v\n", err)
	}
}

func printTelemetryASCII(records []telemetryRecord) {
	const barWidth = 40
	fmt.Println(colorInfo("Telemetry Compliance Score Trend"))
	for _, rec := range records {
		barLen := int(math.Round((rec.ComplianceScore / 100.0) * barWidth))
		if barLen < 0 {
			barLen = 0
		}
		if barLen > barWidth {
			barLen = barWidth
		}
		if barLen == 0 && rec.ComplianceScore > 0 {
			barLen = 1
		}
		bar := strings.Repeat("#", barLen)
		fmt.Printf("%s | %6.2f%% | %-*s | %s (%d controls)\n",
			rec.Timestamp.Format("2006-01-02 15:04"),
			rec.ComplianceScore,
			barWidth,
			bar,
			rec.Command,
			rec.ControlCount,
		)
	}
}

var reportStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show analytics summary for a session's assessment",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		appCtx := getAppContext(cmd)

		sessionID, _ := cmd.Flags().GetString("session")
		format, _ := cmd.Flags().GetString("format")
		format = strings.ToLower(strings.TrimSpace(format))
		if format == "" {
			format = "text"
		}

		if sessionID == "" {
			return fmt.Errorf("--session is required")
		}
		if err := validateSessionID(sessionID); err != nil {
			return err
		}

		asmt, err := loadSessionAssessment(ctx, appCtx, sessionID)
		if err != nil {
			return err
		}

		summary := summarizeReportStats(asmt)

		switch format {
		case "json":
			payload, err := json.MarshalIndent(summary, jsonPrefix, jsonIndent)
			if err != nil {
				return err
			}
			fmt.Println(string(payload))
		case "table":
			printStatsTable(summary)
		case "text":
			printStatsText(summary)
		default:
			return fmt.Errorf("unsupported format %q (use text|table|json)", format)
		}
		return nil
	},
}

var reportTelemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Graph telemetry compliance score trend for a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)

		sessionID, _ := cmd.Flags().GetString("session")
		format, _ := cmd.Flags().GetString("format")
		limit, _ := cmd.Flags().GetInt("limit")

		if sessionID == "" {
			return fmt.Errorf("--session is required")
		}
		if err := validateSessionID(sessionID); err != nil {
			return err
		}

		history, err := loadTelemetryHistory(appCtx.ResultsDir, sessionID, limit)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			fmt.Printf("%s telemetry records found for session %s\n", colorWarn("No"), sessionID)
			return nil
		}

		switch strings.ToLower(format) {
		case "json":
			out, err := json.MarshalIndent(history, jsonPrefix, jsonIndent)
			if err != nil {
				return fmt.Errorf("marshal telemetry: %w", err)
			}
			fmt.Println(string(out))
		case "ascii":
			printTelemetryASCII(history)
		default:
			return fmt.Errorf("unsupported format %s (use ascii or json)", format)
		}

		return nil
	},
}

func init() {
	reportGenerateCmd.Flags().String("session", "", "Session ID")
	reportGenerateCmd.Flags().String("format", "md", "Output format: json|md|html|pdf")
	reportStatsCmd.Flags().String("session", "", "Session ID")
	reportStatsCmd.Flags().String("format", "text", "Output format: text|table|json")
	reportTelemetryCmd.Flags().String("session", "", "Session ID")
	reportTelemetryCmd.Flags().String("format", "ascii", "Output format: ascii|json")
	reportTelemetryCmd.Flags().Int("limit", 10, "Number of recent runs to display")
	reportCmd.AddCommand(reportGenerateCmd)
	reportCmd.AddCommand(reportStatsCmd)
	reportCmd.AddCommand(reportTelemetryCmd)
}
