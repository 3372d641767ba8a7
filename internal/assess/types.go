package assess

import (
	"fmt"

	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

// RiskLevel grades the severity of a control gap.
type RiskLevel string

const (
	RiskCritical RiskLevel = "critical"
	RiskHigh     RiskLevel = "high"
	RiskMedium   RiskLevel = "medium"
	RiskLow      RiskLevel = "low"
	RiskInfo     RiskLevel = "informational"
)

// ParseRiskLevel converts a wire string into a RiskLevel.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch RiskLevel(s) {
	case RiskCritical, RiskHigh, RiskMedium, RiskLow, RiskInfo:
		return RiskLevel(s), nil
	default:
		return "", fmt.Errorf("%w: %q", sharedErrors.ErrInvalidRiskLevel, s)
	}
}

func (r RiskLevel) String() string {
	return string(r)
}

// Rank orders risk levels for sorting, highest severity first.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskCritical:
		return 4
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// ImplementationStatus describes how completely a control is in place.
type ImplementationStatus string

const (
	StatusImplemented          ImplementationStatus = "implemented"
	StatusPartiallyImplemented ImplementationStatus = "partially_implemented"
	StatusNotImplemented       ImplementationStatus = "not_implemented"
)

// ControlMapping links evidence to a control and records how well the
// evidence demonstrates the control's implementation.
type ControlMapping struct {
	ControlID                 string               `json:"control_id"`
	ControlName               string               `json:"control_name"`
	ControlFamily             string               `json:"control_family"`
	EvidenceIDs               []string             `json:"evidence_ids"`
	ImplementationStatus      ImplementationStatus `json:"implementation_status"`
	ImplementationDescription string               `json:"implementation_description"`
	ConfidenceScore           float64              `json:"confidence_score"` // 0.0 to 1.0
	GapsIdentified            []string             `json:"gaps_identified"`
}

// ControlGap records an identified shortfall in a control implementation.
// A control has at most one gap per assessment; a control with no gap is
// fully passing.
type ControlGap struct {
	ControlID            string    `json:"control_id"`
	ControlName          string    `json:"control_name"`
	GapDescription       string    `json:"gap_description"`
	RiskLevel            RiskLevel `json:"risk_level"`
	RiskScore            int       `json:"risk_score"` // 0 to 100
	AffectedRequirements []string  `json:"affected_requirements"`
	RecommendedActions   []string  `json:"recommended_actions"`
}

// ValidationResult is the per-control outcome of evidence validation.
type ValidationResult struct {
	ControlID          string   `json:"control_id"`
	ControlTitle       string   `json:"control_title"`
	IsValid            bool     `json:"is_valid"`
	CoverageScore      float64  `json:"coverage_score"` // 0.0 to 1.0
	RequirementsMet    []string `json:"requirements_met"`
	RequirementsNotMet []string `json:"requirements_not_met"`
	Recommendations    []string `json:"recommendations"`
}

// Evidence is a pre-extracted unit of assessment input: a contiguous run of
// text attributed to a source document or system export.
type Evidence struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Text   string `json:"text"`
}
