package assess

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/nca-tools/nca-cli/internal/catalog"
)

// Requirements carries the catalog text a control is validated against.
type Requirements struct {
	ControlID string   `json:"control_id"`
	Title     string   `json:"title"`
	Family    string   `json:"family"`
	Statement string   `json:"statement"`
	Guidance  string   `json:"guidance"`
	Related   []string `json:"related_controls"`
}

// RequirementsSource looks up control requirements from a catalog.
type RequirementsSource interface {
	ControlRequirements(controlID string) (Requirements, error)
}

// Validation thresholds: a control counts as mapped above minCoverage and
// gap-free above fullCoverage (strict comparisons in both cases).
const (
	minCoverage  = 0.3
	fullCoverage = 0.5
)

// KeywordValidator scores evidence against control requirement statements
// by whole-word overlap. Coverage is the fraction of distinct statement
// words that also appear somewhere in the evidence, after lowercasing.
type KeywordValidator struct {
	source RequirementsSource
}

// NewKeywordValidator builds a validator reading requirements from source.
func NewKeywordValidator(source RequirementsSource) *KeywordValidator {
	return &KeywordValidator{source: source}
}

// ValidateControl checks the combined evidence text against one control.
func (v *KeywordValidator) ValidateControl(ctx context.Context, controlID string, evidence []Evidence) (ValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return ValidationResult{}, err
	}

	req, err := v.source.ControlRequirements(controlID)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("requirements for %s: %w", controlID, err)
	}

	coverage := coverageScore(req.Statement, evidence)

	result := ValidationResult{
		ControlID:          req.ControlID,
		ControlTitle:       req.Title,
		IsValid:            coverage > minCoverage,
		CoverageScore:      coverage,
		RequirementsMet:    []string{},
		RequirementsNotMet: []string{},
		Recommendations:    recommendations(req),
	}
	if coverage > fullCoverage {
		result.RequirementsMet = append(result.RequirementsMet, req.Statement)
	} else {
		result.RequirementsNotMet = append(result.RequirementsNotMet, "Insufficient evidence detail")
	}
	return result, nil
}

// ValidateBatch validates several controls against the same evidence,
// preserving input order. It stops early when ctx is cancelled.
func (v *KeywordValidator) ValidateBatch(ctx context.Context, controlIDs []string, evidence []Evidence) ([]ValidationResult, error) {
	results := make([]ValidationResult, 0, len(controlIDs))
	for _, id := range controlIDs {
		res, err := v.ValidateControl(ctx, id, evidence)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func coverageScore(statement string, evidence []Evidence) float64 {
	statementWords := wordSet(statement)
	if len(statementWords) == 0 {
		return 0
	}

	var combined strings.Builder
	for _, e := range evidence {
		combined.WriteString(e.Text)
		combined.WriteByte(' ')
	}
	evidenceWords := wordSet(combined.String())

	overlap := 0
	for word := range statementWords {
		if _, ok := evidenceWords[word]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(statementWords))
}

func wordSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func recommendations(req Requirements) []string {
	recs := []string{}
	if req.Guidance != "" {
		guidance := req.Guidance
		if len(guidance) > 200 {
			guidance = guidance[:200] + "..."
		}
		recs = append(recs, "Review guidance: "+guidance)
	}
	if len(req.Related) > 0 {
		related := req.Related
		if len(related) > 5 {
			related = related[:5]
		}
		recs = append(recs, "Review related controls: "+strings.Join(related, ", "))
	}
	return recs
}

// Outcome derives the mapping and gap for a validated control. Controls
// above the full-coverage threshold map as implemented with no gap; those
// in the partial band map as partially implemented with a gap; below the
// minimum the control stays unmapped and only the gap is recorded.
func Outcome(res ValidationResult, evidenceIDs []string) (*ControlMapping, *ControlGap) {
	var mapping *ControlMapping
	if res.CoverageScore > minCoverage {
		status := StatusPartiallyImplemented
		if res.CoverageScore > fullCoverage {
			status = StatusImplemented
		}
		mapping = &ControlMapping{
			ControlID:                 res.ControlID,
			ControlName:               res.ControlTitle,
			ControlFamily:             catalog.FamilyOf(res.ControlID),
			EvidenceIDs:               evidenceIDs,
			ImplementationStatus:      status,
			ImplementationDescription: fmt.Sprintf("Evidence covers %.0f%% of the control statement", res.CoverageScore*100),
			ConfidenceScore:           round2(res.CoverageScore),
			GapsIdentified:            append([]string(nil), res.RequirementsNotMet...),
		}
	}

	var gap *ControlGap
	if res.CoverageScore <= fullCoverage {
		score := riskScore(res.CoverageScore)
		gap = &ControlGap{
			ControlID:            res.ControlID,
			ControlName:          res.ControlTitle,
			GapDescription:       fmt.Sprintf("Evidence does not sufficiently demonstrate %s (%s)", res.ControlID, res.ControlTitle),
			RiskLevel:            riskLevelForScore(score),
			RiskScore:            score,
			AffectedRequirements: []string{res.ControlID},
			RecommendedActions:   res.Recommendations,
		}
	}

	return mapping, gap
}

// riskScore inverts coverage onto the 0-100 gap scale.
func riskScore(coverage float64) int {
	score := int(math.Round((1 - coverage) * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func riskLevelForScore(score int) RiskLevel {
	switch {
	case score >= 85:
		return RiskCritical
	case score >= 70:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	case score >= 20:
		return RiskLow
	default:
		return RiskInfo
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
