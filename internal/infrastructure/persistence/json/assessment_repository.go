package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nca-tools/nca-cli/internal/assess"
	"github.com/nca-tools/nca-cli/internal/domain/assessment"
	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
	"github.com/nca-tools/nca-cli/internal/shared/security"
)

// assessmentDTO is the data transfer object for JSON serialization. The
// mappings, gaps, tiers, and metrics types serialize themselves; only the
// aggregate envelope needs translating.
type assessmentDTO struct {
	ID              string                  `json:"id"`
	SessionID       string                  `json:"session_id"`
	SessionName     string                  `json:"session_name"`
	Operator        string                  `json:"operator"`
	Mode            string                  `json:"mode"`
	StartedAt       string                  `json:"started_at"`
	CompletedAt     string                  `json:"completed_at,omitempty"`
	Status          string                  `json:"status"`
	Mappings        []assess.ControlMapping `json:"control_mappings"`
	Gaps            []assess.ControlGap     `json:"control_gaps"`
	Tiers           assess.PriorityTiers    `json:"prioritization"`
	ComplianceScore float64                 `json:"overall_compliance_score"`
	Metrics         assess.MetricsSnapshot  `json:"metrics"`
	Metadata        metadataDTO             `json:"metadata"`
}

type metadataDTO struct {
	AuditHash     string `json:"audit_hash,omitempty"`
	HashAlgorithm string `json:"hash_algorithm,omitempty"`
	TotalControls int    `json:"total_controls"`
}

// AssessmentRepository implements the assessment.Repository interface using JSON file storage
type AssessmentRepository struct {
	resultsDir string
	mu         sync.RWMutex
}

// NewAssessmentRepository creates a new JSON-based assessment repository
func NewAssessmentRepository(resultsDir string) (*AssessmentRepository, error) {
	if resultsDir == "" {
		return nil, fmt.Errorf("results directory cannot be empty")
	}

	// Ensure the results directory exists
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}

	return &AssessmentRepository{
		resultsDir: resultsDir,
	}, nil
}

// Save persists an assessment with all its results
func (r *AssessmentRepository) Save(ctx context.Context, asmt *assessment.Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionDir := filepath.Join(r.resultsDir, asmt.SessionID())
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	filePath := filepath.Join(sessionDir, "assessment_results.json")
	if !security.IsValidPath(filePath) {
		return fmt.Errorf("invalid file path: %s", filePath)
	}

	dto := r.toDTO(asmt)

	data, err := json.MarshalIndent(dto, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal assessment: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}

	return nil
}

// FindByID retrieves an assessment by its ID
func (r *AssessmentRepository) FindByID(ctx context.Context, id string) (*assessment.Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// For now, we'll need to search through all session directories
	// In a real database, this would be a simple index lookup
	entries, err := os.ReadDir(r.resultsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read results directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		filePath := filepath.Join(r.resultsDir, entry.Name(), "assessment_results.json")
		asmt, err := r.loadFromFile(filePath)
		if err != nil {
			continue
		}

		if asmt.ID() == id {
			return asmt, nil
		}
	}

	return nil, sharedErrors.ErrAssessmentNotFound
}

// FindBySessionID retrieves all assessments for a session
func (r *AssessmentRepository) FindBySessionID(ctx context.Context, sessionID string) ([]*assessment.Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessionDir := filepath.Join(r.resultsDir, sessionID)
	filePath := filepath.Join(sessionDir, "assessment_results.json")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return []*assessment.Assessment{}, nil
	}

	asmt, err := r.loadFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}

	return []*assessment.Assessment{asmt}, nil
}

// FindAll retrieves all assessments
func (r *AssessmentRepository) FindAll(ctx context.Context) ([]*assessment.Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.resultsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read results directory: %w", err)
	}

	var assessments []*assessment.Assessment
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		filePath := filepath.Join(r.resultsDir, entry.Name(), "assessment_results.json")
		asmt, err := r.loadFromFile(filePath)
		if err != nil {
			continue
		}

		assessments = append(assessments, asmt)
	}

	return assessments, nil
}

// Delete removes an assessment by its ID
func (r *AssessmentRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Find the session directory containing this assessment
	entries, err := os.ReadDir(r.resultsDir)
	if err != nil {
		return fmt.Errorf("failed to read results directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		filePath := filepath.Join(r.resultsDir, entry.Name(), "assessment_results.json")
		asmt, err := r.loadFromFile(filePath)
		if err != nil {
			continue
		}

		if asmt.ID() == id {
			if err := os.Remove(filePath); err != nil {
				return fmt.Errorf("failed to delete assessment: %w", err)
			}
			return nil
		}
	}

	return sharedErrors.ErrAssessmentNotFound
}

// Helper methods

func (r *AssessmentRepository) loadFromFile(filePath string) (*assessment.Assessment, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var dto assessmentDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, err
	}

	return r.fromDTO(dto)
}

func (r *AssessmentRepository) toDTO(asmt *assessment.Assessment) assessmentDTO {
	meta := asmt.Metadata()

	dto := assessmentDTO{
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
		Metadata: metadataDTO{
			AuditHash:     meta.AuditHash,
			HashAlgorithm: meta.HashAlgorithm,
			TotalControls: meta.TotalControls,
		},
	}

	if !asmt.StartedAt().IsZero() {
		dto.StartedAt = asmt.StartedAt().Format("2006-01-02T15:04:05Z07:00")
	}
	if !asmt.CompletedAt().IsZero() {
		dto.CompletedAt = asmt.CompletedAt().Format("2006-01-02T15:04:05Z07:00")
	}

	return dto
}

func (r *AssessmentRepository) fromDTO(dto assessmentDTO) (*assessment.Assessment, error) {
	var startedAt, completedAt time.Time
	var err error

	if dto.StartedAt != "" {
		startedAt, err = time.Parse("2006-01-02T15:04:05Z07:00", dto.StartedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse started at time: %w", err)
		}
	}

	if dto.CompletedAt != "" {
		completedAt, err = time.Parse("2006-01-02T15:04:05Z07:00", dto.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse completed at time: %w", err)
		}
	}

	meta := assessment.Metadata{
		AuditHash:     dto.Metadata.AuditHash,
		HashAlgorithm: dto.Metadata.HashAlgorithm,
		TotalControls: dto.Metadata.TotalControls,
	}

	return assessment.Reconstruct(
		dto.ID,
		dto.SessionID,
		dto.SessionName,
		dto.Operator,
		dto.Mode,
		startedAt,
		completedAt,
		assessment.RunStatus(dto.Status),
		dto.Mappings,
		dto.Gaps,
		dto.Tiers,
		dto.ComplianceScore,
		dto.Metrics,
		meta,
	), nil
}
