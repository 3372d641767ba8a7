package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/nca-tools/nca-cli/internal/domain/audit"
)

// Service provides application-level audit operations
type Service struct {
	repo audit.Repository
}

// NewService creates a new audit service
func NewService(repo audit.Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// RecordAction records an audit entry for an assessment action
func (s *Service) RecordAction(
	ctx context.Context,
	sessionID, operator, action, detail, status, errorMsg string,
	duration float64,
) error {
	entry := &audit.Entry{
		Timestamp:       time.Now(),
		SessionID:       sessionID,
		Operator:        operator,
		Action:          action,
		Detail:          detail,
		Status:          status,
		Error:           errorMsg,
		DurationSeconds: duration,
	}

	if err := s.repo.AppendEntry(ctx, sessionID, entry); err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	return nil
}

// GetAuditTrail retrieves the audit trail for a session
func (s *Service) GetAuditTrail(ctx context.Context, sessionID string) (*audit.Trail, error) {
	trail, err := s.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit trail: %w", err)
	}

	return trail, nil
}

// SealAuditTrail seals an audit trail with a cryptographic hash
func (s *Service) SealAuditTrail(ctx context.Context, sessionID, hashAlgorithm string) (string, error) {
	// Compute hash
	hash, err := s.repo.ComputeHash(ctx, sessionID, hashAlgorithm)
	if err != nil {
		return "", fmt.Errorf("failed to compute hash: %w", err)
	}

	// Get audit trail
	trail, err := s.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to get audit trail: %w", err)
	}

	// Seal it
	if err := trail.Seal(hash, hashAlgorithm); err != nil {
		return "", fmt.Errorf("failed to seal audit trail: %w", err)
	}

	// Save sealed audit trail
	if err := s.repo.Save(ctx, trail); err != nil {
		return "", fmt.Errorf("failed to save audit trail: %w", err)
	}

	return hash, nil
}

// VerifyIntegrity verifies the integrity of an audit trail
func (s *Service) VerifyIntegrity(ctx context.Context, sessionID string) (bool, error) {
	valid, err := s.repo.VerifyIntegrity(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to verify integrity: %w", err)
	}

	return valid, nil
}

// SignAuditTrail adds a GPG signature to an audit trail
func (s *Service) SignAuditTrail(ctx context.Context, sessionID, signature string) error {
	trail, err := s.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to get audit trail: %w", err)
	}

	if err := trail.Sign(signature); err != nil {
		return fmt.Errorf("failed to sign audit trail: %w", err)
	}

	if err := s.repo.Save(ctx, trail); err != nil {
		return fmt.Errorf("failed to save audit trail: %w", err)
	}

	return nil
}
