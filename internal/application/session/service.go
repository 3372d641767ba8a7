package session

import (
	"context"
	"fmt"

	"github.com/nca-tools/nca-cli/internal/domain/session"
	"github.com/nca-tools/nca-cli/internal/scope"
	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

// Service provides application-level session operations
type Service struct {
	repo session.Repository
}

// NewService creates a new session service
func NewService(repo session.Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// CreateSession creates a new assessment session
func (s *Service) CreateSession(ctx context.Context, name, operator string, sc scope.Scope) (*session.Session, error) {
	sess, err := session.NewSession(name, operator, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return sess, nil
}

// GetSession retrieves a session by ID
func (s *Service) GetSession(ctx context.Context, id string) (*session.Session, error) {
	sess, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return sess, nil
}

// ListSessions retrieves all sessions
func (s *Service) ListSessions(ctx context.Context) ([]*session.Session, error) {
	sessions, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, nil
}

// UpdateScope replaces the scope of a pending session
func (s *Service) UpdateScope(ctx context.Context, id string, sc scope.Scope) (*session.Session, error) {
	sess, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := sess.SetScope(sc); err != nil {
		return nil, fmt.Errorf("failed to update scope: %w", err)
	}

	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return sess, nil
}

// DeleteSession deletes a session
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// ValidateSessionForRun validates that a session is ready for an assessment
func (s *Service) ValidateSessionForRun(ctx context.Context, id string) error {
	sess, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	switch sess.Status() {
	case session.StatusPending:
		return nil
	case session.StatusRunning:
		return sharedErrors.ErrSessionRunning
	default:
		return sharedErrors.ErrSessionFinished
	}
}
