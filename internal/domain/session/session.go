package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nca-tools/nca-cli/internal/scope"
)

// Session represents one assessment session from scope selection through
// completed results. It serves as an aggregate root in the DDD context.
type Session struct {
	id          string
	name        string
	operator    string
	scope       scope.Scope
	status      Status
	progress    Progress
	createdAt   time.Time
	completedAt time.Time
}

// Status represents the lifecycle state of a session
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Progress records how far assessment processing has advanced
type Progress struct {
	Stage   string
	Percent int
	Message string
	Error   string
}

// NewSession creates a new session with validation
func NewSession(name, operator string, s scope.Scope) (*Session, error) {
	if name == "" {
		return nil, errors.New("session name cannot be empty")
	}
	if operator == "" {
		return nil, errors.New("session operator cannot be empty")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &Session{
		id:        uuid.NewString(),
		name:      name,
		operator:  operator,
		scope:     s.Normalize(),
		status:    StatusPending,
		progress:  Progress{Stage: "pending", Percent: 0, Message: "Session created"},
		createdAt: time.Now(),
	}, nil
}

// Reconstruct creates a session from persisted data (for repository use)
func Reconstruct(id, name, operator string, s scope.Scope, status Status, progress Progress, createdAt, completedAt time.Time) *Session {
	return &Session{
		id:          id,
		name:        name,
		operator:    operator,
		scope:       s,
		status:      status,
		progress:    progress,
		createdAt:   createdAt,
		completedAt: completedAt,
	}
}

// Business methods

// Start marks the session as running
func (s *Session) Start() error {
	if s.status != StatusPending {
		return errors.New("session can only be started from pending status")
	}
	s.status = StatusRunning
	s.progress = Progress{Stage: "initializing", Percent: 1, Message: "Starting assessment pipeline"}
	return nil
}

// SetScope replaces the scope of a session that has not started yet
func (s *Session) SetScope(sc scope.Scope) error {
	if s.status != StatusPending {
		return errors.New("scope can only change before the session starts")
	}
	if err := sc.Validate(); err != nil {
		return err
	}
	s.scope = sc.Normalize()
	return nil
}

// UpdateProgress records pipeline advancement on a running session
func (s *Session) UpdateProgress(stage string, percent int, message string) error {
	if s.status != StatusRunning {
		return errors.New("progress updates require a running session")
	}
	if percent < 0 || percent > 100 {
		return errors.New("progress percent must be between 0 and 100")
	}
	s.progress = Progress{Stage: stage, Percent: percent, Message: message}
	return nil
}

// Complete marks the session as completed
func (s *Session) Complete() error {
	if s.status != StatusRunning {
		return errors.New("session can only be completed from running status")
	}
	s.status = StatusCompleted
	s.completedAt = time.Now()
	s.progress = Progress{Stage: "complete", Percent: 100, Message: "Assessment complete"}
	return nil
}

// Fail marks the session as failed with an error message
func (s *Session) Fail(reason string) error {
	if s.status == StatusCompleted {
		return errors.New("cannot fail a completed session")
	}
	s.status = StatusFailed
	s.completedAt = time.Now()
	s.progress = Progress{Stage: "error", Percent: s.progress.Percent, Message: reason, Error: reason}
	return nil
}

// IsFinished checks if the session reached a terminal state
func (s *Session) IsFinished() bool {
	return s.status == StatusCompleted || s.status == StatusFailed
}

// Getters

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Name() string {
	return s.name
}

func (s *Session) Operator() string {
	return s.operator
}

func (s *Session) Scope() scope.Scope {
	// Normalize copies the filter slices, preventing external modification
	return s.scope.Normalize()
}

func (s *Session) Status() Status {
	return s.status
}

func (s *Session) Progress() Progress {
	return s.progress
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Session) CompletedAt() time.Time {
	return s.completedAt
}
