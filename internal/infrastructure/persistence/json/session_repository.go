package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nca-tools/nca-cli/internal/catalog"
	"github.com/nca-tools/nca-cli/internal/domain/session"
	"github.com/nca-tools/nca-cli/internal/scope"
	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
	"github.com/nca-tools/nca-cli/internal/shared/security"
)

// sessionDTO is the data transfer object for JSON serialization
type sessionDTO struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Operator    string      `json:"operator"`
	Scope       scopeDTO    `json:"scope"`
	Status      string      `json:"status"`
	Progress    progressDTO `json:"progress"`
	CreatedAt   string      `json:"created_at"`
	CompletedAt string      `json:"completed_at,omitempty"`
}

type scopeDTO struct {
	Baseline         string   `json:"baseline"`
	ControlFamilies  []string `json:"control_families,omitempty"`
	SpecificControls []string `json:"specific_controls,omitempty"`
	Mode             string   `json:"mode"`
}

type progressDTO struct {
	Stage   string `json:"stage"`
	Percent int    `json:"progress"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SessionRepository implements the session.Repository interface using JSON file storage
type SessionRepository struct {
	filePath string
	mu       sync.RWMutex
}

// NewSessionRepository creates a new JSON-based session repository
func NewSessionRepository(dataDir string) (*SessionRepository, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}

	// Ensure the data directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	filePath := filepath.Join(dataDir, "sessions.json")

	// Validate the file path for security
	if !security.IsValidPath(filePath) {
		return nil, fmt.Errorf("invalid file path: %s", filePath)
	}

	repo := &SessionRepository{
		filePath: filePath,
	}

	// Initialize the file if it doesn't exist
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := repo.saveToFile([]sessionDTO{}); err != nil {
			return nil, fmt.Errorf("failed to initialize sessions file: %w", err)
		}
	}

	return repo, nil
}

// Save persists a session
func (r *SessionRepository) Save(ctx context.Context, sess *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions, err := r.loadFromFile()
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	dto := r.toDTO(sess)

	// Check if session already exists
	found := false
	for i, s := range sessions {
		if s.ID == dto.ID {
			sessions[i] = dto
			found = true
			break
		}
	}

	if !found {
		sessions = append(sessions, dto)
	}

	if err := r.saveToFile(sessions); err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}

	return nil
}

// FindByID retrieves a session by its ID
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions, err := r.loadFromFile()
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	for _, dto := range sessions {
		if dto.ID == id {
			return r.fromDTO(dto)
		}
	}

	return nil, sharedErrors.ErrSessionNotFound
}

// FindAll retrieves all sessions
func (r *SessionRepository) FindAll(ctx context.Context) ([]*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions, err := r.loadFromFile()
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	result := make([]*session.Session, 0, len(sessions))
	for _, dto := range sessions {
		sess, err := r.fromDTO(dto)
		if err != nil {
			return nil, fmt.Errorf("failed to convert session %s: %w", dto.ID, err)
		}
		result = append(result, sess)
	}

	return result, nil
}

// Delete removes a session by its ID
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions, err := r.loadFromFile()
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	found := false
	for i, s := range sessions {
		if s.ID == id {
			sessions = append(sessions[:i], sessions[i+1:]...)
			found = true
			break
		}
	}

	if !found {
		return sharedErrors.ErrSessionNotFound
	}

	if err := r.saveToFile(sessions); err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}

	return nil
}

// Exists checks if a session exists by ID
func (r *SessionRepository) Exists(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions, err := r.loadFromFile()
	if err != nil {
		return false, fmt.Errorf("failed to load sessions: %w", err)
	}

	for _, s := range sessions {
		if s.ID == id {
			return true, nil
		}
	}

	return false, nil
}

// Helper methods

func (r *SessionRepository) loadFromFile() ([]sessionDTO, error) {
	data, err := os.ReadFile(r.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []sessionDTO{}, nil
		}
		return nil, err
	}

	var sessions []sessionDTO
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *SessionRepository) saveToFile(sessions []sessionDTO) error {
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(r.filePath, data, 0644)
}

func (r *SessionRepository) toDTO(sess *session.Session) sessionDTO {
	sc := sess.Scope()
	progress := sess.Progress()

	dto := sessionDTO{
		ID:       sess.ID(),
		Name:     sess.Name(),
		Operator: sess.Operator(),
		Scope: scopeDTO{
			Baseline:         string(sc.Baseline),
			ControlFamilies:  sc.ControlFamilies,
			SpecificControls: sc.SpecificControls,
			Mode:             sc.Mode.String(),
		},
		Status: string(sess.Status()),
		Progress: progressDTO{
			Stage:   progress.Stage,
			Percent: progress.Percent,
			Message: progress.Message,
			Error:   progress.Error,
		},
	}

	if !sess.CreatedAt().IsZero() {
		dto.CreatedAt = sess.CreatedAt().Format("2006-01-02T15:04:05Z07:00")
	}
	if !sess.CompletedAt().IsZero() {
		dto.CompletedAt = sess.CompletedAt().Format("2006-01-02T15:04:05Z07:00")
	}

	return dto
}

func (r *SessionRepository) fromDTO(dto sessionDTO) (*session.Session, error) {
	var createdAt, completedAt time.Time
	var err error

	if dto.CreatedAt != "" {
		createdAt, err = time.Parse("2006-01-02T15:04:05Z07:00", dto.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created at time: %w", err)
		}
	}

	if dto.CompletedAt != "" {
		completedAt, err = time.Parse("2006-01-02T15:04:05Z07:00", dto.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse completed at time: %w", err)
		}
	}

	sc := scope.Scope{
		Baseline:         catalog.Level(dto.Scope.Baseline),
		ControlFamilies:  dto.Scope.ControlFamilies,
		SpecificControls: dto.Scope.SpecificControls,
		Mode:             scope.Mode(dto.Scope.Mode),
	}

	progress := session.Progress{
		Stage:   dto.Progress.Stage,
		Percent: dto.Progress.Percent,
		Message: dto.Progress.Message,
		Error:   dto.Progress.Error,
	}

	return session.Reconstruct(
		dto.ID,
		dto.Name,
		dto.Operator,
		sc,
		session.Status(dto.Status),
		progress,
		createdAt,
		completedAt,
	), nil
}
