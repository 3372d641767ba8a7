package session

import "context"

// Repository defines the interface for session persistence
type Repository interface {
	// Save persists a session
	Save(ctx context.Context, session *Session) error

	// FindByID retrieves a session by its ID
	FindByID(ctx context.Context, id string) (*Session, error)

	// FindAll retrieves all sessions
	FindAll(ctx context.Context) ([]*Session, error)

	// Delete removes a session by its ID
	Delete(ctx context.Context, id string) error

	// Exists checks if a session exists by ID
	Exists(ctx context.Context, id string) (bool, error)
}
