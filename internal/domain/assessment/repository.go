package assessment

import "context"

// Repository defines the interface for assessment persistence
type Repository interface {
	// Save persists an assessment with all its mappings and gaps
	Save(ctx context.Context, assessment *Assessment) error

	// FindByID retrieves an assessment by its ID
	FindByID(ctx context.Context, id string) (*Assessment, error)

	// FindBySessionID retrieves all assessments for a session
	FindBySessionID(ctx context.Context, sessionID string) ([]*Assessment, error)

	// FindAll retrieves all assessments
	FindAll(ctx context.Context) ([]*Assessment, error)

	// Delete removes an assessment by its ID
	Delete(ctx context.Context, id string) error
}
