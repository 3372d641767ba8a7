package audit

import "context"

// Repository defines the interface for audit trail persistence
type Repository interface {
	// Save persists an audit trail
	Save(ctx context.Context, trail *Trail) error

	// FindBySessionID retrieves the audit trail for a session
	FindBySessionID(ctx context.Context, sessionID string) (*Trail, error)

	// AppendEntry appends a single entry to an existing audit trail
	AppendEntry(ctx context.Context, sessionID string, entry *Entry) error

	// ComputeHash calculates the hash of the audit trail file
	ComputeHash(ctx context.Context, sessionID, algorithm string) (string, error)

	// VerifyIntegrity verifies the integrity of an audit trail
	VerifyIntegrity(ctx context.Context, sessionID string) (bool, error)
}
