package audit

import (
	"errors"
	"time"
)

// Trail represents an immutable audit trail for a session's assessment
// activity. It ensures evidence integrity through cryptographic hashing.
type Trail struct {
	sessionID     string
	entries       []*Entry
	hash          string
	hashAlgorithm string
	signature     string
	createdAt     time.Time
	sealed        bool // Once sealed, no more entries can be added
}

// Entry represents a single audit trail entry
type Entry struct {
	Timestamp       time.Time
	SessionID       string
	Operator        string
	Action          string
	Detail          string
	Status          string
	Error           string
	DurationSeconds float64
}

// NewTrail creates a new audit trail
func NewTrail(sessionID string) (*Trail, error) {
	if sessionID == "" {
		return nil, errors.New("session ID cannot be empty")
	}

	return &Trail{
		sessionID: sessionID,
		entries:   make([]*Entry, 0),
		createdAt: time.Now(),
		sealed:    false,
	}, nil
}

// Reconstruct creates an audit trail from persisted data
func Reconstruct(sessionID string, entries []*Entry, hash, hashAlgorithm, signature string, createdAt time.Time, sealed bool) *Trail {
	return &Trail{
		sessionID:     sessionID,
		entries:       entries,
		hash:          hash,
		hashAlgorithm: hashAlgorithm,
		signature:     signature,
		createdAt:     createdAt,
		sealed:        sealed,
	}
}

// Business methods

// AppendEntry adds a new entry to the audit trail
func (t *Trail) AppendEntry(entry *Entry) error {
	if t.sealed {
		return errors.New("cannot append to a sealed audit trail")
	}

	if entry == nil {
		return errors.New("entry cannot be nil")
	}

	if entry.SessionID != t.sessionID {
		return errors.New("entry session ID does not match audit trail")
	}

	t.entries = append(t.entries, entry)
	return nil
}

// Seal finalizes the audit trail and computes its hash
func (t *Trail) Seal(hash, algorithm string) error {
	if t.sealed {
		return errors.New("audit trail is already sealed")
	}

	if hash == "" {
		return errors.New("hash cannot be empty")
	}

	if algorithm != "sha256" && algorithm != "sha512" {
		return errors.New("unsupported hash algorithm")
	}

	t.hash = hash
	t.hashAlgorithm = algorithm
	t.sealed = true
	return nil
}

// Sign adds a GPG signature to the audit trail
func (t *Trail) Sign(signature string) error {
	if !t.sealed {
		return errors.New("audit trail must be sealed before signing")
	}

	if signature == "" {
		return errors.New("signature cannot be empty")
	}

	t.signature = signature
	return nil
}

// VerifyIntegrity checks if the computed hash matches the expected hash
func (t *Trail) VerifyIntegrity(computedHash string) bool {
	return t.hash == computedHash
}

// IsSealed checks if the audit trail is sealed
func (t *Trail) IsSealed() bool {
	return t.sealed
}

// IsSigned checks if the audit trail is signed
func (t *Trail) IsSigned() bool {
	return t.signature != ""
}

// Getters

func (t *Trail) SessionID() string {
	return t.sessionID
}

func (t *Trail) Entries() []*Entry {
	// Return a copy to prevent external modification
	entriesCopy := make([]*Entry, len(t.entries))
	copy(entriesCopy, t.entries)
	return entriesCopy
}

func (t *Trail) Hash() string {
	return t.hash
}

func (t *Trail) HashAlgorithm() string {
	return t.hashAlgorithm
}

func (t *Trail) Signature() string {
	return t.signature
}

func (t *Trail) CreatedAt() time.Time {
	return t.createdAt
}

// NewEntry creates a new audit entry
func NewEntry(timestamp time.Time, sessionID, operator, action, detail, status string) *Entry {
	return &Entry{
		Timestamp: timestamp,
		SessionID: sessionID,
		Operator:  operator,
		Action:    action,
		Detail:    detail,
		Status:    status,
	}
}
