package json

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/csv"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/nca-tools/nca-cli/internal/domain/audit"
	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
	"github.com/nca-tools/nca-cli/internal/shared/security"
)

// auditHeader is the CSV column layout for audit trail files
var auditHeader = []string{
	"timestamp",
	"session_id",
	"operator",
	"action",
	"detail",
	"status",
	"error",
	"duration_seconds",
}

// AuditRepository implements the audit.Repository interface using CSV file storage
type AuditRepository struct {
	resultsDir string
	mu         sync.RWMutex
}

// NewAuditRepository creates a new CSV-based audit repository
func NewAuditRepository(resultsDir string) (*AuditRepository, error) {
	if resultsDir == "" {
		return nil, fmt.Errorf("results directory cannot be empty")
	}

	// Ensure the results directory exists
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}

	return &AuditRepository{
		resultsDir: resultsDir,
	}, nil
}

// Save persists an audit trail
func (r *AuditRepository) Save(ctx context.Context, trail *audit.Trail) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionDir := filepath.Join(r.resultsDir, trail.SessionID())
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	filePath := filepath.Join(sessionDir, "audit.csv")
	if !security.IsValidPath(filePath) {
		return fmt.Errorf("invalid file path: %s", filePath)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create audit file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(auditHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// Write entries
	for _, entry := range trail.Entries() {
		if err := writer.Write(entryRecord(entry)); err != nil {
			return fmt.Errorf("failed to write entry: %w", err)
		}
	}

	// If sealed, write hash file
	if trail.IsSealed() {
		hashFilePath := filePath + "." + trail.HashAlgorithm()
		hashContent := fmt.Sprintf("%s  %s\n", trail.Hash(), filepath.Base(filePath))
		if err := os.WriteFile(hashFilePath, []byte(hashContent), 0644); err != nil {
			return fmt.Errorf("failed to write hash file: %w", err)
		}
	}

	// If signed, write signature file
	if trail.IsSigned() {
		sigFilePath := filePath + ".asc"
		if err := os.WriteFile(sigFilePath, []byte(trail.Signature()), 0644); err != nil {
			return fmt.Errorf("failed to write signature file: %w", err)
		}
	}

	return nil
}

// FindBySessionID retrieves the audit trail for a session
func (r *AuditRepository) FindBySessionID(ctx context.Context, sessionID string) (*audit.Trail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filePath := filepath.Join(r.resultsDir, sessionID, "audit.csv")
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, sharedErrors.ErrAuditTrailNotFound
	}

	return r.loadFromFile(filePath, sessionID)
}

// AppendEntry appends a single entry to an existing audit trail
func (r *AuditRepository) AppendEntry(ctx context.Context, sessionID string, entry *audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionDir := filepath.Join(r.resultsDir, sessionID)
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	filePath := filepath.Join(sessionDir, "audit.csv")
	if !security.IsValidPath(filePath) {
		return fmt.Errorf("invalid file path: %s", filePath)
	}

	// Check if file exists, if not create with header
	fileExists := true
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		fileExists = false
	}

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header if new file
	if !fileExists {
		if err := writer.Write(auditHeader); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	if err := writer.Write(entryRecord(entry)); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}

	return nil
}

// ComputeHash calculates the hash of the audit trail file
func (r *AuditRepository) ComputeHash(ctx context.Context, sessionID, algorithm string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filePath := filepath.Join(r.resultsDir, sessionID, "audit.csv")
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return "", sharedErrors.ErrAuditTrailNotFound
	}

	return r.computeHashLocked(sessionID, algorithm)
}

// VerifyIntegrity verifies the integrity of an audit trail
func (r *AuditRepository) VerifyIntegrity(ctx context.Context, sessionID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auditFilePath := filepath.Join(r.resultsDir, sessionID, "audit.csv")
	if _, err := os.Stat(auditFilePath); os.IsNotExist(err) {
		return false, sharedErrors.ErrAuditTrailNotFound
	}

	// Try both sha256 and sha512
	algorithms := []string{"sha256", "sha512"}
	for _, algorithm := range algorithms {
		hashFilePath := auditFilePath + "." + algorithm
		if _, err := os.Stat(hashFilePath); os.IsNotExist(err) {
			continue
		}

		// Read expected hash
		hashContent, err := os.ReadFile(hashFilePath)
		if err != nil {
			continue
		}

		var expectedHash string
		fmt.Sscanf(string(hashContent), "%s", &expectedHash)

		// Compute actual hash
		actualHash, err := r.computeHashLocked(sessionID, algorithm)
		if err != nil {
			return false, err
		}

		return expectedHash == actualHash, nil
	}

	return false, fmt.Errorf("no hash file found")
}

// Helper methods

func (r *AuditRepository) computeHashLocked(sessionID, algorithm string) (string, error) {
	filePath := filepath.Join(r.resultsDir, sessionID, "audit.csv")

	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open audit file: %w", err)
	}
	defer file.Close()

	var h hash.Hash
	switch algorithm {
	case "sha256":
		h = sha256.New()
	case "sha512":
		h = sha512.New()
	default:
		return "", sharedErrors.ErrInvalidHashAlgorithm
	}

	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("failed to compute hash: %w", err)
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func entryRecord(entry *audit.Entry) []string {
	return []string{
		entry.Timestamp.Format(time.RFC3339),
		entry.SessionID,
		entry.Operator,
		entry.Action,
		entry.Detail,
		entry.Status,
		entry.Error,
		fmt.Sprintf("%.3f", entry.DurationSeconds),
	}
}

func (r *AuditRepository) loadFromFile(filePath, sessionID string) (*audit.Trail, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Read header
	_, err = reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	entries := make([]*audit.Entry, 0)

	// Read entries
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		timestamp, err := time.Parse(time.RFC3339, record[0])
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}

		durationSeconds, _ := strconv.ParseFloat(record[7], 64)

		entry := &audit.Entry{
			Timestamp:       timestamp,
			SessionID:       record[1],
			Operator:        record[2],
			Action:          record[3],
			Detail:          record[4],
			Status:          record[5],
			Error:           record[6],
			DurationSeconds: durationSeconds,
		}

		entries = append(entries, entry)
	}

	// Check for hash file
	var trailHash, hashAlgorithm string
	algorithms := []string{"sha256", "sha512"}
	for _, alg := range algorithms {
		hashFilePath := filePath + "." + alg
		if _, err := os.Stat(hashFilePath); err == nil {
			hashContent, err := os.ReadFile(hashFilePath)
			if err == nil {
				fmt.Sscanf(string(hashContent), "%s", &trailHash)
				hashAlgorithm = alg
				break
			}
		}
	}

	// Check for signature file
	var signature string
	sigFilePath := filePath + ".asc"
	if _, err := os.Stat(sigFilePath); err == nil {
		sigContent, err := os.ReadFile(sigFilePath)
		if err == nil {
			signature = string(sigContent)
		}
	}

	sealed := trailHash != ""
	createdAt := time.Now()
	if len(entries) > 0 {
		createdAt = entries[0].Timestamp
	}

	return audit.Reconstruct(
		sessionID,
		entries,
		trailHash,
		hashAlgorithm,
		signature,
		createdAt,
		sealed,
	), nil
}
