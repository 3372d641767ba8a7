package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	consts "github.com/nca-tools/nca-cli/internal/shared/constants"
	"github.com/nca-tools/nca-cli/internal/shared/security"
)

// Session IDs become directory names under the results root, so anything
// that could alter path resolution is rejected before it reaches the
// filesystem.
func validateSessionID(id string) error {
	if id == "" {
		return errors.New("session ID is required")
	}
	if id == "." || id == ".." {
		return fmt.Errorf("session ID %q is reserved", id)
	}
	if strings.IndexAny(id, `/\`) != -1 {
		return fmt.Errorf("session ID %q must not contain path separators", id)
	}
	return nil
}

// resolveResultsPath maps a session (plus optional trailing parts) to its
// location under the results root, refusing IDs that would escape it.
func resolveResultsPath(resultsDir, sessionID string, parts ...string) (string, error) {
	if err := validateSessionID(sessionID); err != nil {
		return "", err
	}
	elems := make([]string, 0, len(parts)+1)
	elems = append(elems, sessionID)
	elems = append(elems, parts...)
	return security.ResolveWithin(resultsDir, elems...)
}

// ensureResultsDir resolves the per-session results directory, creating it
// if it does not exist yet.
func ensureResultsDir(resultsDir, sessionID string) (string, error) {
	dir, err := resolveResultsPath(resultsDir, sessionID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, consts.DefaultDirPerm); err != nil {
		return "", fmt.Errorf("create results directory: %w", err)
	}
	return dir, nil
}

// validateGPGKey screens key identifiers before they are handed to the gpg
// command line.
func validateGPGKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("gpg key is required")
	}
	if strings.ContainsAny(key, "\r\n") {
		return fmt.Errorf("gpg key %q contains invalid newline characters", key)
	}
	return nil
}
