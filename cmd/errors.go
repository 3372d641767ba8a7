package cmd

import (
	"errors"
	"fmt"

	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

// SessionNotFoundError indicates a session lookup failure.
type SessionNotFoundError struct {
	ID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %s not found", e.ID)
}

func (e *SessionNotFoundError) Unwrap() error {
	return sharedErrors.ErrSessionNotFound
}

// ScopeTooNarrowError signals that a scope resolved to zero controls.
type ScopeTooNarrowError struct {
	Baseline string
	Families []string
}

func (e *ScopeTooNarrowError) Error() string {
	switch {
	case e.Baseline != "" && len(e.Families) > 0:
		return fmt.Sprintf("scope resolved to zero controls for baseline %s (families %v)", e.Baseline, e.Families)
	case e.Baseline != "":
		return fmt.Sprintf("scope resolved to zero controls for baseline %s", e.Baseline)
	}
	return "scope resolved to zero controls"
}

func (e *ScopeTooNarrowError) Unwrap() error {
	return sharedErrors.ErrScopeTooNarrow
}

// Exit codes returned by Execute. Scripts depend on these staying stable.
const (
	exitOK           = 0
	exitGeneric      = 1
	exitUnauthorized = 2
	exitValidation   = 3
	exitNotFound     = 4
)

// exitCodeFor maps service errors onto process exit codes.
func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}

	switch {
	case errors.Is(err, sharedErrors.ErrSessionNotFound),
		errors.Is(err, sharedErrors.ErrAssessmentNotFound),
		errors.Is(err, sharedErrors.ErrAuditTrailNotFound),
		errors.Is(err, sharedErrors.ErrPresetNotFound):
		return exitNotFound

	case errors.Is(err, sharedErrors.ErrValidation),
		errors.Is(err, sharedErrors.ErrInvalidInput),
		errors.Is(err, sharedErrors.ErrMissingRequired),
		errors.Is(err, sharedErrors.ErrUnknownBaseline),
		errors.Is(err, sharedErrors.ErrUnknownMode),
		errors.Is(err, sharedErrors.ErrInvalidFamilyCode),
		errors.Is(err, sharedErrors.ErrInvalidControlID),
		errors.Is(err, sharedErrors.ErrScopeTooNarrow),
		errors.Is(err, sharedErrors.ErrInvalidHashAlgorithm),
		errors.Is(err, sharedErrors.ErrNoEvidence),
		errors.Is(err, sharedErrors.ErrInvalidSessionID),
		errors.Is(err, sharedErrors.ErrEmptySessionName):
		return exitValidation

	case errors.Is(err, sharedErrors.ErrEmptyOperator),
		errors.Is(err, sharedErrors.ErrAuditIntegrityFailed):
		return exitUnauthorized
	}

	return exitGeneric
}
