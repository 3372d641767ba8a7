package errors

import "errors"

// Domain errors
var (
	// Session errors
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
	ErrEmptySessionName     = errors.New("session name cannot be empty")
	ErrEmptyOperator        = errors.New("session operator cannot be empty")
	ErrSessionNotReady      = errors.New("session is not ready to run")
	ErrSessionRunning       = errors.New("session is already running")
	ErrSessionFinished      = errors.New("session has already finished")

	// Scope and catalog errors
	ErrUnknownBaseline    = errors.New("unknown baseline level")
	ErrUnknownMode        = errors.New("unknown processing mode")
	ErrInvalidFamilyCode  = errors.New("invalid control family code")
	ErrInvalidControlID   = errors.New("invalid control identifier")
	ErrScopeTooNarrow     = errors.New("scope resolved to zero controls")
	ErrPresetNotFound     = errors.New("predefined scope not found")
	ErrProfileInvalid     = errors.New("custom baseline profile is invalid")
	ErrCatalogUnavailable = errors.New("control catalog unavailable")

	// Assessment errors
	ErrAssessmentNotFound         = errors.New("assessment not found")
	ErrInvalidAssessmentStatus    = errors.New("invalid assessment status")
	ErrAssessmentAlreadyStarted   = errors.New("assessment already started")
	ErrAssessmentNotStarted       = errors.New("assessment not started")
	ErrAssessmentAlreadyCompleted = errors.New("assessment already completed")
	ErrNoEvidence                 = errors.New("no evidence supplied")
	ErrInvalidRiskLevel           = errors.New("invalid risk level")
	ErrInvalidHashAlgorithm       = errors.New("unsupported hash algorithm")

	// Audit errors
	ErrAuditTrailNotFound   = errors.New("audit trail not found")
	ErrAuditTrailSealed     = errors.New("audit trail is sealed")
	ErrAuditTrailNotSealed  = errors.New("audit trail is not sealed")
	ErrAuditIntegrityFailed = errors.New("audit integrity verification failed")
	ErrEmptyHash            = errors.New("hash cannot be empty")
	ErrEmptySignature       = errors.New("signature cannot be empty")

	// Repository errors
	ErrRepositoryOperation   = errors.New("repository operation failed")
	ErrInvalidData           = errors.New("invalid data")
	ErrSerializationFailed   = errors.New("serialization failed")
	ErrDeserializationFailed = errors.New("deserialization failed")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingRequired = errors.New("missing required field")
)
