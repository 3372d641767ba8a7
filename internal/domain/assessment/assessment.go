package assessment

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nca-tools/nca-cli/internal/assess"
)

// Assessment represents an execution of the validation pipeline over a
// session's resolved scope. It serves as an aggregate root that owns the
// control mappings, gaps, and processing metrics produced by a run.
type Assessment struct {
	id          string
	sessionID   string
	sessionName string
	operator    string
	mode        string
	startedAt   time.Time
	completedAt time.Time
	status      RunStatus
	mappings    []assess.ControlMapping
	gaps        []assess.ControlGap
	tiers       assess.PriorityTiers
	score       float64
	metrics     assess.MetricsSnapshot
	metadata    Metadata
}

// RunStatus represents the status of an assessment run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Metadata contains additional information about the assessment run
type Metadata struct {
	AuditHash     string
	HashAlgorithm string
	TotalControls int
}

// NewAssessment creates a new assessment run
func NewAssessment(sessionID, sessionName, operator, mode string) (*Assessment, error) {
	if sessionID == "" {
		return nil, errors.New("session ID cannot be empty")
	}
	if operator == "" {
		return nil, errors.New("operator cannot be empty")
	}

	return &Assessment{
		id:          uuid.NewString(),
		sessionID:   sessionID,
		sessionName: sessionName,
		operator:    operator,
		mode:        mode,
		startedAt:   time.Now(),
		status:      RunStatusPending,
		mappings:    make([]assess.ControlMapping, 0),
		gaps:        make([]assess.ControlGap, 0),
		metadata:    Metadata{},
	}, nil
}

// Reconstruct creates an assessment from persisted data
func Reconstruct(id, sessionID, sessionName, operator, mode string, startedAt, completedAt time.Time,
	status RunStatus, mappings []assess.ControlMapping, gaps []assess.ControlGap,
	tiers assess.PriorityTiers, score float64, metrics assess.MetricsSnapshot, metadata Metadata) *Assessment {
	return &Assessment{
		id:          id,
		sessionID:   sessionID,
		sessionName: sessionName,
		operator:    operator,
		mode:        mode,
		startedAt:   startedAt,
		completedAt: completedAt,
		status:      status,
		mappings:    mappings,
		gaps:        gaps,
		tiers:       tiers,
		score:       score,
		metrics:     metrics,
		metadata:    metadata,
	}
}

// Business methods

// Start marks the assessment as running
func (a *Assessment) Start() error {
	if a.status != RunStatusPending {
		return errors.New("assessment can only be started from pending status")
	}
	a.status = RunStatusRunning
	a.startedAt = time.Now()
	return nil
}

// Complete marks the assessment as completed
func (a *Assessment) Complete() error {
	if a.status != RunStatusRunning {
		return errors.New("assessment can only be completed from running status")
	}
	a.status = RunStatusCompleted
	a.completedAt = time.Now()
	return nil
}

// Fail marks the assessment as failed
func (a *Assessment) Fail() error {
	if a.status == RunStatusCompleted {
		return errors.New("cannot fail a completed assessment")
	}
	a.status = RunStatusFailed
	a.completedAt = time.Now()
	return nil
}

// AddMapping records a control mapping on an unfinished assessment
func (a *Assessment) AddMapping(mapping assess.ControlMapping) error {
	if a.isFinished() {
		return errors.New("cannot add mappings to a finished assessment")
	}
	a.mappings = append(a.mappings, mapping)
	a.metadata.TotalControls = len(a.mappings)
	return nil
}

// AddGap records a control gap on an unfinished assessment
func (a *Assessment) AddGap(gap assess.ControlGap) error {
	if a.isFinished() {
		return errors.New("cannot add gaps to a finished assessment")
	}
	a.gaps = append(a.gaps, gap)
	return nil
}

// RecordOutcome stores the pipeline result on a running assessment
func (a *Assessment) RecordOutcome(tiers assess.PriorityTiers, score float64, metrics assess.MetricsSnapshot) error {
	if a.status != RunStatusRunning {
		return errors.New("outcome can only be recorded on a running assessment")
	}
	a.tiers = tiers
	a.score = score
	a.metrics = metrics
	return nil
}

// SetAuditHash sets the audit trail hash for integrity verification
func (a *Assessment) SetAuditHash(hash, algorithm string) error {
	if hash == "" {
		return errors.New("hash cannot be empty")
	}
	if algorithm != "sha256" && algorithm != "sha512" {
		return errors.New("unsupported hash algorithm")
	}

	a.metadata.AuditHash = hash
	a.metadata.HashAlgorithm = algorithm
	return nil
}

func (a *Assessment) isFinished() bool {
	return a.status == RunStatusCompleted || a.status == RunStatusFailed
}

// Getters

func (a *Assessment) ID() string {
	return a.id
}

func (a *Assessment) SessionID() string {
	return a.sessionID
}

func (a *Assessment) SessionName() string {
	return a.sessionName
}

func (a *Assessment) Operator() string {
	return a.operator
}

func (a *Assessment) Mode() string {
	return a.mode
}

func (a *Assessment) StartedAt() time.Time {
	return a.startedAt
}

func (a *Assessment) CompletedAt() time.Time {
	return a.completedAt
}

func (a *Assessment) Status() RunStatus {
	return a.status
}

func (a *Assessment) Mappings() []assess.ControlMapping {
	// Return a copy to prevent external modification
	mappingsCopy := make([]assess.ControlMapping, len(a.mappings))
	copy(mappingsCopy, a.mappings)
	return mappingsCopy
}

func (a *Assessment) Gaps() []assess.ControlGap {
	// Return a copy to prevent external modification
	gapsCopy := make([]assess.ControlGap, len(a.gaps))
	copy(gapsCopy, a.gaps)
	return gapsCopy
}

func (a *Assessment) Tiers() assess.PriorityTiers {
	return a.tiers
}

func (a *Assessment) ComplianceScore() float64 {
	return a.score
}

func (a *Assessment) Metrics() assess.MetricsSnapshot {
	return a.metrics
}

func (a *Assessment) Metadata() Metadata {
	return a.metadata
}
