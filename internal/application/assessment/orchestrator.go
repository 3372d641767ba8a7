package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/nca-tools/nca-cli/internal/assess"
	"github.com/nca-tools/nca-cli/internal/domain/assessment"
	"github.com/nca-tools/nca-cli/internal/domain/audit"
	"github.com/nca-tools/nca-cli/internal/domain/session"
	"github.com/nca-tools/nca-cli/internal/scope"
	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

// Orchestrator coordinates assessment execution across the session,
// assessment, and audit boundaries.
type Orchestrator struct {
	sessionRepo    session.Repository
	assessmentRepo assessment.Repository
	auditRepo      audit.Repository
	resolver       *scope.Resolver
	estimator      *scope.Estimator
	source         assess.RequirementsSource
}

// NewOrchestrator creates a new assessment orchestrator. The requirements
// source may be nil when no catalog file is loaded; scope resolution and
// estimation still work, but RunAssessment refuses to start.
func NewOrchestrator(
	sessionRepo session.Repository,
	assessmentRepo assessment.Repository,
	auditRepo audit.Repository,
	resolver *scope.Resolver,
	estimator *scope.Estimator,
	source assess.RequirementsSource,
) *Orchestrator {
	return &Orchestrator{
		sessionRepo:    sessionRepo,
		assessmentRepo: assessmentRepo,
		auditRepo:      auditRepo,
		resolver:       resolver,
		estimator:      estimator,
		source:         source,
	}
}

// EstimateSession resolves a session's scope and estimates its processing
// effort without running anything.
func (o *Orchestrator) EstimateSession(ctx context.Context, sessionID string) ([]string, scope.Estimate, error) {
	sess, err := o.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, scope.Estimate{}, fmt.Errorf("failed to get session: %w", err)
	}

	sc := sess.Scope()
	controls := o.resolver.Resolve(sc)
	estimate := o.estimator.Estimate(len(controls), sc.Mode)

	o.recordAudit(ctx, sessionID, sess.Operator(), "estimate-scope",
		fmt.Sprintf("%d controls, %s mode", len(controls), sc.Mode), "ok", "", 0)

	return controls, estimate, nil
}

// RunAssessment executes the full pipeline for a session: resolve the
// scope, validate the evidence control by control, and persist the
// assessment with its results. The mode always comes from the session's
// scope; the remaining cfg fields tune batching, concurrency, and
// escalation. Progress flows through report when not nil.
func (o *Orchestrator) RunAssessment(ctx context.Context, sessionID string, evidence []assess.Evidence, cfg assess.Config, report assess.ProgressFunc) (*assessment.Assessment, error) {
	if o.source == nil {
		return nil, sharedErrors.ErrCatalogUnavailable
	}

	sess, err := o.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	sc := sess.Scope()
	controls := o.resolver.Resolve(sc)
	if len(controls) == 0 {
		return nil, sharedErrors.ErrScopeTooNarrow
	}
	estimate := o.estimator.Estimate(len(controls), sc.Mode)

	if err := sess.Start(); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	if err := o.sessionRepo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	asmt, err := assessment.NewAssessment(sessionID, sess.Name(), sess.Operator(), sc.Mode.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}
	if err := asmt.Start(); err != nil {
		return nil, fmt.Errorf("failed to start assessment: %w", err)
	}

	o.recordAudit(ctx, sessionID, sess.Operator(), "assessment-started",
		fmt.Sprintf("assessment %s over %d controls", asmt.ID(), len(controls)), "ok", "", 0)

	cfg.Mode = sc.Mode
	runner := assess.NewRunner(assess.NewKeywordValidator(o.source), cfg)

	started := time.Now()
	result, err := runner.Run(ctx, sessionID, controls, evidence, o.trackProgress(ctx, sess, report))
	if err != nil {
		o.failAssessment(ctx, sess, asmt, err)
		return nil, fmt.Errorf("assessment pipeline failed: %w", err)
	}

	// Stamp scope figures the runner has no visibility into
	result.Metrics.Scope.Baseline = string(sc.Baseline)
	result.Metrics.Processing.TokensEstimated = estimate.EstimatedTokens

	for _, mapping := range result.Mappings {
		if err := asmt.AddMapping(mapping); err != nil {
			return nil, fmt.Errorf("failed to add mapping: %w", err)
		}
	}
	for _, g := range result.Gaps {
		if err := asmt.AddGap(g); err != nil {
			return nil, fmt.Errorf("failed to add gap: %w", err)
		}
	}
	if err := asmt.RecordOutcome(result.Tiers, result.ComplianceScore, result.Metrics); err != nil {
		return nil, fmt.Errorf("failed to record outcome: %w", err)
	}
	if err := asmt.Complete(); err != nil {
		return nil, fmt.Errorf("failed to complete assessment: %w", err)
	}
	if err := o.assessmentRepo.Save(ctx, asmt); err != nil {
		return nil, fmt.Errorf("failed to save assessment: %w", err)
	}

	if err := sess.Complete(); err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}
	if err := o.sessionRepo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	o.recordAudit(ctx, sessionID, sess.Operator(), "assessment-completed",
		fmt.Sprintf("%d mappings, %d gaps, score %.2f", len(result.Mappings), len(result.Gaps), result.ComplianceScore),
		"ok", "", time.Since(started).Seconds())

	return asmt, nil
}

// FinalizeAssessment stamps the sealed audit hash onto a completed
// assessment and persists it.
func (o *Orchestrator) FinalizeAssessment(ctx context.Context, asmt *assessment.Assessment, auditHash, hashAlgorithm string) error {
	if auditHash != "" {
		if err := asmt.SetAuditHash(auditHash, hashAlgorithm); err != nil {
			return fmt.Errorf("failed to set audit hash: %w", err)
		}
	}

	if err := o.assessmentRepo.Save(ctx, asmt); err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}

	return nil
}

// GetAssessment retrieves an assessment by ID
func (o *Orchestrator) GetAssessment(ctx context.Context, id string) (*assessment.Assessment, error) {
	asmt, err := o.assessmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	return asmt, nil
}

// GetAssessmentsBySession retrieves all assessments for a session
func (o *Orchestrator) GetAssessmentsBySession(ctx context.Context, sessionID string) ([]*assessment.Assessment, error) {
	assessments, err := o.assessmentRepo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessments: %w", err)
	}

	return assessments, nil
}

// trackProgress mirrors pipeline progress onto the session aggregate while
// forwarding updates to the caller's callback.
func (o *Orchestrator) trackProgress(ctx context.Context, sess *session.Session, report assess.ProgressFunc) assess.ProgressFunc {
	return func(p assess.Progress) {
		if err := sess.UpdateProgress(p.Stage, p.Percent, p.Message); err == nil {
			// Progress persistence is best effort; the run must not stop
			// because a status write failed.
			_ = o.sessionRepo.Save(ctx, sess)
		}
		if report != nil {
			report(p)
		}
	}
}

func (o *Orchestrator) failAssessment(ctx context.Context, sess *session.Session, asmt *assessment.Assessment, cause error) {
	_ = asmt.Fail()
	_ = o.assessmentRepo.Save(ctx, asmt)
	_ = sess.Fail(cause.Error())
	_ = o.sessionRepo.Save(ctx, sess)
	o.recordAudit(ctx, sess.ID(), sess.Operator(), "assessment-failed", asmt.ID(), "error", cause.Error(), 0)
}

func (o *Orchestrator) recordAudit(ctx context.Context, sessionID, operator, action, detail, status, errMsg string, duration float64) {
	entry := &audit.Entry{
		Timestamp:       time.Now(),
		SessionID:       sessionID,
		Operator:        operator,
		Action:          action,
		Detail:          detail,
		Status:          status,
		Error:           errMsg,
		DurationSeconds: duration,
	}
	// Audit failures must not abort assessment work
	_ = o.auditRepo.AppendEntry(ctx, sessionID, entry)
}
