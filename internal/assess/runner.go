package assess

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/nca-tools/nca-cli/internal/scope"
	"github.com/nca-tools/nca-cli/internal/shared/constants"
	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

// Progress reports pipeline advancement to a caller-supplied callback. The
// CLI renders it with the progress printer; the server forwards it to job
// subscribers.
type Progress struct {
	Stage   string `json:"stage"`
	Percent int    `json:"progress"`
	Message string `json:"message"`
}

// ProgressFunc receives progress updates. It may be nil. Concurrent batch
// workers call it from their own goroutines, so implementations must be
// safe for concurrent use and tolerate out-of-order percentages.
type ProgressFunc func(Progress)

// Config tunes pipeline execution.
type Config struct {
	Mode          scope.Mode  // validation strategy, defaults to deep
	BatchSize     int         // controls per batch
	MaxConcurrent int         // batches in flight at once
	RateLimit     int         // validations per second, 0 means unlimited
	SkipPassing   bool        // smart mode: skip re-validating passing controls
	Escalation    []RiskLevel // gap levels routed to individual validation
}

// Result is the complete outcome of an assessment run.
type Result struct {
	Mappings        []ControlMapping   `json:"control_mappings"`
	Gaps            []ControlGap       `json:"control_gaps"`
	Validations     []ValidationResult `json:"validation_results"`
	Tiers           PriorityTiers      `json:"prioritization"`
	ComplianceScore float64            `json:"overall_compliance_score"`
	Metrics         MetricsSnapshot    `json:"metrics"`
}

// Runner executes the assessment pipeline over a resolved control scope.
type Runner struct {
	validator   *KeywordValidator
	prioritizer *Prioritizer
	cfg         Config
}

// NewRunner builds a runner around the given validator. Zero config fields
// fall back to the documented defaults.
func NewRunner(validator *KeywordValidator, cfg Config) *Runner {
	if cfg.Mode == "" {
		cfg.Mode = scope.ModeDeep
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = constants.DefaultBatchValidationSize
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = constants.DefaultMaxConcurrentBatches
	}
	return &Runner{
		validator:   validator,
		prioritizer: NewPrioritizer(cfg.Escalation...),
		cfg:         cfg,
	}
}

// Run maps and validates every control in scope against the evidence,
// applying the configured mode strategy, and assembles the final result.
// Mappings, gaps, and validations come back in scope order regardless of
// batch scheduling.
func (r *Runner) Run(ctx context.Context, sessionID string, controlIDs []string, evidence []Evidence, report ProgressFunc) (*Result, error) {
	if len(evidence) == 0 {
		return nil, sharedErrors.ErrNoEvidence
	}

	metrics := NewMetrics(sessionID)
	metrics.Mode = r.cfg.Mode.String()
	metrics.ControlsInScope = len(controlIDs)

	evidenceIDs := make([]string, len(evidence))
	for i, e := range evidence {
		evidenceIDs[i] = e.ID
	}

	// Stage 1: map every control in scope from the evidence.
	emit(report, "mapping", 35, fmt.Sprintf("Mapping %d controls against %d evidence artifacts", len(controlIDs), len(evidence)))
	firstPass, err := r.validateConcurrently(ctx, controlIDs, evidence, report, "mapping", 35, 45)
	if err != nil {
		return nil, err
	}

	mappings := make([]ControlMapping, 0, len(controlIDs))
	gaps := make([]ControlGap, 0)
	for _, res := range firstPass {
		mapping, gap := Outcome(res, evidenceIDs)
		if mapping != nil {
			mappings = append(mappings, *mapping)
		}
		if gap != nil {
			gaps = append(gaps, *gap)
		}
	}
	metrics.TotalControls = len(mappings)
	metrics.BatchPasses += batchCount(len(controlIDs), r.cfg.BatchSize)
	emit(report, "mapping", 45, fmt.Sprintf("Mapped %d controls, identified %d gaps", len(mappings), len(gaps)))

	// Stage 2: mode-specific validation of the mapped controls.
	mappedIDs := make([]string, len(mappings))
	for i, m := range mappings {
		mappedIDs[i] = m.ControlID
	}

	var (
		validations []ValidationResult
		tiers       = PriorityTiers{Critical: []string{}, Standard: []string{}, Passing: []string{}}
	)

	switch r.cfg.Mode {
	case scope.ModeQuick:
		emit(report, "validating", 65, "Quick validation: batch processing controls")
		validations, err = r.validateConcurrently(ctx, mappedIDs, evidence, report, "validating", 65, 75)
		if err != nil {
			return nil, err
		}
		metrics.ControlsChecked = len(mappedIDs)
		metrics.BatchPasses += batchCount(len(mappedIDs), r.cfg.BatchSize)

	case scope.ModeSmart:
		emit(report, "validating", 65, "Smart validation: prioritizing controls")
		tiers = r.prioritizer.Prioritize(mappings, gaps)
		metrics.CriticalControls = len(tiers.Critical)
		metrics.StandardControls = len(tiers.Standard)
		metrics.PassingControls = len(tiers.Passing)

		standard, err := r.validateConcurrently(ctx, tiers.Standard, evidence, report, "validating", 66, 70)
		if err != nil {
			return nil, err
		}
		metrics.BatchPasses += batchCount(len(tiers.Standard), r.cfg.BatchSize)

		critical, err := r.validateIndividually(ctx, tiers.Critical, evidence, report, "validating", 70, 74)
		if err != nil {
			return nil, err
		}
		metrics.IndividualPasses += len(tiers.Critical)

		passing := []ValidationResult{}
		if r.cfg.SkipPassing {
			metrics.ControlsSkipped = len(tiers.Passing)
		} else if len(tiers.Passing) > 0 {
			passing, err = r.validateConcurrently(ctx, tiers.Passing, evidence, report, "validating", 74, 75)
			if err != nil {
				return nil, err
			}
			metrics.BatchPasses += batchCount(len(tiers.Passing), r.cfg.BatchSize)
		}

		metrics.ControlsChecked = len(tiers.Critical) + len(tiers.Standard) + len(passing)
		validations = append(append(standard, critical...), passing...)

	default: // deep
		emit(report, "validating", 65, fmt.Sprintf("Deep validation: %d controls individually", len(mappedIDs)))
		validations, err = r.validateIndividually(ctx, mappedIDs, evidence, report, "validating", 65, 75)
		if err != nil {
			return nil, err
		}
		metrics.ControlsChecked = len(mappedIDs)
		metrics.IndividualPasses += len(mappedIDs)
	}

	// Stage 3: finalize.
	emit(report, "finalizing", 93, "Calculating compliance score")
	metrics.GapsFound = len(gaps)
	for _, g := range gaps {
		if g.RiskLevel == RiskCritical {
			metrics.CriticalGaps++
		}
	}
	metrics.Finish()

	result := &Result{
		Mappings:        mappings,
		Gaps:            gaps,
		Validations:     validations,
		Tiers:           tiers,
		ComplianceScore: ComplianceScore(mappings, gaps),
		Metrics:         metrics.Snapshot(),
	}
	emit(report, "complete", 100, "Assessment complete")
	return result, nil
}

// validateConcurrently splits ids into batches and validates them on a
// bounded worker pool. Results come back in input order.
func (r *Runner) validateConcurrently(ctx context.Context, ids []string, evidence []Evidence, report ProgressFunc, stage string, fromPct, toPct int) ([]ValidationResult, error) {
	if len(ids) == 0 {
		return []ValidationResult{}, nil
	}

	batches := chunk(ids, r.cfg.BatchSize)
	perBatch := make([][]ValidationResult, len(batches))
	errs := make([]error, len(batches))

	limiter := r.limiter()
	sem := make(chan struct{}, r.cfg.MaxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0

	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if err := limiter.WaitN(ctx, len(batch)); err != nil {
				errs[i] = err
				return
			}

			results, err := r.validator.ValidateBatch(ctx, batch, evidence)
			if err != nil {
				errs[i] = err
				return
			}
			perBatch[i] = results

			mu.Lock()
			completed++
			pct := fromPct + (toPct-fromPct)*completed/len(batches)
			mu.Unlock()
			emit(report, stage, pct, fmt.Sprintf("Validated batch %d/%d", i+1, len(batches)))
		}(i, batch)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	out := make([]ValidationResult, 0, len(ids))
	for _, results := range perBatch {
		out = append(out, results...)
	}
	return out, nil
}

// validateIndividually validates each id on its own, in order.
func (r *Runner) validateIndividually(ctx context.Context, ids []string, evidence []Evidence, report ProgressFunc, stage string, fromPct, toPct int) ([]ValidationResult, error) {
	out := make([]ValidationResult, 0, len(ids))
	limiter := r.limiter()

	for i, id := range ids {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		res, err := r.validator.ValidateControl(ctx, id, evidence)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
		pct := fromPct + (toPct-fromPct)*(i+1)/len(ids)
		emit(report, stage, pct, fmt.Sprintf("Validated %s (%d/%d)", id, i+1, len(ids)))
	}
	return out, nil
}

// limiter builds the shared validation governor. Burst covers a whole
// batch so WaitN can reserve one batch's worth of tokens at once.
func (r *Runner) limiter() *rate.Limiter {
	if r.cfg.RateLimit > 0 {
		burst := r.cfg.RateLimit
		if r.cfg.BatchSize > burst {
			burst = r.cfg.BatchSize
		}
		return rate.NewLimiter(rate.Limit(r.cfg.RateLimit), burst)
	}
	return rate.NewLimiter(rate.Inf, 0)
}

func emit(report ProgressFunc, stage string, pct int, message string) {
	if report != nil {
		report(Progress{Stage: stage, Percent: pct, Message: message})
	}
}

func chunk(ids []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}

func batchCount(n, size int) int {
	if n == 0 {
		return 0
	}
	return (n + size - 1) / size
}
