package application

import (
	"fmt"

	assessmentapp "github.com/nca-tools/nca-cli/internal/application/assessment"
	auditapp "github.com/nca-tools/nca-cli/internal/application/audit"
	sessionapp "github.com/nca-tools/nca-cli/internal/application/session"
	"github.com/nca-tools/nca-cli/internal/assess"
	"github.com/nca-tools/nca-cli/internal/catalog"
	"github.com/nca-tools/nca-cli/internal/domain/assessment"
	"github.com/nca-tools/nca-cli/internal/domain/audit"
	"github.com/nca-tools/nca-cli/internal/domain/session"
	"github.com/nca-tools/nca-cli/internal/infrastructure/oscal"
	"github.com/nca-tools/nca-cli/internal/infrastructure/persistence/json"
	"github.com/nca-tools/nca-cli/internal/scope"
)

// Config carries the wiring inputs for the container. CatalogPath and
// ProfilePath are optional; without a catalog file, scope resolution and
// estimation run against the built-in control universe but assessments
// cannot start.
type Config struct {
	DataDir        string
	ResultsDir     string
	CatalogPath    string
	ProfilePath    string
	RatePerMillion float64
}

// Container holds all application services and repositories
// This is a simple dependency injection container
type Container struct {
	// Repositories
	SessionRepo    session.Repository
	AssessmentRepo assessment.Repository
	AuditRepo      audit.Repository

	// Catalog is the control universe and baseline profiles in effect.
	// OSCAL is the loaded catalog file, nil when none was configured.
	Catalog *catalog.Catalog
	OSCAL   *oscal.Catalog

	Resolver  *scope.Resolver
	Estimator *scope.Estimator

	// Services
	SessionService *sessionapp.Service
	Orchestrator   *assessmentapp.Orchestrator
	AuditService   *auditapp.Service
}

// NewContainer creates a new application service container
func NewContainer(cfg Config) (*Container, error) {
	// Initialize repositories
	sessionRepo, err := json.NewSessionRepository(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create session repository: %w", err)
	}

	assessmentRepo, err := json.NewAssessmentRepository(cfg.ResultsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create assessment repository: %w", err)
	}

	auditRepo, err := json.NewAuditRepository(cfg.ResultsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit repository: %w", err)
	}

	// Build the control catalog, optionally backed by an OSCAL file and a
	// custom baseline profile
	var opts catalog.Options
	var oscalCat *oscal.Catalog
	if cfg.CatalogPath != "" {
		oscalCat, err = oscal.Load(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		opts.Universe = oscalCat.ControlIDs()
	}
	if cfg.ProfilePath != "" {
		profile, err := oscal.LoadProfile(cfg.ProfilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
		opts.CustomProfile = profile
	}
	cat := catalog.NewWithOptions(opts)

	resolver := scope.NewResolver(cat)
	estimator := scope.NewEstimator(cfg.RatePerMillion)

	var source assess.RequirementsSource
	if oscalCat != nil {
		source = oscalCat
	}

	// Initialize services
	sessionService := sessionapp.NewService(sessionRepo)
	orchestrator := assessmentapp.NewOrchestrator(sessionRepo, assessmentRepo, auditRepo, resolver, estimator, source)
	auditService := auditapp.NewService(auditRepo)

	return &Container{
		SessionRepo:    sessionRepo,
		AssessmentRepo: assessmentRepo,
		AuditRepo:      auditRepo,
		Catalog:        cat,
		OSCAL:          oscalCat,
		Resolver:       resolver,
		Estimator:      estimator,
		SessionService: sessionService,
		Orchestrator:   orchestrator,
		AuditService:   auditService,
	}, nil
}
