package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nca-tools/nca-cli/internal/api"
	"github.com/nca-tools/nca-cli/internal/assess"
	"github.com/nca-tools/nca-cli/internal/catalog"
	"github.com/nca-tools/nca-cli/internal/scope"
)

// jobTimeout caps background assessment runs so an abandoned request
// cannot pin a worker goroutine forever.
const jobTimeout = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run NCA-CLI as a REST API service",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		addr, _ := cmd.Flags().GetString("addr")
		apiToken, _ := cmd.Flags().GetString("api-token")
		shutdownTimeout, _ := cmd.Flags().GetDuration("shutdown-timeout")
		corsOrigins, _ := cmd.Flags().GetStringSlice("cors-origins")
		rateLimit, _ := cmd.Flags().GetInt("rate-limit")
		rateBurst, _ := cmd.Flags().GetInt("rate-burst")

		// Initialize structured logger
		logger, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer func() {
			if err := logger.Sync(); err != nil {
				fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
			}
		}()

		jobManager := api.NewJobManager()

		server := api.NewServer(api.Config{
			Catalog:     &catalogAPIService{appCtx: appCtx},
			Assessments: &assessmentAPIService{appCtx: appCtx, jobs: jobManager},
			Health:      &healthAPIService{appCtx: appCtx},
			Jobs:        &jobAPIService{manager: jobManager},
			AuthToken:   apiToken,
			Logger:      logger,
			CORSOrigins: corsOrigins,
			RateLimit:   rateLimit,
			RateBurst:   rateBurst,
		})

		httpServer := &http.Server{
			Addr:         addr,
			Handler:      server,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		// Channel to listen for errors from the server
		serverErrors := make(chan error, 1)

		// Start server in a goroutine
		go func() {
			fmt.Printf("%s API server listening on %s (results dir: %s)\n", colorInfo("→"), addr, appCtx.ResultsDir)
			fmt.Printf("%s Press Ctrl+C to gracefully shutdown\n", colorInfo("→"))
			serverErrors <- httpServer.ListenAndServe()
		}()

		// Channel to listen for interrupt signals
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Block until we receive a signal or an error
		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
		case sig := <-shutdown:
			fmt.Printf("\n%s Received signal %v, initiating graceful shutdown...\n", colorInfo("→"), sig)

			// Create context with timeout for shutdown
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			// Attempt graceful shutdown
			if err := httpServer.Shutdown(ctx); err != nil {
				// Force close if graceful shutdown fails
				if closeErr := httpServer.Close(); closeErr != nil {
					return fmt.Errorf("failed to gracefully shutdown server: %w (close error: %v)", err, closeErr)
				}
				return fmt.Errorf("failed to gracefully shutdown server: %w", err)
			}

			fmt.Printf("%s Server shutdown complete\n", colorSuccess("✓"))
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Address for the API server")
	serveCmd.Flags().String("api-token", "", "Optional shared secret for API requests")
	serveCmd.Flags().Duration("shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")
	serveCmd.Flags().StringSlice("cors-origins", []string{}, "Allowed CORS origins (empty = allow all)")
	serveCmd.Flags().Int("rate-limit", 10, "Rate limit per IP (requests/second, 0 = disabled)")
	serveCmd.Flags().Int("rate-burst", 20, "Rate limit burst size")
}

type catalogAPIService struct {
	appCtx *AppContext
}

func (s *catalogAPIService) Baselines(ctx context.Context) ([]api.Baseline, error) {
	infos := s.appCtx.Services.Catalog.Baselines()
	resp := make([]api.Baseline, 0, len(infos))
	for _, info := range infos {
		resp = append(resp, api.Baseline{
			ID:           info.ID,
			Name:         info.Name,
			ControlCount: info.ControlCount,
			Description:  info.Description,
		})
	}
	return resp, nil
}

func (s *catalogAPIService) ControlFamilies(ctx context.Context) ([]api.ControlFamily, error) {
	families := catalog.Families()
	resp := make([]api.ControlFamily, 0, len(families))
	for _, fam := range families {
		resp = append(resp, api.ControlFamily{
			Code:         fam.Code,
			Name:         fam.Name,
			ControlCount: fam.ControlCount,
			Technical:    fam.Technical,
		})
	}
	return resp, nil
}

func (s *catalogAPIService) Controls(ctx context.Context, family string) ([]api.ControlSummary, error) {
	oscalCatalog := s.appCtx.Services.OSCAL
	if oscalCatalog == nil {
		return nil, fmt.Errorf("control catalog not loaded")
	}

	family = strings.ToUpper(strings.TrimSpace(family))
	if family != "" && !catalog.IsValidFamilyCode(family) {
		return nil, fmt.Errorf("unknown control family: %s", family)
	}

	var summaries []api.ControlSummary
	appendFamily := func(code string) {
		for _, c := range oscalCatalog.ControlsByFamily(code) {
			summaries = append(summaries, api.ControlSummary{
				ID:         c.ID,
				Title:      c.Title,
				FamilyCode: c.FamilyCode,
			})
		}
	}

	if family != "" {
		appendFamily(family)
		return summaries, nil
	}
	for _, fam := range oscalCatalog.Families() {
		appendFamily(fam.ID)
	}
	return summaries, nil
}

func (s *catalogAPIService) PredefinedScopes(ctx context.Context) ([]api.PredefinedScope, error) {
	presets := scope.Presets()
	resp := make([]api.PredefinedScope, 0, len(presets))
	for _, p := range presets {
		resp = append(resp, api.PredefinedScope{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Families:    append([]string(nil), p.Families...),
			Icon:        p.Icon,
			Baseline:    p.Baseline.String(),
		})
	}
	return resp, nil
}

type assessmentAPIService struct {
	appCtx *AppContext
	jobs   *api.JobManager
}

// scopeFromRequest translates the wire scope into the domain value object.
func scopeFromRequest(req api.ScopeRequest) (scope.Scope, error) {
	baseline, err := catalog.ParseLevel(strings.ToLower(strings.TrimSpace(req.Baseline)))
	if err != nil {
		return scope.Scope{}, err
	}

	mode := scope.DefaultMode
	if req.Mode != "" {
		mode, err = scope.ParseMode(strings.ToLower(req.Mode))
		if err != nil {
			return scope.Scope{}, err
		}
	}

	families := make([]string, 0, len(req.ControlFamilies))
	for _, f := range req.ControlFamilies {
		families = append(families, strings.ToUpper(strings.TrimSpace(f)))
	}
	controls := make([]string, 0, len(req.SpecificControls))
	for _, c := range req.SpecificControls {
		controls = append(controls, strings.ToUpper(strings.TrimSpace(c)))
	}

	sc := scope.New(baseline, families, controls, mode)
	if err := sc.Validate(); err != nil {
		return scope.Scope{}, err
	}
	return sc, nil
}

func (s *assessmentAPIService) EstimateScope(ctx context.Context, req api.ScopeRequest) (*api.ScopeEstimate, error) {
	sc, err := scopeFromRequest(req)
	if err != nil {
		return nil, err
	}

	ids := s.appCtx.Services.Resolver.Resolve(sc)
	estimate := s.appCtx.Services.Estimator.Estimate(len(ids), sc.Mode)

	return &api.ScopeEstimate{
		ControlCount: len(ids),
		Controls:     ids,
		Estimate: api.Estimate{
			ControlCount:     estimate.ControlCount,
			EstimatedTokens:  estimate.EstimatedTokens,
			EstimatedMinutes: estimate.EstimatedMinutes,
			EstimatedCostUSD: estimate.EstimatedCostUSD,
			Mode:             estimate.Mode,
		},
	}, nil
}

func (s *assessmentAPIService) StartAssessment(ctx context.Context, req api.AssessRequest) (*api.AssessAccepted, error) {
	if req.SessionName == "" {
		return nil, fmt.Errorf("session_name is required")
	}
	if len(req.Evidence) == 0 {
		return nil, fmt.Errorf("evidence is required")
	}

	sc, err := scopeFromRequest(req.Scope)
	if err != nil {
		return nil, err
	}

	operator := strings.TrimSpace(req.Operator)
	if operator == "" {
		operator = s.appCtx.Operator
	}

	evidence := make([]assess.Evidence, 0, len(req.Evidence))
	for i, item := range req.Evidence {
		if strings.TrimSpace(item.Text) == "" {
			return nil, fmt.Errorf("evidence item %d has empty text", i+1)
		}
		id := item.ID
		if id == "" {
			id = fmt.Sprintf("ev-%d", i+1)
		}
		evidence = append(evidence, assess.Evidence{ID: id, Source: item.Source, Text: item.Text})
	}

	sess, err := s.appCtx.Services.SessionService.CreateSession(ctx, req.SessionName, operator, sc)
	if err != nil {
		return nil, err
	}

	job := s.jobs.CreateJob("assess", sess.ID())
	go s.execute(job.ID, sess.ID(), evidence)

	return &api.AssessAccepted{SessionID: sess.ID(), JobID: job.ID}, nil
}

func (s *assessmentAPIService) execute(jobID, sessionID string, evidence []assess.Evidence) {
	now := time.Now()
	s.jobs.UpdateJob(jobID, func(j *api.Job) {
		j.Status = "running"
		j.StartedAt = &now
	})

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	runtimeCfg := s.appCtx.Config.Assess
	runCfg := assess.Config{
		BatchSize:     runtimeCfg.BatchSize,
		MaxConcurrent: runtimeCfg.MaxConcurrent,
		RateLimit:     runtimeCfg.RateLimit,
		SkipPassing:   runtimeCfg.SkipPassing,
	}

	if _, err := s.appCtx.Services.Orchestrator.RunAssessment(ctx, sessionID, evidence, runCfg, nil); err != nil {
		errTime := time.Now()
		s.jobs.UpdateJob(jobID, func(j *api.Job) {
			j.Status = "error"
			j.Error = err.Error()
			j.FinishedAt = &errTime
		})
		return
	}

	doneTime := time.Now()
	s.jobs.UpdateJob(jobID, func(j *api.Job) {
		j.Status = "done"
		j.FinishedAt = &doneTime
	})
}

func (s *assessmentAPIService) SessionStatus(ctx context.Context, sessionID string) (*api.SessionStatus, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	sess, err := s.appCtx.Services.SessionService.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	progress := sess.Progress()
	return &api.SessionStatus{
		SessionID: sess.ID(),
		Status:    string(sess.Status()),
		Stage:     progress.Stage,
		Progress:  progress.Percent,
		Message:   progress.Message,
		Error:     progress.Error,
	}, nil
}

func (s *assessmentAPIService) Results(ctx context.Context, sessionID string) ([]byte, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	sess, err := s.appCtx.Services.SessionService.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.IsFinished() {
		stage := sess.Progress().Stage
		if stage == "" {
			stage = string(sess.Status())
		}
		return nil, fmt.Errorf("%w: %s", api.ErrResultsPending, stage)
	}

	path, err := resolveResultsPath(s.appCtx.ResultsDir, sessionID, "assessment_results.json")
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (s *assessmentAPIService) DeleteSession(ctx context.Context, sessionID string) (*api.SessionDeleted, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	if err := s.appCtx.Services.SessionService.DeleteSession(ctx, sessionID); err != nil {
		return nil, err
	}

	deleted := []string{"session"}
	if resultsPath, err := resolveResultsPath(s.appCtx.ResultsDir, sessionID); err == nil {
		if err := os.RemoveAll(resultsPath); err == nil {
			deleted = append(deleted, "results")
		}
	}

	return &api.SessionDeleted{
		SessionID: sessionID,
		Deleted:   deleted,
		Message:   fmt.Sprintf("session %s deleted", sessionID),
	}, nil
}

type healthAPIService struct {
	appCtx *AppContext
}

func (s *healthAPIService) Check(ctx context.Context) error {
	if s.appCtx.ResultsDir == "" {
		return fmt.Errorf("results directory not configured")
	}
	return nil
}

func (s *healthAPIService) Ready(ctx context.Context) error {
	if s.appCtx.Services.OSCAL == nil {
		return fmt.Errorf("control catalog not loaded")
	}
	return nil
}

type jobAPIService struct {
	manager *api.JobManager
}

func (s *jobAPIService) GetJob(ctx context.Context, id string) (*api.Job, error) {
	job := s.manager.GetJob(id)
	if job == nil {
		return nil, fmt.Errorf("job not found")
	}
	return job, nil
}

func (s *jobAPIService) ListJobs(ctx context.Context, limit int) ([]api.Job, error) {
	jobs := s.manager.ListJobs(limit)
	return jobs, nil
}

func (s *jobAPIService) Subscribe() (chan api.Job, func()) {
	return s.manager.Subscribe()
}
