package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nca-tools/nca-cli/internal/assess"
	"github.com/nca-tools/nca-cli/internal/scope"
	consts "github.com/nca-tools/nca-cli/internal/shared/constants"
	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

// evidenceFile allows either a bare JSON array of evidence items or an
// object wrapping them under an "evidence" key.
type evidenceFile struct {
	Evidence []assess.Evidence `json:"evidence"`
}

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Run evidence-driven compliance assessments",
}

var assessEstimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate a session's scope without running it",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		appCtx := getAppContext(cmd)

		sessionID := cmd.Flag("session").Value.String()
		if sessionID == "" {
			return errors.New("--session is required")
		}
		if err := validateSessionID(sessionID); err != nil {
			return err
		}

		controls, estimate, err := appCtx.Services.Orchestrator.EstimateSession(ctx, sessionID)
		if err != nil {
			if errors.Is(err, sharedErrors.ErrSessionNotFound) {
				return &SessionNotFoundError{ID: sessionID}
			}
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			dto := struct {
				SessionID string         `json:"session_id"`
				Controls  []string       `json:"controls"`
				Estimate  scope.Estimate `json:"estimate"`
			}{sessionID, controls, estimate}
			b, _ := json.MarshalIndent(dto, jsonPrefix, jsonIndent)
			fmt.Println(string(b))
			return nil
		}

		fmt.Printf("%s Session %s resolves to %d control(s)\n\n", colorInfo("→"), sessionID, len(controls))
		printEstimate(estimate)
		return nil
	},
}

var assessRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the assessment pipeline for a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		appCtx := getAppContext(cmd)
		runtimeCfg := appCtx.Config.Assess
		startTime := time.Now()

		// Setup signal handling
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		go func() {
			select {
			case sig := <-sigCh:
				fmt.Printf("\n%s Received %s, finalizing partial results...\n", colorWarn("!"), sig.String())
				cancel()
			case <-ctx.Done():
			}
		}()

		// Parse flags
		sessionID := cmd.Flag("session").Value.String()
		evidencePath := cmd.Flag("evidence").Value.String()

		if sessionID == "" {
			return errors.New("--session is required")
		}
		if err := validateSessionID(sessionID); err != nil {
			return err
		}
		if evidencePath == "" {
			return errors.New("--evidence is required")
		}

		// Validate session using service
		sess, err := appCtx.Services.SessionService.GetSession(ctx, sessionID)
		if err != nil {
			if errors.Is(err, sharedErrors.ErrSessionNotFound) {
				return &SessionNotFoundError{ID: sessionID}
			}
			return fmt.Errorf("failed to get session: %w", err)
		}

		if err := appCtx.Services.SessionService.ValidateSessionForRun(ctx, sessionID); err != nil {
			return fmt.Errorf("session validation failed: %w", err)
		}

		// A --mode override rewrites the session scope before the run;
		// the orchestrator always takes the mode from the session.
		if modeFlag, _ := cmd.Flags().GetString("mode"); cmd.Flags().Changed("mode") && modeFlag != "" {
			mode, err := scope.ParseMode(modeFlag)
			if err != nil {
				return err
			}
			if mode != sess.Scope().Mode {
				sc := sess.Scope()
				sc.Mode = mode
				sess, err = appCtx.Services.SessionService.UpdateScope(ctx, sessionID, sc)
				if err != nil {
					return fmt.Errorf("failed to update session mode: %w", err)
				}
			}
		}

		evidence, err := loadEvidenceFile(evidencePath)
		if err != nil {
			return err
		}

		fmt.Printf("%s Starting assessment for session: %s\n", colorInfo("→"), sess.Name())
		fmt.Printf("%s Mode: %s | Evidence items: %d\n", colorInfo("→"), sess.Scope().Mode, len(evidence))
		fmt.Println()

		runCfg := assess.Config{
			BatchSize:     runtimeCfg.BatchSize,
			MaxConcurrent: runtimeCfg.MaxConcurrent,
			RateLimit:     runtimeCfg.RateLimit,
			SkipPassing:   runtimeCfg.SkipPassing,
		}

		if escalate, _ := cmd.Flags().GetStringSlice("escalate"); len(escalate) > 0 {
			levels := make([]assess.RiskLevel, 0, len(escalate))
			for _, raw := range escalate {
				level, err := assess.ParseRiskLevel(strings.ToLower(strings.TrimSpace(raw)))
				if err != nil {
					return err
				}
				levels = append(levels, level)
			}
			runCfg.Escalation = levels
		}

		// Progress tracking
		var progress *progressPrinter
		var report assess.ProgressFunc
		if runtimeCfg.ProgressEnabled {
			progress = newProgressPrinter("assess")
			progress.Start()
			report = func(p assess.Progress) {
				progress.Update(p.Stage, p.Percent, p.Message)
			}
		}

		asmt, runErr := appCtx.Services.Orchestrator.RunAssessment(ctx, sessionID, evidence, runCfg, report)

		if progress != nil {
			progress.Stop()
		}

		if runErr != nil {
			return fmt.Errorf("assessment failed: %w", runErr)
		}

		runDuration := time.Since(startTime)
		if runtimeCfg.TelemetryEnabled {
			if err := recordTelemetry(appCtx, sessionID, "assess run", asmt, runDuration); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to record telemetry: %v\n", err)
			}
		}

		metrics := asmt.Metrics()
		fmt.Printf("\n%s Assessment complete\n", colorSuccess("✓"))
		fmt.Printf("%s Compliance score: %.1f%%\n", colorInfo("→"), asmt.ComplianceScore())
		fmt.Printf("%s Controls: %d in scope | checked %d | skipped %d\n",
			colorInfo("→"), metrics.Scope.ControlsInScope, metrics.Processing.Checked, metrics.Processing.Skipped)
		fmt.Printf("%s Mapped: %d | Gaps: %d\n", colorInfo("→"), len(asmt.Mappings()), len(asmt.Gaps()))
		printGapBreakdown(asmt.Gaps())
		fmt.Printf("%s Tokens estimated: %d | Duration: %.1fs\n",
			colorInfo("→"), metrics.Processing.TokensEstimated, runDuration.Seconds())

		// Seal audit trail
		hashAlgo := runtimeCfg.HashAlgorithm
		if hashAlgo == "" {
			hashAlgo = HashAlgorithmSHA256.String()
		}

		auditHash, err := appCtx.Services.AuditService.SealAuditTrail(ctx, sessionID, hashAlgo)
		if err != nil {
			return fmt.Errorf("failed to seal audit trail: %w", err)
		}

		if err := appCtx.Services.Orchestrator.FinalizeAssessment(ctx, asmt, auditHash, hashAlgo); err != nil {
			return fmt.Errorf("failed to finalize assessment: %w", err)
		}

		if runtimeCfg.AutoSign {
			if err := signAuditTrail(ctx, appCtx, sessionID, runtimeCfg.GPGKey); err != nil {
				return err
			}
			fmt.Printf("%s Audit trail signed with GPG key %s\n", colorSuccess("✓"), runtimeCfg.GPGKey)
		}

		resultsPath := filepath.Join(appCtx.ResultsDir, sessionID, "assessment_results.json")
		auditPath := filepath.Join(appCtx.ResultsDir, sessionID, "audit.csv")

		// Optional copy of the results file to a caller-chosen path
		if outputPath, _ := cmd.Flags().GetString("output"); outputPath != "" {
			if err := copyFile(resultsPath, outputPath); err != nil {
				return fmt.Errorf("failed to write output copy: %w", err)
			}
			fmt.Printf("%s Output: %s\n", colorSuccess("→"), outputPath)
		}

		fmt.Println()
		fmt.Printf("%s Results: %s\n", colorSuccess("→"), resultsPath)
		fmt.Printf("%s Audit: %s\n", colorSuccess("→"), auditPath)
		fmt.Printf("%s Audit hash (%s): %s\n", colorSuccess("→"), hashAlgo, auditHash)

		return nil
	},
}

// loadEvidenceFile parses an evidence JSON file, fills in generated IDs,
// and enforces the per-item size cap.
func loadEvidenceFile(path string) ([]assess.Evidence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read evidence file: %w", err)
	}

	var items []assess.Evidence
	if err := json.Unmarshal(data, &items); err != nil {
		var wrapper evidenceFile
		if err2 := json.Unmarshal(data, &wrapper); err2 != nil {
			return nil, fmt.Errorf("parse evidence file %s: %w", path, err)
		}
		items = wrapper.Evidence
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s", sharedErrors.ErrNoEvidence, path)
	}

	for i := range items {
		if strings.TrimSpace(items[i].Text) == "" {
			return nil, fmt.Errorf("%w: evidence item %d has empty text", sharedErrors.ErrInvalidInput, i+1)
		}
		if len(items[i].Text) > consts.MaxEvidenceBytes {
			return nil, fmt.Errorf("%w: evidence item %d exceeds %d bytes", sharedErrors.ErrInvalidInput, i+1, consts.MaxEvidenceBytes)
		}
		if items[i].ID == "" {
			items[i].ID = fmt.Sprintf("ev-%d", i+1)
		}
		if items[i].Source == "" {
			items[i].Source = filepath.Base(path)
		}
	}

	return items, nil
}

// printGapBreakdown prints gap counts per risk level, highest first.
func printGapBreakdown(gaps []assess.ControlGap) {
	if len(gaps) == 0 {
		return
	}

	counts := make(map[assess.RiskLevel]int)
	for _, g := range gaps {
		counts[g.RiskLevel]++
	}

	levels := make([]assess.RiskLevel, 0, len(counts))
	for level := range counts {
		levels = append(levels, level)
	}
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Rank() > levels[j].Rank()
	})

	parts := make([]string, 0, len(levels))
	for _, level := range levels {
		parts = append(parts, fmt.Sprintf("%s: %d", formatRiskWithColor(level.String()), counts[level]))
	}
	fmt.Printf("%s Gap severity: %s\n", colorInfo("→"), strings.Join(parts, " | "))
}

// signAuditTrail produces a detached armored signature of the audit CSV
// and records it through the audit service.
func signAuditTrail(ctx context.Context, appCtx *AppContext, sessionID, gpgKey string) error {
	if gpgKey == "" {
		return errors.New("--gpg-key required with --auto-sign")
	}
	if err := validateGPGKey(gpgKey); err != nil {
		return fmt.Errorf("invalid gpg key: %w", err)
	}

	auditPath, err := resolveResultsPath(appCtx.ResultsDir, sessionID, "audit.csv")
	if err != nil {
		return err
	}

	gpgCmd := exec.Command("gpg", "--armor", "--local-user", gpgKey, "--detach-sign", "--output", "-", auditPath) // #nosec G204 -- arguments are validated and passed directly without shell expansion.
	var buf bytes.Buffer
	gpgCmd.Stdout = &buf
	gpgCmd.Stderr = os.Stderr
	if err := gpgCmd.Run(); err != nil {
		return fmt.Errorf("failed to sign audit trail: %w", err)
	}

	if err := appCtx.Services.AuditService.SignAuditTrail(ctx, sessionID, buf.String()); err != nil {
		return fmt.Errorf("failed to record signature: %w", err)
	}

	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, consts.DefaultFilePerm)
}

func init() {
	// Parent flags shared by assessment runs
	assessCmd.PersistentFlags().BoolVar(&cliConfig.Assess.TelemetryEnabled, "telemetry", cliConfig.Assess.TelemetryEnabled, "Record a telemetry line for each run")
	assessCmd.PersistentFlags().BoolVar(&cliConfig.Assess.ProgressEnabled, "progress", cliConfig.Assess.ProgressEnabled, "Show live pipeline progress")
	assessCmd.PersistentFlags().BoolVar(&cliConfig.Assess.AutoSign, "auto-sign", cliConfig.Assess.AutoSign, "Sign the sealed audit trail with GPG")
	assessCmd.PersistentFlags().StringVar(&cliConfig.Assess.GPGKey, "gpg-key", cliConfig.Assess.GPGKey, "GPG key ID used with --auto-sign")
	assessCmd.PersistentFlags().StringVar(&cliConfig.Assess.HashAlgorithm, "hash-algorithm", cliConfig.Assess.HashAlgorithm, "Audit seal hash algorithm (sha256, sha512)")

	// Estimate flags
	assessEstimateCmd.Flags().String("session", "", "Session ID")
	assessEstimateCmd.Flags().Bool("json", false, "Output as JSON")

	// Run flags
	assessRunCmd.Flags().String("session", "", "Session ID")
	assessRunCmd.Flags().String("evidence", "", "Path to an evidence JSON file")
	assessRunCmd.Flags().String("mode", "", "Override the session's assessment mode for this run")
	assessRunCmd.Flags().String("output", "", "Also write the results JSON to this path")
	assessRunCmd.Flags().IntVar(&cliConfig.Assess.BatchSize, "batch-size", cliConfig.Assess.BatchSize, "Controls per validation batch")
	assessRunCmd.Flags().IntVar(&cliConfig.Assess.MaxConcurrent, "max-concurrent", cliConfig.Assess.MaxConcurrent, "Concurrent validation batches")
	assessRunCmd.Flags().IntVar(&cliConfig.Assess.RateLimit, "rate-limit", cliConfig.Assess.RateLimit, "Validations per second (0 = unlimited)")
	assessRunCmd.Flags().BoolVar(&cliConfig.Assess.SkipPassing, "skip-passing", cliConfig.Assess.SkipPassing, "Smart mode: skip re-validating passing controls")
	assessRunCmd.Flags().StringSlice("escalate", nil, "Gap risk levels routed to individual validation (default high,critical)")

	assessCmd.AddCommand(assessEstimateCmd)
	assessCmd.AddCommand(assessRunCmd)
}
