package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

// auditEntryDTO is used for JSON export
type auditEntryDTO struct {
	Timestamp       time.Time `json:"timestamp"`
	SessionID       string    `json:"session_id"`
	Operator        string    `json:"operator"`
	Action          string    `json:"action"`
	Detail          string    `json:"detail"`
	Status          string    `json:"status"`
	Error           string    `json:"error,omitempty"`
	DurationSeconds float64   `json:"duration_seconds"`
}

// auditCmd is the parent command for audit-related operations
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit trail management and verification",
	Long: `Manage and verify audit trails for assessment sessions.

Audit trails provide an immutable record of every scope estimation and
assessment run, including timestamps, operators, actions, and results.
Each audit trail is cryptographically hashed to ensure integrity.`,
}

// auditVerifyCmd verifies the integrity of an audit trail
var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify audit trail integrity using cryptographic hash",
	Long: `Verify that an audit trail has not been tampered with by checking its cryptographic hash.

The audit trail is hashed using SHA256 or SHA512, and the hash is stored in a companion file.
This command recomputes the hash and compares it with the stored value.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		appCtx := getAppContext(cmd)

		sessionID, _ := cmd.Flags().GetString("id")
		if sessionID == "" {
			return errors.New("--id is required")
		}

		// Verify the session exists
		_, err := appCtx.Services.SessionService.GetSession(ctx, sessionID)
		if err != nil {
			if errors.Is(err, sharedErrors.ErrSessionNotFound) {
				return &SessionNotFoundError{ID: sessionID}
			}
			return fmt.Errorf("failed to get session: %w", err)
		}

		// Verify audit trail integrity using AuditService
		valid, err := appCtx.Services.AuditService.VerifyIntegrity(ctx, sessionID)
		if err != nil {
			if errors.Is(err, sharedErrors.ErrAuditTrailNotFound) {
				return fmt.Errorf("no audit trail found for session %s", sessionID)
			}
			return fmt.Errorf("failed to verify audit trail: %w", err)
		}

		auditPath := filepath.Join(appCtx.ResultsDir, sessionID, "audit.csv")

		if valid {
			fmt.Printf("%s Audit trail integrity verified: %s\n", colorSuccess("✓"), auditPath)
			fmt.Printf("%s The audit trail has NOT been tampered with\n", colorSuccess("✓"))
		} else {
			fmt.Printf("%s Audit trail integrity verification FAILED: %s\n", colorError("✗"), auditPath)
			fmt.Printf("%s WARNING: The audit trail may have been tampered with!\n", colorError("✗"))
			return fmt.Errorf("audit trail verification: %w", sharedErrors.ErrAuditIntegrityFailed)
		}

		return nil
	},
}

// auditListCmd lists audit trail entries for a session
var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit trail entries for a session",
	Long: `Display all audit trail entries for a given session.

Shows a tabular view of all recorded actions, including:
- Timestamp
- Operator
- Action
- Detail
- Status
- Duration`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		appCtx := getAppContext(cmd)

		sessionID, _ := cmd.Flags().GetString("id")
		if sessionID == "" {
			return errors.New("--id is required")
		}

		limit, _ := cmd.Flags().GetInt("limit")
		showAll, _ := cmd.Flags().GetBool("all")

		// Get session
		sess, err := appCtx.Services.SessionService.GetSession(ctx, sessionID)
		if err != nil {
			if errors.Is(err, sharedErrors.ErrSessionNotFound) {
				return &SessionNotFoundError{ID: sessionID}
			}
			return fmt.Errorf("failed to get session: %w", err)
		}

		// Get audit trail
		auditTrail, err := appCtx.Services.AuditService.GetAuditTrail(ctx, sessionID)
		if err != nil {
			if errors.Is(err, sharedErrors.ErrAuditTrailNotFound) {
				fmt.Printf("No audit trail found for session: %s\n", sess.Name())
				return nil
			}
			return fmt.Errorf("failed to get audit trail: %w", err)
		}

		entries := auditTrail.Entries()
		if len(entries) == 0 {
			fmt.Printf("No audit entries found for session: %s\n", sess.Name())
			return nil
		}

		fmt.Printf("Audit Trail for Session: %s\n", colorInfo(sess.Name()))
		fmt.Printf("Session ID: %s\n", sess.ID())
		fmt.Printf("Total Entries: %d\n", len(entries))

		if auditTrail.IsSealed() {
			fmt.Printf("Status: %s (Hash: %s)\n", colorSuccess("Sealed"), auditTrail.HashAlgorithm())
		} else {
			fmt.Printf("Status: %s\n", colorWarn("Unsealed"))
		}

		if auditTrail.IsSigned() {
			fmt.Printf("Signed: %s\n", colorSuccess("Yes"))
		}

		fmt.Println()

		// Determine how many entries to show
		entriesToShow := entries
		if !showAll && limit > 0 && len(entries) > limit {
			entriesToShow = entries[len(entries)-limit:]
			fmt.Printf("Showing last %d entries (use --all to show all %d entries)\n\n", limit, len(entries))
		}

		// Create table writer
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Timestamp\tOperator\tAction\tDetail\tStatus\tDuration")
		fmt.Fprintln(w, "---------\t--------\t------\t------\t------\t--------")

		for _, entry := range entriesToShow {
			timestamp := entry.Timestamp.Format("2006-01-02 15:04:05")
			duration := fmt.Sprintf("%.2fs", entry.DurationSeconds)

			// Color code the status
			statusStr := entry.Status
			if entry.Status == "ok" {
				statusStr = colorSuccess(entry.Status)
			} else {
				statusStr = colorError(entry.Status)
			}

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				timestamp,
				entry.Operator,
				entry.Action,
				entry.Detail,
				statusStr,
				duration,
			)
		}

		w.Flush()

		return nil
	},
}

// auditShowCmd shows detailed information about a session's audit trail
var auditShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show detailed audit trail information",
	Long:  `Display detailed information about a session's audit trail, including metadata and statistics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		appCtx := getAppContext(cmd)

		sessionID, _ := cmd.Flags().GetString("id")
		if sessionID == "" {
			return errors.New("--id is required")
		}

		// Get session
		sess, err := appCtx.Services.SessionService.GetSession(ctx, sessionID)
		if err != nil {
			if errors.Is(err, sharedErrors.ErrSessionNotFound) {
				return &SessionNotFoundError{ID: sessionID}
			}
			return fmt.Errorf("failed to get session: %w", err)
		}

		// Get audit trail
		auditTrail, err := appCtx.Services.AuditService.GetAuditTrail(ctx, sessionID)
		if err != nil {
			if errors.Is(err, sharedErrors.ErrAuditTrailNotFound) {
				fmt.Printf("No audit trail found for session: %s\n", sess.Name())
				return nil
			}
			return fmt.Errorf("failed to get audit trail: %w", err)
		}

		entries := auditTrail.Entries()

		// Print header
		fmt.Printf("\n%s Audit Trail Details\n", colorInfo("═══"))
		fmt.Println(strings.Repeat("═", 60))
		fmt.Println()

		// Session info
		fmt.Printf("%s: %s\n", colorInfo("Session"), sess.Name())
		fmt.Printf("%s: %s\n", colorInfo("ID"), sess.ID())
		fmt.Printf("%s: %s\n", colorInfo("Operator"), sess.Operator())
		fmt.Println()

		// Audit trail metadata
		fmt.Printf("%s: %d\n", colorInfo("Total Entries"), len(entries))
		fmt.Printf("%s: %s\n", colorInfo("Created"), auditTrail.CreatedAt().Format(time.RFC3339))

		if auditTrail.IsSealed() {
			fmt.Printf("%s: %s\n", colorSuccess("Status"), "Sealed")
			fmt.Printf("%s: %s\n", colorInfo("Hash Algorithm"), auditTrail.HashAlgorithm())
			fmt.Printf("%s: %s\n", colorInfo("Hash"), auditTrail.Hash())
		} else {
			fmt.Printf("%s: %s\n", colorWarn("Status"), "Unsealed")
		}

		if auditTrail.IsSigned() {
			fmt.Printf("%s: %s\n", colorSuccess("GPG Signed"), "Yes")
		}

		// Statistics
		if len(entries) > 0 {
			fmt.Println()
			fmt.Printf("%s\n", colorInfo("Statistics:"))

			okCount := 0
			errorCount := 0
			var totalDuration float64
			operators := make(map[string]int)
			actions := make(map[string]int)

			for _, entry := range entries {
				if entry.Status == "ok" {
					okCount++
				} else {
					errorCount++
				}
				totalDuration += entry.DurationSeconds
				operators[entry.Operator]++
				actions[entry.Action]++
			}

			fmt.Printf("  Success: %s | Errors: %s\n",
				colorSuccess(fmt.Sprintf("%d", okCount)),
				colorError(fmt.Sprintf("%d", errorCount)))
			fmt.Printf("  Total Duration: %.2fs\n", totalDuration)
			fmt.Printf("  Average Duration: %.2fs\n", totalDuration/float64(len(entries)))

			fmt.Printf("  Operators: %v\n", operators)
			fmt.Printf("  Actions: %v\n", actions)
		}

		// File location
		fmt.Println()
		auditPath := filepath.Join(appCtx.ResultsDir, sessionID, "audit.csv")
		fmt.Printf("%s: %s\n", colorInfo("File"), auditPath)

		fmt.Println()
		fmt.Println(strings.Repeat("═", 60))

		return nil
	},
}

// auditExportCmd exports audit trail to different formats
var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export audit trail to different formats",
	Long:  `Export the audit trail to JSON or CSV for external analysis.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		appCtx := getAppContext(cmd)

		sessionID, _ := cmd.Flags().GetString("id")
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		if sessionID == "" {
			return errors.New("--id is required")
		}

		// Get audit trail
		auditTrail, err := appCtx.Services.AuditService.GetAuditTrail(ctx, sessionID)
		if err != nil {
			if errors.Is(err, sharedErrors.ErrAuditTrailNotFound) {
				return fmt.Errorf("no audit trail found for session %s", sessionID)
			}
			return fmt.Errorf("failed to get audit trail: %w", err)
		}

		// Default output to stdout
		var outFile *os.File
		if output == "" || output == "-" {
			outFile = os.Stdout
		} else {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			outFile = f
		}

		switch format {
		case "csv":
			writer := csv.NewWriter(outFile)
			defer writer.Flush()

			// Write header
			writer.Write([]string{"timestamp", "session_id", "operator", "action", "detail", "status", "error", "duration_seconds"})

			// Write entries
			for _, entry := range auditTrail.Entries() {
				writer.Write([]string{
					entry.Timestamp.Format(time.RFC3339),
					entry.SessionID,
					entry.Operator,
					entry.Action,
					entry.Detail,
					entry.Status,
					entry.Error,
					fmt.Sprintf("%.3f", entry.DurationSeconds),
				})
			}

		case "json":
			entries := auditTrail.Entries()
			dtos := make([]auditEntryDTO, len(entries))
			for i, entry := range entries {
				dtos[i] = auditEntryDTO{
					Timestamp:       entry.Timestamp,
					SessionID:       entry.SessionID,
					Operator:        entry.Operator,
					Action:          entry.Action,
					Detail:          entry.Detail,
					Status:          entry.Status,
					Error:           entry.Error,
					DurationSeconds: entry.DurationSeconds,
				}
			}

			b, err := json.MarshalIndent(dtos, jsonPrefix, jsonIndent)
			if err != nil {
				return fmt.Errorf("failed to encode audit trail: %w", err)
			}
			fmt.Fprintln(outFile, string(b))

		default:
			return fmt.Errorf("unsupported format: %s (supported: csv, json)", format)
		}

		if output != "" && output != "-" {
			fmt.Printf("%s Audit trail exported to: %s\n", colorSuccess("✓"), output)
		}

		return nil
	},
}

func init() {
	// Verify command flags
	auditVerifyCmd.Flags().String("id", "", "Session ID")

	// List command flags
	auditListCmd.Flags().String("id", "", "Session ID")
	auditListCmd.Flags().Int("limit", 20, "Number of recent entries to show (0 for all)")
	auditListCmd.Flags().Bool("all", false, "Show all entries")

	// Show command flags
	auditShowCmd.Flags().String("id", "", "Session ID")

	// Export command flags
	auditExportCmd.Flags().String("id", "", "Session ID")
	auditExportCmd.Flags().String("format", "json", "Export format (json, csv)")
	auditExportCmd.Flags().String("output", "", "Output file (default: stdout)")

	// Add subcommands to audit command
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditShowCmd)
	auditCmd.AddCommand(auditExportCmd)
}
