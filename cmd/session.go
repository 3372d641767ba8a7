package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nca-tools/nca-cli/internal/domain/session"
	"github.com/nca-tools/nca-cli/internal/scope"
	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

// sessionDTO is used for JSON output
type sessionDTO struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Operator    string      `json:"operator"`
	Scope       scope.Scope `json:"scope"`
	Status      string      `json:"status"`
	Stage       string      `json:"stage,omitempty"`
	Percent     int         `json:"progress,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// toDTO converts domain entity to DTO for JSON output
func sessionToDTO(sess *session.Session) sessionDTO {
	dto := sessionDTO{
		ID:        sess.ID(),
		Name:      sess.Name(),
		Operator:  sess.Operator(),
		Scope:     sess.Scope(),
		Status:    string(sess.Status()),
		Stage:     sess.Progress().Stage,
		Percent:   sess.Progress().Percent,
		CreatedAt: sess.CreatedAt(),
	}
	if done := sess.CompletedAt(); !done.IsZero() {
		dto.CompletedAt = &done
	}
	return dto
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage assessment sessions",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new assessment session with a resolved scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		appCtx := getAppContext(cmd)

		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			return errors.New("--name is required")
		}

		requested, err := scopeFromFlags(cmd)
		if err != nil {
			return err
		}

		// Reject scopes that cannot resolve to any controls up front.
		if ids := appCtx.Services.Resolver.Resolve(requested); len(ids) == 0 {
			return &ScopeTooNarrowError{
				Baseline: requested.Baseline.String(),
				Families: requested.ControlFamilies,
			}
		}

		sess, err := appCtx.Services.SessionService.CreateSession(ctx, name, appCtx.Operator, requested)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		fmt.Printf("%s session %s (id=%s)\n", colorSuccess("Created"), name, sess.ID())
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		appCtx := getAppContext(cmd)

		sessions, err := appCtx.Services.SessionService.ListSessions(ctx)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		// Convert to DTOs for JSON output
		dtos := make([]sessionDTO, len(sessions))
		for i, sess := range sessions {
			dtos[i] = sessionToDTO(sess)
		}

		b, _ := json.MarshalIndent(dtos, jsonPrefix, jsonIndent)
		fmt.Println(string(b))
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a single session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		appCtx := getAppContext(cmd)

		id, _ := cmd.Flags().GetString("id")
		if id == "" {
			return fmt.Errorf("--id is required")
		}

		sess, err := appCtx.Services.SessionService.GetSession(ctx, id)
		if err != nil {
			if errors.Is(err, sharedErrors.ErrSessionNotFound) {
				return &SessionNotFoundError{ID: id}
			}
			return fmt.Errorf("failed to get session: %w", err)
		}

		dto := sessionToDTO(sess)
		b, _ := json.MarshalIndent(dto, jsonPrefix, jsonIndent)
		fmt.Println(string(b))
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a session and its stored results",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		appCtx := getAppContext(cmd)

		id, _ := cmd.Flags().GetString("id")
		if id == "" {
			return fmt.Errorf("--id is required")
		}

		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			return fmt.Errorf("must pass --confirm to delete session")
		}

		if err := appCtx.Services.SessionService.DeleteSession(ctx, id); err != nil {
			if errors.Is(err, sharedErrors.ErrSessionNotFound) {
				return &SessionNotFoundError{ID: id}
			}
			return fmt.Errorf("failed to delete session: %w", err)
		}

		// Remove stored results and audit files alongside the record.
		if path, err := resolveResultsPath(appCtx.ResultsDir, id); err == nil {
			if err := os.RemoveAll(path); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not remove results for %s: %v\n", id, err)
			}
		}

		fmt.Printf("%s deleted session %s\n", colorSuccess("Success:"), id)
		return nil
	},
}

func init() {
	// Create flags
	sessionCreateCmd.Flags().String("name", "", "Session name")
	sessionCreateCmd.Flags().String("baseline", "", "Baseline level (low, moderate, high, custom, all)")
	sessionCreateCmd.Flags().StringSlice("families", nil, "Control family codes to include")
	sessionCreateCmd.Flags().StringSlice("controls", nil, "Specific control IDs to include")
	sessionCreateCmd.Flags().String("mode", scope.DefaultMode.String(), "Assessment mode (quick, smart, deep)")
	sessionCreateCmd.Flags().String("preset", "", "Use a predefined scope instead of baseline/families")

	// Show flags
	sessionShowCmd.Flags().String("id", "", "Session ID")

	// Delete flags
	sessionDeleteCmd.Flags().String("id", "", "Session ID")
	sessionDeleteCmd.Flags().Bool("confirm", false, "Confirm deletion")

	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
}
