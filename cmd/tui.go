package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nca-tools/nca-cli/internal/domain/session"
	"github.com/nca-tools/nca-cli/internal/scope"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive terminal UI for session management",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(getAppContext(cmd))
	},
}

func runTUI(appCtx *AppContext) error {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)
	for {
		list, err := appCtx.Services.SessionService.ListSessions(ctx)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		fmt.Println("=== NCA Assessment Sessions ===")
		if len(list) == 0 {
			fmt.Println("No sessions found. Use `nca session create` to add one.")
		}
		for i, sess := range list {
			sc := sess.Scope()
			fmt.Printf("[%d] %s (Operator: %s, Baseline: %s, Status: %s)\n",
				i+1, sess.Name(), sess.Operator(), sc.Baseline, sess.Status())
		}
		fmt.Println("[f] Add families    [r] Refresh    [q] Quit")
		fmt.Print("Select session: ")
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)

		switch strings.ToLower(input) {
		case "q":
			return nil
		case "r", "":
			continue
		case "f":
			if err := handleAddFamilies(ctx, reader, appCtx, list); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			continue
		default:
			index, err := strconv.Atoi(input)
			if err != nil || index < 1 || index > len(list) {
				fmt.Println("Invalid selection")
				continue
			}
			showSessionDetail(reader, list[index-1])
		}
	}
}

func handleAddFamilies(ctx context.Context, reader *bufio.Reader, appCtx *AppContext, sessions []*session.Session) error {
	if len(sessions) == 0 {
		return fmt.Errorf("no sessions available")
	}
	fmt.Print("Enter session ID: ")
	id, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read session ID: %w", err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("ID required")
	}
	fmt.Print("Enter family codes (comma separated): ")
	familyLine, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read family codes: %w", err)
	}
	familyLine = strings.TrimSpace(familyLine)
	if familyLine == "" {
		return fmt.Errorf("family codes required")
	}

	sess, err := appCtx.Services.SessionService.GetSession(ctx, id)
	if err != nil {
		return err
	}

	current := sess.Scope()
	seen := make(map[string]struct{}, len(current.ControlFamilies))
	merged := append([]string(nil), current.ControlFamilies...)
	for _, code := range merged {
		seen[code] = struct{}{}
	}
	for _, code := range strings.Split(familyLine, ",") {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		merged = append(merged, code)
	}

	updated := scope.New(current.Baseline, merged, current.SpecificControls, current.Mode)
	if err := updated.Validate(); err != nil {
		return err
	}
	if _, err := appCtx.Services.SessionService.UpdateScope(ctx, id, updated); err != nil {
		return err
	}
	fmt.Printf("%s Scope updated: %s\n", colorSuccess("✓"), strings.Join(merged, ", "))
	return nil
}

func showSessionDetail(reader *bufio.Reader, sess *session.Session) {
	sc := sess.Scope()
	fmt.Println("--------------------------------------------------")
	fmt.Printf("Name     : %s\n", sess.Name())
	fmt.Printf("ID       : %s\n", sess.ID())
	fmt.Printf("Operator : %s\n", sess.Operator())
	fmt.Printf("Baseline : %s (mode %s)\n", sc.Baseline, sc.Mode)
	if len(sc.ControlFamilies) > 0 {
		fmt.Printf("Families : %s\n", strings.Join(sc.ControlFamilies, ", "))
	}
	if len(sc.SpecificControls) > 0 {
		fmt.Printf("Controls : %s\n", strings.Join(sc.SpecificControls, ", "))
	}
	fmt.Printf("Status   : %s\n", formatStatusWithColor(string(sess.Status())))
	progress := sess.Progress()
	if progress.Stage != "" {
		fmt.Printf("Progress : %s %d%% %s\n", progress.Stage, progress.Percent, progress.Message)
	}
	fmt.Printf("Created  : %s\n", sess.CreatedAt().Format("2006-01-02 15:04:05"))
	if !sess.CompletedAt().IsZero() {
		fmt.Printf("Finished : %s\n", sess.CompletedAt().Format("2006-01-02 15:04:05"))
	}
	fmt.Println("Press Enter to return...")
	_, _ = reader.ReadString('\n')
}
