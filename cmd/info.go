package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show system information and data directory paths",
	Long: `Display NCA-CLI configuration information including:
  - Data directory locations
  - Configuration file paths
  - Loaded catalog and baseline profile
  - Current operator
  - Platform information`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get application context
		appCtx := getAppContext(cmd)

		// Get data directory
		dataDir, err := getDataDir()
		if err != nil {
			return fmt.Errorf("failed to get data directory: %w", err)
		}

		// Get sessions file path
		sessionsPath, err := getSessionsFilePath()
		if err != nil {
			return fmt.Errorf("failed to get sessions file path: %w", err)
		}

		// Check if files exist
		sessionsExists := "✗ (not created yet)"
		if _, err := os.Stat(sessionsPath); err == nil {
			sessionsExists = "✓ (exists)"
		}

		resultsExists := "✗ (not created yet)"
		if _, err := os.Stat(appCtx.ResultsDir); err == nil {
			resultsExists = "✓ (exists)"
		}

		catalogStatus := "✗ (not loaded, pass --catalog or set catalog_path)"
		if appCtx.Services != nil && appCtx.Services.OSCAL != nil {
			catalogStatus = fmt.Sprintf("✓ (%d controls from %s)", appCtx.Services.OSCAL.Len(), appCtx.Services.OSCAL.Path())
		}

		configFile := "~/.nca-cli.yaml"
		configExists := "✗ (using defaults)"
		homeDir, _ := os.UserHomeDir()
		configPath := homeDir + "/.nca-cli.yaml"
		if _, err := os.Stat(configPath); err == nil {
			configExists = "✓ (exists)"
		}

		// Get output writer (for testing support)
		out := cmd.OutOrStdout()

		// Print information
		fmt.Fprintln(out, "NCA-CLI System Information")
		fmt.Fprintln(out, "============================")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Platform:          %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "Operator:          %s\n", appCtx.Operator)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Data Locations:")
		fmt.Fprintf(out, "  Data Directory:     %s\n", dataDir)
		fmt.Fprintf(out, "  Sessions File:      %s %s\n", sessionsPath, sessionsExists)
		fmt.Fprintf(out, "  Results Directory:  %s %s\n", appCtx.ResultsDir, resultsExists)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Control Catalog:      %s\n", catalogStatus)
		fmt.Fprintf(out, "Configuration File:   %s %s\n", configFile, configExists)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To override data directory, create ~/.nca-cli.yaml with:")
		fmt.Fprintln(out, "  results_dir: /custom/path/to/results")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Documentation:")
		fmt.Fprintln(out, "  README.md      - Full documentation")
		fmt.Fprintln(out, "  DESIGN.md      - Architecture notes")

		return nil
	},
}
