package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nca-tools/nca-cli/internal/assess"
	consts "github.com/nca-tools/nca-cli/internal/shared/constants"
)

// evidencePluginDefinition describes an external evidence collector loaded
// from a JSON file in the plugins directory. The collector is any executable
// that prints evidence JSON (an array of items or an {"evidence": [...]}
// wrapper) on stdout.
type evidencePluginDefinition struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Command        string            `json:"command"`
	Args           []string          `json:"args"`
	Env            map[string]string `json:"env"`
	TimeoutSeconds int               `json:"timeout_seconds"`
	OutputFilename string            `json:"output_filename"`
	APIVersion     int               `json:"api_version"`
}

const currentPluginAPIVersion = 1

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Collect assessment evidence with external collector plugins",
	Long: `Run evidence collector plugins registered in the plugins directory.

Each plugin is a JSON definition under <data-dir>/plugins/ describing an
executable that emits evidence JSON on stdout. Collected evidence is written
to the evidence directory and can be passed to 'nca assess run --evidence'.`,
}

// registerPluginCommands attaches one subcommand per valid plugin definition.
// Load failures are warnings only so a broken plugin never blocks the CLI.
func registerPluginCommands() {
	plugins, err := loadEvidencePlugins()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: unable to load plugins: %v\n", err)
		return
	}

	for _, def := range plugins {
		if err := addPluginCommand(def); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping plugin %s: %v\n", def.Name, err)
		}
	}
}

// loadEvidencePlugins reads every *.json definition from the plugins
// directory. A missing directory means no plugins are installed.
func loadEvidencePlugins() ([]evidencePluginDefinition, error) {
	dataDir, err := getDataDir()
	if err != nil {
		return nil, err
	}

	pluginsDir := filepath.Join(dataDir, "plugins")
	entries, err := os.ReadDir(pluginsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read plugins directory: %w", err)
	}

	var plugins []evidencePluginDefinition
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(pluginsDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to read plugin %s: %v\n", path, err)
			continue
		}

		var def evidencePluginDefinition
		if err := json.Unmarshal(data, &def); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to parse plugin %s: %v\n", path, err)
			continue
		}

		if def.APIVersion == 0 {
			def.APIVersion = currentPluginAPIVersion
		}
		if def.APIVersion != currentPluginAPIVersion {
			fmt.Fprintf(os.Stderr, "Warning: unsupported plugin API version %d in %s (expected %d)\n", def.APIVersion, path, currentPluginAPIVersion)
			continue
		}

		if def.Name == "" || def.Command == "" {
			fmt.Fprintf(os.Stderr, "Warning: invalid plugin %s (name and command required)\n", path)
			continue
		}

		if def.TimeoutSeconds <= 0 {
			def.TimeoutSeconds = 10
		}
		if def.OutputFilename == "" {
			def.OutputFilename = fmt.Sprintf("%s_evidence.json", def.Name)
		}

		plugins = append(plugins, def)
	}

	return plugins, nil
}

// addPluginCommand registers a plugin as 'nca evidence <name>'.
func addPluginCommand(def evidencePluginDefinition) error {
	if strings.ContainsAny(def.Name, " \t/\\") {
		return fmt.Errorf("plugin name %q must not contain spaces or path separators", def.Name)
	}

	short := def.Description
	if short == "" {
		short = fmt.Sprintf("Collect evidence with the %s plugin", def.Name)
	}

	pluginCmd := &cobra.Command{
		Use:   def.Name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvidencePlugin(cmd, def)
		},
	}

	evidenceCmd.AddCommand(pluginCmd)
	return nil
}

// runEvidencePlugin executes the collector, validates its stdout as evidence
// JSON, and writes the result into the evidence directory.
func runEvidencePlugin(cmd *cobra.Command, def evidencePluginDefinition) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(def.TimeoutSeconds)*time.Second)
	defer cancel()

	fmt.Printf("Running evidence collector: %s\n", def.Name)

	execCmd := exec.CommandContext(ctx, def.Command, def.Args...)
	execCmd.Env = os.Environ()
	for key, value := range def.Env {
		execCmd.Env = append(execCmd.Env, fmt.Sprintf("%s=%s", key, value))
	}
	execCmd.Stderr = os.Stderr

	output, err := execCmd.Output()
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("plugin %s timed out after %ds", def.Name, def.TimeoutSeconds)
	}
	if err != nil {
		return fmt.Errorf("plugin %s failed: %w", def.Name, err)
	}

	items, err := parseEvidenceOutput(output, def.Name)
	if err != nil {
		return fmt.Errorf("plugin %s produced invalid evidence: %w", def.Name, err)
	}

	dataDir, err := getDataDir()
	if err != nil {
		return err
	}

	evidenceDir := filepath.Join(dataDir, "evidence")
	if err := os.MkdirAll(evidenceDir, consts.DefaultDirPerm); err != nil {
		return fmt.Errorf("create evidence directory: %w", err)
	}

	outputPath := filepath.Join(evidenceDir, def.OutputFilename)
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode evidence: %w", err)
	}
	if err := os.WriteFile(outputPath, data, consts.DefaultFilePerm); err != nil {
		return fmt.Errorf("write evidence file: %w", err)
	}

	fmt.Printf("%s Collected %d evidence items\n", colorSuccess("✓"), len(items))
	fmt.Printf("Evidence written to: %s\n", outputPath)
	fmt.Printf("Run an assessment with: nca assess run --session <id> --evidence %s\n", outputPath)
	return nil
}

// parseEvidenceOutput decodes collector stdout as either a bare array of
// evidence items or an {"evidence": [...]} wrapper, filling default IDs and
// sources the same way evidence files are loaded.
func parseEvidenceOutput(data []byte, source string) ([]assess.Evidence, error) {
	var items []assess.Evidence
	if err := json.Unmarshal(data, &items); err != nil {
		var wrapper evidenceFile
		if err2 := json.Unmarshal(data, &wrapper); err2 != nil {
			return nil, fmt.Errorf("parse collector output: %w", err)
		}
		items = wrapper.Evidence
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("collector returned no evidence items")
	}

	for i := range items {
		if strings.TrimSpace(items[i].Text) == "" {
			return nil, fmt.Errorf("evidence item %d has empty text", i+1)
		}
		if len(items[i].Text) > consts.MaxEvidenceBytes {
			return nil, fmt.Errorf("evidence item %d exceeds %d bytes", i+1, consts.MaxEvidenceBytes)
		}
		if items[i].ID == "" {
			items[i].ID = fmt.Sprintf("ev-%d", i+1)
		}
		if items[i].Source == "" {
			items[i].Source = source
		}
	}

	return items, nil
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	registerPluginCommands()
}
