package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nca-tools/nca-cli/internal/catalog"
	"github.com/nca-tools/nca-cli/internal/scope"
	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

// resolveResultDTO is used for JSON output
type resolveResultDTO struct {
	Scope    scope.Scope    `json:"scope"`
	Controls []string       `json:"controls"`
	Estimate scope.Estimate `json:"estimate"`
}

var scopeCmd = &cobra.Command{
	Use:   "scope",
	Short: "Resolve and estimate assessment scopes",
}

var scopePresetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List predefined assessment scopes",
	RunE: func(cmd *cobra.Command, args []string) error {
		presets := scope.Presets()

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			b, _ := json.MarshalIndent(presets, jsonPrefix, jsonIndent)
			fmt.Println(string(b))
			return nil
		}

		for _, p := range presets {
			fmt.Printf("%s %s (%s)\n", p.Icon, colorInfo(p.Name), p.ID)
			fmt.Printf("  %s\n", p.Description)
			fmt.Printf("  baseline=%s families=%s\n\n", p.Baseline, strings.Join(p.Families, ","))
		}
		return nil
	},
}

var scopeResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a scope to its concrete control IDs",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)

		requested, err := scopeFromFlags(cmd)
		if err != nil {
			return err
		}

		ids := appCtx.Services.Resolver.Resolve(requested)
		if len(ids) == 0 {
			return &ScopeTooNarrowError{
				Baseline: requested.Baseline.String(),
				Families: requested.ControlFamilies,
			}
		}

		estimate := appCtx.Services.Estimator.Estimate(len(ids), requested.Mode)

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			dto := resolveResultDTO{Scope: requested, Controls: ids, Estimate: estimate}
			b, _ := json.MarshalIndent(dto, jsonPrefix, jsonIndent)
			fmt.Println(string(b))
			return nil
		}

		fmt.Printf("%s Resolved %d control(s) from baseline %s\n\n", colorSuccess("✓"), len(ids), requested.Baseline)

		grouped := catalog.GroupByFamily(ids)
		for _, fam := range catalog.ValidFamilyCodes() {
			controls, ok := grouped[fam]
			if !ok {
				continue
			}
			fmt.Printf("%s %s: %s\n", colorInfo("→"), fam, strings.Join(controls, ", "))
		}

		fmt.Println()
		printEstimate(estimate)
		return nil
	},
}

var scopeEstimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate tokens, duration, and cost for a control count",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)

		count, _ := cmd.Flags().GetInt("count")
		if count <= 0 {
			return fmt.Errorf("%w: --count must be a positive control count", sharedErrors.ErrInvalidInput)
		}

		modeFlag, _ := cmd.Flags().GetString("mode")
		mode, err := scope.ParseMode(modeFlag)
		if err != nil {
			return err
		}

		estimator := appCtx.Services.Estimator
		if rate, _ := cmd.Flags().GetFloat64("rate"); rate > 0 {
			estimator = scope.NewEstimator(rate)
		}

		estimate := estimator.Estimate(count, mode)

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			b, _ := json.MarshalIndent(estimate, jsonPrefix, jsonIndent)
			fmt.Println(string(b))
			return nil
		}

		printEstimate(estimate)
		return nil
	},
}

// scopeFromFlags builds a validated Scope from --preset or the
// baseline/families/controls flags.
func scopeFromFlags(cmd *cobra.Command) (scope.Scope, error) {
	modeFlag, _ := cmd.Flags().GetString("mode")
	mode, err := scope.ParseMode(modeFlag)
	if err != nil {
		return scope.Scope{}, err
	}

	if presetID, _ := cmd.Flags().GetString("preset"); presetID != "" {
		preset := scope.PresetByID(presetID)
		if preset == nil {
			return scope.Scope{}, fmt.Errorf("%w: %s", sharedErrors.ErrPresetNotFound, presetID)
		}
		return preset.Scope(mode), nil
	}

	baselineFlag, _ := cmd.Flags().GetString("baseline")
	if baselineFlag == "" {
		return scope.Scope{}, fmt.Errorf("%w: --baseline or --preset is required", sharedErrors.ErrMissingRequired)
	}
	baseline, err := catalog.ParseLevel(baselineFlag)
	if err != nil {
		return scope.Scope{}, err
	}

	families, _ := cmd.Flags().GetStringSlice("families")
	for i, f := range families {
		families[i] = strings.ToUpper(strings.TrimSpace(f))
	}

	controls, _ := cmd.Flags().GetStringSlice("controls")
	for i, c := range controls {
		controls[i] = strings.ToUpper(strings.TrimSpace(c))
	}

	requested := scope.New(baseline, families, controls, mode)
	if err := requested.Validate(); err != nil {
		return scope.Scope{}, err
	}
	return requested, nil
}

func printEstimate(e scope.Estimate) {
	fmt.Printf("%s Controls: %d (mode %s)\n", colorInfo("→"), e.ControlCount, e.Mode)
	fmt.Printf("%s Estimated tokens: %d\n", colorInfo("→"), e.EstimatedTokens)
	fmt.Printf("%s Estimated duration: %.1f min\n", colorInfo("→"), e.EstimatedMinutes)
	fmt.Printf("%s Estimated cost: $%.2f\n", colorInfo("→"), e.EstimatedCostUSD)
}

func init() {
	scopePresetsCmd.Flags().Bool("json", false, "Output as JSON")

	scopeResolveCmd.Flags().String("baseline", "", "Baseline level (low, moderate, high, custom, all)")
	scopeResolveCmd.Flags().StringSlice("families", nil, "Control family codes to include (e.g. AC,AU)")
	scopeResolveCmd.Flags().StringSlice("controls", nil, "Specific control IDs to include (e.g. AC-2,AC-3)")
	scopeResolveCmd.Flags().String("mode", scope.DefaultMode.String(), "Assessment mode (quick, smart, deep)")
	scopeResolveCmd.Flags().String("preset", "", "Use a predefined scope instead of baseline/families")
	scopeResolveCmd.Flags().Bool("json", false, "Output as JSON")

	scopeEstimateCmd.Flags().Int("count", 0, "Number of controls in scope")
	scopeEstimateCmd.Flags().String("mode", scope.DefaultMode.String(), "Assessment mode (quick, smart, deep)")
	scopeEstimateCmd.Flags().Float64("rate", 0, "Cost per million tokens in USD (defaults to configured rate)")
	scopeEstimateCmd.Flags().Bool("json", false, "Output as JSON")
	_ = scopeEstimateCmd.MarkFlagRequired("count")

	scopeCmd.AddCommand(scopePresetsCmd)
	scopeCmd.AddCommand(scopeResolveCmd)
	scopeCmd.AddCommand(scopeEstimateCmd)
}
