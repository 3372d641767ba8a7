package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nca-tools/nca-cli/internal/catalog"
	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

// baselineDTO is used for JSON output
type baselineDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ControlCount int    `json:"control_count"`
	Description  string `json:"description"`
}

type baselineDetailDTO struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	ControlCount int                 `json:"control_count"`
	Families     map[string][]string `json:"families"`
}

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Inspect NIST 800-53 baseline profiles",
}

var baselineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available baseline profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)

		baselines := appCtx.Services.Catalog.Baselines()

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			dtos := make([]baselineDTO, len(baselines))
			for i, b := range baselines {
				dtos[i] = baselineDTO{ID: b.ID, Name: b.Name, ControlCount: b.ControlCount, Description: b.Description}
			}
			b, _ := json.MarshalIndent(dtos, jsonPrefix, jsonIndent)
			fmt.Println(string(b))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCONTROLS\tDESCRIPTION")
		for _, b := range baselines {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", b.ID, b.Name, b.ControlCount, b.Description)
		}
		return w.Flush()
	},
}

var baselineShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the controls selected by a baseline",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)

		levelFlag, _ := cmd.Flags().GetString("level")
		familyFlag, _ := cmd.Flags().GetString("family")

		level, err := catalog.ParseLevel(levelFlag)
		if err != nil {
			return err
		}

		profile := appCtx.Services.Catalog.Baseline(level)
		if profile == nil {
			return fmt.Errorf("%w: %s", sharedErrors.ErrUnknownBaseline, levelFlag)
		}

		ids := profile.ControlIDs()
		if familyFlag != "" {
			familyFlag = strings.ToUpper(strings.TrimSpace(familyFlag))
			if !catalog.IsValidFamilyCode(familyFlag) {
				return fmt.Errorf("%w: %s", sharedErrors.ErrInvalidFamilyCode, familyFlag)
			}
			ids = catalog.FamilyControls(familyFlag, ids)
		}

		grouped := catalog.GroupByFamily(ids)

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			dto := baselineDetailDTO{
				ID:           profile.Level().String(),
				Name:         profile.Name(),
				Description:  profile.Description(),
				ControlCount: len(ids),
				Families:     grouped,
			}
			b, _ := json.MarshalIndent(dto, jsonPrefix, jsonIndent)
			fmt.Println(string(b))
			return nil
		}

		fmt.Printf("%s %s (%s)\n", colorInfo("Baseline:"), profile.Name(), profile.Level())
		if profile.Description() != "" {
			fmt.Println(profile.Description())
		}
		fmt.Printf("%s %d controls\n\n", colorInfo("Selected:"), len(ids))

		for _, fam := range catalog.ValidFamilyCodes() {
			controls, ok := grouped[fam]
			if !ok {
				continue
			}
			name := fam
			if f := catalog.FamilyByCode(fam); f != nil {
				name = fmt.Sprintf("%s (%s)", f.Name, fam)
			}
			fmt.Printf("%s %s: %d\n", colorSuccess("→"), name, len(controls))
			fmt.Printf("  %s\n", strings.Join(controls, ", "))
		}
		return nil
	},
}

func init() {
	baselineListCmd.Flags().Bool("json", false, "Output as JSON")

	baselineShowCmd.Flags().String("level", "", "Baseline level (low, moderate, high, custom, all)")
	baselineShowCmd.Flags().String("family", "", "Restrict output to one control family")
	baselineShowCmd.Flags().Bool("json", false, "Output as JSON")
	_ = baselineShowCmd.MarkFlagRequired("level")

	baselineCmd.AddCommand(baselineListCmd)
	baselineCmd.AddCommand(baselineShowCmd)
}
