package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nca-tools/nca-cli/internal/catalog"
	"github.com/nca-tools/nca-cli/internal/infrastructure/oscal"
	sharedErrors "github.com/nca-tools/nca-cli/internal/shared/errors"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse the NIST 800-53 control catalog",
}

var catalogFamiliesCmd = &cobra.Command{
	Use:   "families",
	Short: "List the rev5 control families",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)

		families := catalog.Families()

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			b, _ := json.MarshalIndent(families, jsonPrefix, jsonIndent)
			fmt.Println(string(b))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tNAME\tCONTROLS\tTECHNICAL")
		for _, f := range families {
			technical := "-"
			if f.Technical {
				technical = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", f.Code, f.Name, f.ControlCount, technical)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if oscalCat := appCtx.Services.OSCAL; oscalCat != nil {
			fmt.Printf("\n%s OSCAL catalog loaded: %d controls (%s)\n", colorInfo("→"), oscalCat.Len(), oscalCat.Path())
		}
		return nil
	},
}

var catalogControlsCmd = &cobra.Command{
	Use:   "controls",
	Short: "List the catalog controls in a family",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)

		familyFlag, _ := cmd.Flags().GetString("family")
		familyFlag = strings.ToUpper(strings.TrimSpace(familyFlag))
		if !catalog.IsValidFamilyCode(familyFlag) {
			return fmt.Errorf("%w: %s", sharedErrors.ErrInvalidFamilyCode, familyFlag)
		}

		oscalCat, err := requireOSCAL(appCtx)
		if err != nil {
			return err
		}

		controls := oscalCat.ControlsByFamily(familyFlag)

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			b, _ := json.MarshalIndent(controls, jsonPrefix, jsonIndent)
			fmt.Println(string(b))
			return nil
		}

		if fam, ok := oscalCat.Family(familyFlag); ok {
			fmt.Printf("%s %s (%s): %d controls\n\n", colorInfo("Family:"), fam.Title, familyFlag, len(controls))
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE")
		for _, c := range controls {
			fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Title)
		}
		return w.Flush()
	},
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search catalog controls by keyword",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)

		query := strings.TrimSpace(args[0])
		if query == "" {
			return fmt.Errorf("search keyword is required")
		}

		familyFlag, _ := cmd.Flags().GetString("family")
		if familyFlag != "" {
			familyFlag = strings.ToUpper(strings.TrimSpace(familyFlag))
			if !catalog.IsValidFamilyCode(familyFlag) {
				return fmt.Errorf("%w: %s", sharedErrors.ErrInvalidFamilyCode, familyFlag)
			}
		}

		oscalCat, err := requireOSCAL(appCtx)
		if err != nil {
			return err
		}

		matches := oscalCat.Search(query, familyFlag)

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			b, _ := json.MarshalIndent(matches, jsonPrefix, jsonIndent)
			fmt.Println(string(b))
			return nil
		}

		fmt.Printf("%s %d control(s) matching %q\n\n", colorInfo("Found:"), len(matches), query)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFAMILY\tTITLE")
		for _, c := range matches {
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Family, c.Title)
		}
		return w.Flush()
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <control-id>",
	Short: "Show a single control's statement and guidance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)

		id := strings.ToUpper(strings.TrimSpace(args[0]))
		if err := catalog.ValidateControlID(id); err != nil {
			return err
		}

		oscalCat, err := requireOSCAL(appCtx)
		if err != nil {
			return err
		}

		control, ok := oscalCat.Control(id)
		if !ok {
			return fmt.Errorf("control %s not found in catalog", id)
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			b, _ := json.MarshalIndent(control, jsonPrefix, jsonIndent)
			fmt.Println(string(b))
			return nil
		}

		fmt.Printf("%s %s (%s)\n", colorInfo(control.ID), control.Title, control.Family)
		fmt.Println(strings.Repeat("─", 60))
		fmt.Println(control.Statement)
		if control.Guidance != "" {
			fmt.Printf("\n%s\n%s\n", colorInfo("Guidance:"), control.Guidance)
		}
		if len(control.Related) > 0 {
			fmt.Printf("\n%s %s\n", colorInfo("Related:"), strings.Join(control.Related, ", "))
		}
		if len(control.Enhancements) > 0 {
			fmt.Printf("\n%s\n", colorInfo("Enhancements:"))
			for _, e := range control.Enhancements {
				fmt.Printf("  %s %s\n", e.ID, e.Title)
			}
		}
		return nil
	},
}

func requireOSCAL(appCtx *AppContext) (*oscal.Catalog, error) {
	if appCtx == nil || appCtx.Services == nil || appCtx.Services.OSCAL == nil {
		return nil, fmt.Errorf("%w: pass --catalog or set catalog_path in config", sharedErrors.ErrCatalogUnavailable)
	}
	return appCtx.Services.OSCAL, nil
}

func init() {
	catalogFamiliesCmd.Flags().Bool("json", false, "Output as JSON")

	catalogControlsCmd.Flags().String("family", "", "Control family code (e.g. AC)")
	catalogControlsCmd.Flags().Bool("json", false, "Output as JSON")
	_ = catalogControlsCmd.MarkFlagRequired("family")

	catalogSearchCmd.Flags().String("family", "", "Restrict search to one family")
	catalogSearchCmd.Flags().Bool("json", false, "Output as JSON")

	catalogShowCmd.Flags().Bool("json", false, "Output as JSON")

	catalogCmd.AddCommand(catalogFamiliesCmd)
	catalogCmd.AddCommand(catalogControlsCmd)
	catalogCmd.AddCommand(catalogSearchCmd)
	catalogCmd.AddCommand(catalogShowCmd)
}
