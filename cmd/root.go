package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nca-tools/nca-cli/internal/application"
	consts "github.com/nca-tools/nca-cli/internal/shared/constants"
)

var cfgFile string
var logger *zap.SugaredLogger
var operator string
var resultsDir string
var catalogPath string
var profilePath string

var rootCmd = &cobra.Command{
	Use:   "nca",
	Short: "NIST 800-53 assessment scoping, estimation & reporting",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init config
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath("$HOME")
			viper.SetConfigName(".nca-cli")
			viper.SetConfigType("yaml")
		}

		_ = viper.ReadInConfig()
		resultsDir = viper.GetString("results_dir")
		if resultsDir == "" {
			resultsDir = "./results"
		}

		// create results dir if not exists
		if err := os.MkdirAll(resultsDir, consts.DefaultDirPerm); err != nil {
			return fmt.Errorf("failed to create results directory: %s", err.Error())
		}

		// init logger
		l, _ := zap.NewProduction()
		logger = l.Sugar()

		// merge config-file defaults before reading identity flags
		applyConfigDefaults(cmd)

		// ensure operator is set (via flag or env default)
		if operator == "" {
			operator = detectOperatorFromEnv()
		}
		if operator == "" {
			return fmt.Errorf("operator identity is required (use --operator or set USER env)")
		}

		// Make final resultsDir absolute (for clarity in logs)
		if abs, err := filepath.Abs(resultsDir); err == nil {
			resultsDir = abs
		}

		dataDir, err := getDataDir()
		if err != nil {
			return fmt.Errorf("failed to resolve data directory: %w", err)
		}

		if catalogPath == "" {
			catalogPath = viper.GetString("catalog_path")
		}
		if profilePath == "" {
			profilePath = viper.GetString("profile_path")
		}

		services, err := application.NewContainer(application.Config{
			DataDir:        dataDir,
			ResultsDir:     resultsDir,
			CatalogPath:    catalogPath,
			ProfilePath:    profilePath,
			RatePerMillion: cliConfig.Defaults.RatePerMillion,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}

		logger.Infof("operator=%s results_dir=%s", operator, resultsDir)

		storeAppContext(cmd, &AppContext{
			Logger:     logger,
			Operator:   operator,
			ResultsDir: resultsDir,
			DataDir:    dataDir,
			Config:     cliConfig,
			Services:   services,
		})

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(exitCodeFor(err))
	}
}

func init() {
	// config file flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.nca-cli.yaml)")

	// operator persistent flag (default from USER env)
	defaultOperator := os.Getenv("USER")

	rootCmd.PersistentFlags().StringVarP(&operator, "operator", "o", defaultOperator, "operator name (or set via USER env)")

	// catalog sources
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "path to an OSCAL catalog JSON (default from config catalog_path)")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "path to an OSCAL profile JSON for the custom baseline")

	// add subcommands
	rootCmd.AddCommand(baselineCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(scopeCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(tuiCmd)
}
