package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nca-tools/nca-cli/internal/scope"
	consts "github.com/nca-tools/nca-cli/internal/shared/constants"
)

const defaultAssessRateLimit = 10 // validations per second

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	Defaults DefaultValues
	Assess   AssessRuntimeConfig
}

// DefaultValues represent operator-level defaults, typically derived from env/config.
type DefaultValues struct {
	Mode             string
	TelemetryEnabled bool
	Operator         string
	RatePerMillion   float64
}

// AssessRuntimeConfig consolidates flag-driven settings for assessment runs.
type AssessRuntimeConfig struct {
	Mode             string
	BatchSize        int
	MaxConcurrent    int
	RateLimit        int
	SkipPassing      bool
	TelemetryEnabled bool
	ProgressEnabled  bool
	AutoSign         bool
	GPGKey           string
	HashAlgorithm    string
}

type defaultOverrides struct {
	Mode             string
	TelemetryEnabled *bool
	Operator         string
	OperatorOverride bool
	RatePerMillion   *float64
	BatchSize        *int
	HashAlgorithm    string
}

var cliConfig = newCLIConfig()

func newCLIConfig() *CLIConfig {
	operator := detectOperatorFromEnv()
	return &CLIConfig{
		Defaults: DefaultValues{
			Mode:             scope.DefaultMode.String(),
			TelemetryEnabled: false,
			Operator:         operator,
			RatePerMillion:   consts.DefaultCostPerMillionTokens,
		},
		Assess: AssessRuntimeConfig{
			Mode:             scope.DefaultMode.String(),
			BatchSize:        consts.DefaultBatchValidationSize,
			MaxConcurrent:    consts.DefaultMaxConcurrentBatches,
			RateLimit:        defaultAssessRateLimit,
			SkipPassing:      true,
			TelemetryEnabled: false,
			ProgressEnabled:  true,
			HashAlgorithm:    HashAlgorithmSHA256.String(),
		},
	}
}

func detectOperatorFromEnv() string {
	if env := os.Getenv("USER"); env != "" {
		return env
	}
	if env := os.Getenv("LOGNAME"); env != "" {
		return env
	}
	return ""
}

func loadDefaultOverrides() defaultOverrides {
	overrides := defaultOverrides{}

	if viper.IsSet("defaults.mode") {
		overrides.Mode = viper.GetString("defaults.mode")
	}

	if viper.IsSet("defaults.telemetry") {
		val := viper.GetBool("defaults.telemetry")
		overrides.TelemetryEnabled = &val
	}

	if viper.IsSet("defaults.operator") {
		overrides.Operator = viper.GetString("defaults.operator")
		overrides.OperatorOverride = true
	}

	if viper.IsSet("defaults.rate_per_million") {
		val := viper.GetFloat64("defaults.rate_per_million")
		overrides.RatePerMillion = &val
	}

	if viper.IsSet("defaults.batch_size") {
		val := viper.GetInt("defaults.batch_size")
		overrides.BatchSize = &val
	}

	if viper.IsSet("defaults.hash_algorithm") {
		overrides.HashAlgorithm = viper.GetString("defaults.hash_algorithm")
	}

	return overrides
}

// applyConfigDefaults merges config file defaults into the runtime config when the user
// did not explicitly override the corresponding flag.
func applyConfigDefaults(cmd *cobra.Command) {
	overrides := loadDefaultOverrides()

	if overrides.OperatorOverride && overrides.Operator != "" {
		cliConfig.Defaults.Operator = overrides.Operator
		setStringFlagIfUnset(cmd.Flags(), "operator", overrides.Operator)
	}

	if overrides.Mode != "" {
		if mode, err := scope.ParseMode(overrides.Mode); err == nil {
			cliConfig.Defaults.Mode = mode.String()
			cliConfig.Assess.Mode = mode.String()
			setStringFlagIfUnset(assessRunCmd.Flags(), "mode", mode.String())
		}
	}

	if overrides.TelemetryEnabled != nil {
		applyBoolDefault(assessCmd.PersistentFlags(), "telemetry", *overrides.TelemetryEnabled, func(v bool) {
			cliConfig.Defaults.TelemetryEnabled = v
			cliConfig.Assess.TelemetryEnabled = v
		})
	}

	if overrides.RatePerMillion != nil {
		applyFloatDefault(scopeEstimateCmd.Flags(), "rate", *overrides.RatePerMillion, func(v float64) {
			cliConfig.Defaults.RatePerMillion = v
		})
	}

	if overrides.BatchSize != nil {
		applyIntDefault(assessRunCmd.Flags(), "batch-size", *overrides.BatchSize, func(v int) {
			cliConfig.Assess.BatchSize = v
		})
	}

	if overrides.HashAlgorithm != "" {
		if algo, err := ParseHashAlgorithm(overrides.HashAlgorithm); err == nil {
			cliConfig.Assess.HashAlgorithm = algo.String()
		}
	}
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyBoolDefault(flags *pflag.FlagSet, name string, value bool, setter func(bool)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyFloatDefault(flags *pflag.FlagSet, name string, value float64, setter func(float64)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func setStringFlagIfUnset(flags *pflag.FlagSet, name, value string) {
	if flags == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag == nil || flag.Changed {
		return
	}
	_ = flag.Value.Set(value)
}
