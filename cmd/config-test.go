package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/speech-trainer/configs"
	"github.com/RyanBlaney/speech-trainer/internal/app"
)

var (
	configTestGenerate string
	configTestValidate string
)

// configTestCmd represents the config test command
var configTestCmd = &cobra.Command{
	Use:   "config-test",
	Short: "Test and display all configuration values",
	Long: `Test configuration loading and display all values to verify proper parsing.

This command loads the configuration and displays all values in a structured format
to help verify that your YAML configuration is being parsed correctly. It can also
write an example configuration or validate a standalone file, including its scaler
and model parameters.

Examples:
  # Test with default config file
  speech-trainer config-test

  # Test with specific config file
  speech-trainer --config /path/to/config.yaml config-test

  # Write the defaults as a starting point
  speech-trainer config-test --generate ~/.config/speech-trainer/speech-trainer.yaml

  # Validate a file and its parameter files
  speech-trainer config-test --validate ./speech-trainer.yaml`,
	RunE: runConfigTest,
}

func init() {
	rootCmd.AddCommand(configTestCmd)

	configTestCmd.Flags().StringVar(&configTestGenerate, "generate", "", "write an example configuration to this file")
	configTestCmd.Flags().StringVar(&configTestValidate, "validate", "", "validate this configuration file")
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	if configTestGenerate != "" {
		if err := app.GenerateExampleConfig(configTestGenerate); err != nil {
			return err
		}
		printSuccess("Example configuration written to: %s", configTestGenerate)
		return nil
	}

	if configTestValidate != "" {
		config, err := app.ValidateConfigFile(configTestValidate)
		if err != nil {
			return err
		}
		printSuccess("Configuration is valid: %s", configTestValidate)
		printConfig(config)
		return nil
	}

	fmt.Println("SPEECH TRAINER CONFIGURATION TEST")
	fmt.Println(strings.Repeat("=", 80))

	// Load configuration
	config, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if file := viper.ConfigFileUsed(); file != "" {
		printKeyValue("Config File", file)
	} else {
		printWarning("No config file found, using defaults and environment")
	}

	printConfig(config)

	printSection("VALIDATION")
	if err := configs.ValidateConfig(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	printSuccess("Configuration is valid")
	return nil
}

func printConfig(config *configs.Config) {
	printSection("APPLICATION SETTINGS")
	printKeyValue("Verbose", fmt.Sprintf("%t", config.Verbose))
	printKeyValue("Log Level", config.LogLevel)
	printKeyValue("Log Format", config.LogFormat)
	printKeyValue("Output Format", config.OutputFormat)
	printKeyValue("Config Directory", config.ConfigDir)
	printKeyValue("Data Directory", config.DataDir)

	printSection("ANALYSIS CONFIGURATION")
	printKeyValue("Time Budget", config.Analysis.TimeBudget.String())
	printKeyValue("Pitch Range", fmt.Sprintf("%.0f-%.0f Hz", config.Analysis.PitchFloor, config.Analysis.PitchCeiling))
	printKeyValue("Spectral HNR", fmt.Sprintf("%t", config.Analysis.EnableSpectralHNR))
	printKeyValue("Duplicate Formant Samples", fmt.Sprintf("%t", config.Analysis.DuplicateFormantSamples))

	printSection("MODEL CONFIGURATION")
	printKeyValue("Scaler Parameters", orBundled(config.Model.ScalerPath))
	printKeyValue("Model Parameters", orBundled(config.Model.ModelPath))

	printSection("SMOOTHING AND ADVICE")
	printKeyValue("Alpha", fmt.Sprintf("%.2f", config.Smoothing.Alpha))
	printKeyValue("Start Score", fmt.Sprintf("%.2f", config.Smoothing.StartScore))
	printKeyValue("Compliment Seed", fmt.Sprintf("%d", config.Advice.Seed))
	printKeyValue("Custom Compliments", fmt.Sprintf("%d", len(config.Advice.Compliments)))
	printKeyValue("Numbered Advice", fmt.Sprintf("%t", config.Advice.Numbered))

	printSection("SESSION DEFAULTS")
	printKeyValue("Topic", config.Session.Topic)
	printKeyValue("Training Time", fmt.Sprintf("%d min", config.Session.DurationMinutes))

	printSection("SERVER CONFIGURATION")
	printKeyValue("Address", config.Server.Addr)
	printKeyValue("Mode", config.Server.Mode)
	printKeyValue("Max Upload", fmt.Sprintf("%d bytes", config.Server.MaxUploadBytes))
	printKeyValue("Shutdown Timeout", config.Server.ShutdownTimeout.String())

	printSection("STORE CONFIGURATION")
	printKeyValue("Backend", config.Store.Backend)
	if config.Store.Backend == "mongo" {
		printKeyValue("Mongo URI", config.Store.MongoURI)
		printKeyValue("Database", config.Store.Database)
		printKeyValue("Connect Timeout", config.Store.ConnectTimeout.String())
	}

	printSection("METRICS AND OUTPUT")
	printKeyValue("Metrics Enabled", fmt.Sprintf("%t", config.Metrics.Enabled))
	printKeyValue("Metrics Prefix", config.Metrics.Prefix)
	if len(config.Metrics.Tags) > 0 {
		printKeyValue("Metrics Tags", strings.Join(config.Metrics.Tags, ", "))
	}
	printKeyValue("Precision", fmt.Sprintf("%d", config.Output.Precision))
	printKeyValue("Include Features", fmt.Sprintf("%t", config.Output.IncludeFeatures))
	printKeyValue("Timestamps", fmt.Sprintf("%t", config.Output.Timestamps))
}

func orBundled(path string) string {
	if path == "" {
		return "bundled reference parameters"
	}
	return path
}
