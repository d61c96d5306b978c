package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/speech-trainer/internal/app"
)

var featuresOutputFile string

// featuresCmd represents the features command
var featuresCmd = &cobra.Command{
	Use:   "features [flags] recording.wav [recording.wav...]",
	Short: "Print the voice-quality features of recordings",
	Long: `Extract and print the feature vector of each recording without scoring it.

Examples:
  speech-trainer features take1.wav
  speech-trainer features -o json --time-budget 10s take1.wav take2.wav`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFeatures,
}

func init() {
	rootCmd.AddCommand(featuresCmd)

	featuresCmd.Flags().Duration("time-budget", 30*time.Second, "analysis time budget per recording")
	featuresCmd.Flags().Int("precision", 2, "decimal places in table output")
	featuresCmd.Flags().StringVar(&featuresOutputFile, "output-file", "", "write results to a file instead of stdout")
}

func runFeatures(cmd *cobra.Command, args []string) error {
	timer := NewPerformanceTimer()

	extractor, err := app.NewTrainerApp(&app.Context{
		AudioFiles: args,
		OutputFile: featuresOutputFile,
	})
	if err != nil {
		return err
	}

	timer.StartEvent("feature_extraction")
	err = extractor.ExtractFeatures(context.Background())
	timer.EndEvent("feature_extraction")
	if err != nil {
		return err
	}

	if verbose {
		displayPerformanceSummary(timer)
	}
	return nil
}
