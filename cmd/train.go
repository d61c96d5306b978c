package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/speech-trainer/internal/app"
)

var (
	trainOutputFile string
	trainQuiet      bool
	trainTimeout    time.Duration
)

// trainCmd represents the train command
var trainCmd = &cobra.Command{
	Use:   "train [flags] recording.wav [recording.wav...]",
	Short: "Score recordings as successive attempts of a training session",
	Long: `Score one or more recordings as the attempts of a single training session.

Every recording is analyzed, scored and smoothed against the scores of the
earlier attempts, and each attempt gets delivery advice. A progress report
for the whole session is printed at the end.

Examples:
  # Three takes of a lecture, ten minutes of training time
  speech-trainer train --topic lecture --minutes 10 take1.wav take2.wav take3.wav

  # Use trained parameters and JSON output
  speech-trainer train --scaler scaler.yaml --model model.json -o json take.wav

  # Persist the session in MongoDB
  speech-trainer train --store mongo --mongo-uri mongodb://localhost:27017 take.wav`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().String("topic", "lecture", "training topic (job_interview, date, lecture)")
	trainCmd.Flags().Int("minutes", 10, "training time in minutes")
	trainCmd.Flags().Float64("start-score", 0, "previous score of the first attempt")
	trainCmd.Flags().Float64("alpha", 1.0, "outlier band width in standard deviations")
	trainCmd.Flags().String("scaler", "", "scaler parameter file (yaml or json)")
	trainCmd.Flags().String("model", "", "model parameter file (yaml or json)")
	trainCmd.Flags().Uint64("seed", 0, "compliment selection seed (0 picks randomly)")
	trainCmd.Flags().Duration("time-budget", 30*time.Second, "analysis time budget per recording")
	trainCmd.Flags().String("store", "memory", "session store (memory, mongo)")
	trainCmd.Flags().String("mongo-uri", "", "MongoDB connection URI")
	trainCmd.Flags().Bool("metrics", false, "emit attempt metrics")
	trainCmd.Flags().Int("precision", 2, "decimal places in table output")
	trainCmd.Flags().Bool("show-features", false, "include feature vectors in the output")

	trainCmd.Flags().StringVar(&trainOutputFile, "output-file", "", "write results to a file instead of stdout")
	trainCmd.Flags().BoolVarP(&trainQuiet, "quiet", "q", false, "only log errors")
	trainCmd.Flags().DurationVar(&trainTimeout, "timeout", 10*time.Minute, "overall timeout")
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, trainTimeout)
	defer cancel()

	timer := NewPerformanceTimer()

	timer.StartEvent("setup")
	trainer, err := app.NewTrainerApp(&app.Context{
		AudioFiles: args,
		OutputFile: trainOutputFile,
		Quiet:      trainQuiet,
	})
	if err != nil {
		return err
	}
	defer trainer.Close(context.Background())
	timer.EndEvent("setup")

	timer.StartEvent("training")
	err = trainer.Run(ctx)
	timer.EndEvent("training")
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	if verbose && !trainQuiet {
		displayPerformanceSummary(timer)
	}
	if trainOutputFile != "" && !trainQuiet {
		printSuccess("Results written to %s", trainOutputFile)
	}
	return nil
}
