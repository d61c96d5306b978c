package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/speech-trainer/internal/app"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the speech trainer HTTP API",
	Long: `Run the HTTP API. Clients create a session with a topic and training
time, then upload recordings as attempts and read the progress report.

Routes:
  GET    /healthz
  POST   /v1/features
  POST   /v1/sessions
  GET    /v1/sessions/:id
  DELETE /v1/sessions/:id
  POST   /v1/sessions/:id/attempts
  GET    /v1/sessions/:id/progress

Examples:
  speech-trainer serve --addr :8080
  speech-trainer serve --store mongo --mongo-uri mongodb://localhost:27017 --metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().String("store", "memory", "session store (memory, mongo)")
	serveCmd.Flags().String("mongo-uri", "", "MongoDB connection URI")
	serveCmd.Flags().Bool("metrics", false, "emit attempt metrics")
	serveCmd.Flags().String("scaler", "", "scaler parameter file (yaml or json)")
	serveCmd.Flags().String("model", "", "model parameter file (yaml or json)")
	serveCmd.Flags().Uint64("seed", 0, "compliment selection seed (0 picks randomly)")
	serveCmd.Flags().Float64("start-score", 0, "previous score of the first attempt of every session")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := app.NewTrainerApp(&app.Context{})
	if err != nil {
		return err
	}
	defer server.Close(context.Background())

	return server.Serve(ctx)
}
