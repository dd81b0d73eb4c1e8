package cli

import (
	"log"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Process queued ingestion tasks",
	Long: `Runs only the ingestion worker. Use with a shared queue (REDIS_URL or the
postgres storage backend) so an API process elsewhere can enqueue uploads.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Storage.RedisURL == "" && cfg.Storage.Backend == "memory" {
			log.Println("Warning: the in-memory queue is not shared; this worker only sees tasks it enqueues itself")
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		app, err := newApp(ctx, cfg, appOptions{})
		if err != nil {
			return err
		}
		defer app.Close()

		log.Printf("tender-rag %s worker starting", version)
		return runWorker(ctx, app)
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
