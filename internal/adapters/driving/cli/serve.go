package cli

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpapi "github.com/custodia-labs/tender-rag/internal/adapters/driving/http"
	"github.com/custodia-labs/tender-rag/internal/adapters/driving/watcher"
	"github.com/custodia-labs/tender-rag/internal/worker"
)

var (
	servePort     int
	serveNoWorker bool
	serveWatchDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Runs the HTTP API. Unless --no-worker is given, an ingestion worker runs in
the same process; with --watch, files in a directory are ingested as they
appear.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides config)")
	serveCmd.Flags().BoolVar(&serveNoWorker, "no-worker", false, "do not process ingestion tasks in this process")
	serveCmd.Flags().StringVar(&serveWatchDir, "watch", "", "directory to ingest continuously (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if serveWatchDir != "" {
		cfg.WatchDir = serveWatchDir
	}
	if cfg.Server.AuthEnabled && cfg.UsesDefaultSecret() {
		log.Println("Warning: JWT_SECRET is the development default; set it before exposing the API")
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	app, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	var w *watcher.Watcher
	if cfg.WatchDir != "" {
		w, err = watcher.New(watcher.Config{Dir: cfg.WatchDir, Documents: app.Documents, Logger: app.Logger})
		if err != nil {
			return err
		}
	}

	log.Printf("tender-rag %s starting", version)

	g, gctx := errgroup.WithContext(ctx)

	server := httpapi.NewServer(httpapi.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		AuthEnabled:    cfg.Server.AuthEnabled,
		CORSOrigins:    cfg.Server.CORSOrigins,
		ChatRPS:        cfg.Server.ChatRPS,
		ChatBurst:      cfg.Server.ChatBurst,
		MaxUploadBytes: cfg.MaxFileSize(),
		Logger:         app.Logger,
	}, httpapi.Services{
		Auth:      app.Auth,
		Users:     app.Users,
		Documents: app.Documents,
		Chat:      app.Chat,
		Health:    app.Health,
	})
	g.Go(func() error { return server.Start(gctx) })

	if !serveNoWorker {
		g.Go(func() error { return runWorker(gctx, app) })
	}

	if w != nil {
		g.Go(func() error { return w.Run(gctx) })
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runWorker processes queued ingestion tasks until ctx is cancelled
func runWorker(ctx context.Context, app *App) error {
	if app.Queue == nil {
		return nil
	}

	w := worker.NewWorker(worker.WorkerConfig{
		TaskQueue:      app.Queue,
		Ingestion:      app.Ingestion,
		Logger:         app.Logger,
		Concurrency:    app.Config.Worker.Concurrency,
		DequeueTimeout: app.Config.Worker.DequeueTimeout,
	})
	if err := w.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(30 * time.Second):
		log.Println("Warning: worker did not stop within 30s")
	}
	return nil
}
