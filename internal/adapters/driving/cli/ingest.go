package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Index documents synchronously",
	Long: `Extracts, chunks, embeds and indexes each file before returning.
Supported formats are PDF, Word (.docx) and Excel (.xlsx).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	app, err := newApp(ctx, cfg, appOptions{Synchronous: true})
	if err != nil {
		return err
	}
	defer app.Close()

	failed := 0
	for _, path := range args {
		doc, err := ingestFile(ctx, app, path)
		if err != nil {
			failed++
			cmd.PrintErrf("%s: %v\n", filepath.Base(path), err)
			continue
		}
		cmd.Printf("%s: %s (%d chunks, id %s)\n", doc.Filename, doc.Status, doc.TotalChunks, doc.ID)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func ingestFile(ctx context.Context, app *App, path string) (*domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := app.Documents.Upload(ctx, filepath.Base(path), f)
	if err != nil {
		return nil, err
	}

	if err := app.Ingestion.Ingest(ctx, doc.ID); err != nil {
		if !domain.IsTerminalIngestionError(err) {
			_ = app.Ingestion.MarkFailed(ctx, doc.ID, err)
		}
		return nil, err
	}

	return app.Documents.Get(ctx, doc.ID)
}
