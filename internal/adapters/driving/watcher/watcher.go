// Package watcher keeps the document registry in step with a directory.
// Supported files that appear or change are uploaded; removed files are deleted.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driving"
)

// DefaultDebounce is how long a file must stay quiet before it is uploaded
const DefaultDebounce = time.Second

// Config configures a Watcher
type Config struct {
	Dir       string
	Documents driving.DocumentService
	Debounce  time.Duration
	Logger    *slog.Logger
}

// Watcher mirrors one directory into the document registry
type Watcher struct {
	dir       string
	documents driving.DocumentService
	debounce  time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	docs    map[string]string // path -> document id
	pending map[string]*pathState
	wg      sync.WaitGroup
}

// New creates a watcher for cfg.Dir
func New(cfg Config) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("%w: watch directory is required", domain.ErrInvalidInput)
	}
	if cfg.Documents == nil {
		return nil, fmt.Errorf("%w: document service is required", domain.ErrInvalidInput)
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, cfg.Dir)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, err
	}

	return &Watcher{
		dir:       dir,
		documents: cfg.Documents,
		debounce:  cfg.Debounce,
		logger:    cfg.Logger.With("watch_dir", dir),
		docs:      make(map[string]string),
		pending:   make(map[string]*pathState),
	}, nil
}

// Run uploads the files already present, then follows changes until ctx is
// cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	if err := w.scan(ctx); err != nil {
		return err
	}
	w.logger.Info("watching directory")

	defer w.stopPending()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// Tracked returns the document id uploaded for path, if any
func (w *Watcher) Tracked(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id, ok := w.docs[path]
	return id, ok
}

func (w *Watcher) scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("scan %s: %w", w.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, e.Name())
		if supported(path) {
			w.upload(ctx, path)
		}
	}
	return nil
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if !supported(event.Name) {
		return
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.schedule(ctx, event.Name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.cancel(event.Name)
		w.remove(ctx, event.Name)
	}
}

// pathState tracks the upload work for one path
type pathState struct {
	timer     *time.Timer // Set while the quiet period runs
	running   bool        // An upload is in flight
	dirty     bool        // Changed again while uploading
	cancelled bool        // Removed from disk
}

// schedule (re)starts the quiet period for path. Editors and copies emit
// several writes per save. A change during an upload is picked up by one
// more upload once the current one finishes.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	st, ok := w.pending[path]
	if !ok {
		st = &pathState{}
		w.pending[path] = st
	}

	switch {
	case st.running:
		st.dirty = true
	case st.timer != nil && st.timer.Stop():
		st.timer.Reset(w.debounce)
	case st.timer != nil:
		// Fired, upload about to start
		st.dirty = true
	default:
		st.timer = w.startTimer(ctx, path, st)
	}
}

// startTimer must be called with w.mu held
func (w *Watcher) startTimer(ctx context.Context, path string, st *pathState) *time.Timer {
	w.wg.Add(1)
	return time.AfterFunc(w.debounce, func() { w.fire(ctx, path, st) })
}

func (w *Watcher) fire(ctx context.Context, path string, st *pathState) {
	defer w.wg.Done()

	w.mu.Lock()
	if w.pending[path] != st {
		w.mu.Unlock()
		return
	}
	st.timer = nil
	st.running = true
	w.mu.Unlock()

	if ctx.Err() == nil {
		w.upload(ctx, path)
	}

	w.mu.Lock()
	st.running = false
	cancelled := st.cancelled
	switch {
	case cancelled:
	case st.dirty && ctx.Err() == nil && w.pending[path] == st:
		st.dirty = false
		st.timer = w.startTimer(ctx, path, st)
	case w.pending[path] == st:
		delete(w.pending, path)
	}
	w.mu.Unlock()

	// The file went away while it was uploading
	if cancelled {
		w.remove(ctx, path)
	}
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	st, ok := w.pending[path]
	if !ok {
		return
	}
	st.cancelled = true
	if st.timer != nil && st.timer.Stop() {
		w.wg.Done()
	}
	delete(w.pending, path)
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	for path, st := range w.pending {
		if st.timer != nil && st.timer.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// upload registers path as a new document, replacing the one uploaded for
// an earlier version of the file.
func (w *Watcher) upload(ctx context.Context, path string) {
	logger := w.logger.With("path", path)

	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("failed to open file", "error", err)
		}
		return
	}
	defer f.Close()

	w.remove(ctx, path)

	doc, err := w.documents.Upload(ctx, filepath.Base(path), f)
	if err != nil {
		logger.Error("failed to upload file", "error", err)
		return
	}

	w.mu.Lock()
	w.docs[path] = doc.ID
	w.mu.Unlock()
	logger.Info("file uploaded", "document_id", doc.ID)
}

func (w *Watcher) remove(ctx context.Context, path string) {
	w.mu.Lock()
	id, ok := w.docs[path]
	delete(w.docs, path)
	w.mu.Unlock()
	if !ok {
		return
	}

	if err := w.documents.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		w.logger.Warn("failed to delete document", "path", path, "document_id", id, "error", err)
		return
	}
	w.logger.Info("document removed", "path", path, "document_id", id)
}

// supported skips hidden files and Office lock files ("~$report.docx")
func supported(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return false
	}
	_, err := domain.ParseFileType(name)
	return err == nil
}
