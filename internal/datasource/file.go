// Package datasource provides the graphs a viewer session loads.
// Sources are injected; a missing graph is reported as ErrNoData.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/schemascope/core/internal/models"
	"github.com/schemascope/core/internal/parser"
)

const defaultDebounce = 100 * time.Millisecond

// File reads graphs from <dir>/<connectionID>.json. Files may hold a bare
// graph or a discovery envelope.
type File struct {
	dir      string
	debounce time.Duration
	logger   *slog.Logger
}

func NewFile(dir string, debounce time.Duration, logger *slog.Logger) *File {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &File{dir: dir, debounce: debounce, logger: logger.With("component", "datasource.file")}
}

func (f *File) Fetch(ctx context.Context, connectionID string) (models.GraphData, error) {
	if err := ctx.Err(); err != nil {
		return models.GraphData{}, err
	}
	if connectionID == "" || strings.ContainsAny(connectionID, `/\`) || connectionID != filepath.Base(connectionID) {
		return models.GraphData{}, fmt.Errorf("invalid connection id %q: %w", connectionID, ErrNoData)
	}

	data, err := os.ReadFile(filepath.Join(f.dir, connectionID+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return models.GraphData{}, fmt.Errorf("connection %s: %w", connectionID, ErrNoData)
	}
	if err != nil {
		return models.GraphData{}, fmt.Errorf("failed to read graph file: %w", err)
	}

	graph, err := parser.ParseGraph(data)
	if err != nil {
		return models.GraphData{}, fmt.Errorf("failed to parse graph file for %s: %w", connectionID, err)
	}
	return *graph, nil
}

// Watch calls onChange with the connection id of every graph file written
// or created in the directory. Bursts of events for one file are
// collapsed into a single call. Watch blocks until ctx is done.
func (f *File) Watch(ctx context.Context, onChange func(connectionID string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(f.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", f.dir, err)
	}
	f.logger.Info("watching graph directory", "dir", f.dir)

	var (
		mu     sync.Mutex
		timers = make(map[string]*time.Timer)
	)
	defer func() {
		mu.Lock()
		defer mu.Unlock()
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("graph directory watch error", "error", err)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			name := filepath.Base(ev.Name)
			if filepath.Ext(name) != ".json" {
				continue
			}
			id := strings.TrimSuffix(name, ".json")

			mu.Lock()
			if t, ok := timers[id]; ok {
				t.Stop()
			}
			timers[id] = time.AfterFunc(f.debounce, func() {
				mu.Lock()
				delete(timers, id)
				mu.Unlock()
				if ctx.Err() == nil {
					f.logger.Debug("graph file changed", "connection_id", id)
					onChange(id)
				}
			})
			mu.Unlock()
		}
	}
}
