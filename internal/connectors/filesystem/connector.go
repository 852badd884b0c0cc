// Package filesystem provides a connector that enumerates documents
// from a local folder. The folder is the source of truth: files added
// or removed from it are picked up on the next full scan.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/legallink/lexindex/internal/core/domain"
	"github.com/legallink/lexindex/internal/core/ports/driven"
	"github.com/legallink/lexindex/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// mimeByExtension maps file extensions to the MIME types the
// normaliser registry dispatches on.
var mimeByExtension = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".csv":      "text/csv",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".pdf":      "application/pdf",
}

// Connector scans a local folder for documents.
type Connector struct {
	sourceID string
	rootPath string
}

// New creates a filesystem connector rooted at rootPath.
func New(sourceID, rootPath string) *Connector {
	return &Connector{
		sourceID: sourceID,
		rootPath: rootPath,
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "filesystem"
}

// SourceID returns the configured source ID.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// Validate checks the root path exists and is a readable directory.
func (c *Connector) Validate(_ context.Context) error {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", c.rootPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", c.rootPath)
	}
	return nil
}

// FullScan walks the root path and emits one RawDocument per regular
// file. Per-file read failures go to the error channel as ScanErrors
// without aborting the walk; both channels close when the scan ends.
func (c *Connector) FullScan(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docsCh := make(chan domain.RawDocument)
	errsCh := make(chan error, 1)

	go func() {
		defer close(docsCh)
		defer close(errsCh)

		err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				errsCh <- &driven.ScanError{URI: path, Err: err}
				return nil // Keep walking
			}
			if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
				return nil
			}

			content, err := os.ReadFile(path)
			if err != nil {
				errsCh <- &driven.ScanError{URI: path, Err: err}
				return nil
			}

			ext := strings.ToLower(filepath.Ext(path))
			mimeType, ok := mimeByExtension[ext]
			if !ok {
				mimeType = "application/octet-stream"
			}

			doc := domain.RawDocument{
				SourceID: c.sourceID,
				URI:      path,
				MIMEType: mimeType,
				Content:  content,
			}

			select {
			case docsCh <- doc:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			errsCh <- fmt.Errorf("walk %s: %w", c.rootPath, err)
		}
	}()

	return docsCh, errsCh
}

// Watch reports folder changes until ctx is cancelled. Every create,
// write, remove or rename under the root produces one signal; callers
// are expected to debounce and trigger a full rebuild.
func (c *Connector) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the root and any nested directories.
	err = filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", c.rootPath, err)
	}

	changes := make(chan struct{}, 1)

	go func() {
		defer watcher.Close()
		defer close(changes)

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				logger.Debug("Filesystem change: %s %s", event.Op, event.Name)
				// New directories need their own watch.
				if event.Op&fsnotify.Create != 0 {
					if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
						_ = watcher.Add(event.Name)
					}
				}
				select {
				case changes <- struct{}{}:
				default: // A signal is already pending
				}

			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", watchErr)
			}
		}
	}()

	return changes, nil
}

// Close releases resources.
func (c *Connector) Close() error {
	// The walk holds no persistent handles; watchers close with their context.
	return nil
}
