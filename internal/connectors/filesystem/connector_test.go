package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legallink/lexindex/internal/core/domain"
	"github.com/legallink/lexindex/internal/core/ports/driven"
)

func TestNew(t *testing.T) {
	t.Run("creates connector with valid parameters", func(t *testing.T) {
		connector := New("test-source-123", "/tmp/test")

		require.NotNil(t, connector)
		assert.Equal(t, "test-source-123", connector.sourceID)
		assert.Equal(t, "/tmp/test", connector.rootPath)
	})

	t.Run("implements Connector interface", func(t *testing.T) {
		connector := New("test", "/tmp")
		var _ driven.Connector = connector
	})
}

func TestConnector_Type(t *testing.T) {
	connector := New("test-source", "/tmp/test")
	assert.Equal(t, "filesystem", connector.Type())
}

func TestConnector_Validate(t *testing.T) {
	t.Run("existing directory", func(t *testing.T) {
		dir := t.TempDir()
		connector := New("src", dir)
		assert.NoError(t, connector.Validate(context.Background()))
	})

	t.Run("missing directory", func(t *testing.T) {
		connector := New("src", filepath.Join(t.TempDir(), "missing"))
		assert.Error(t, connector.Validate(context.Background()))
	})

	t.Run("path is a file", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "file.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

		connector := New("src", file)
		assert.Error(t, connector.Validate(context.Background()))
	})
}

func collectScan(t *testing.T, c *Connector) ([]domain.RawDocument, []error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	docsCh, errsCh := c.FullScan(ctx)

	var docs []domain.RawDocument
	var errs []error
	for docsCh != nil || errsCh != nil {
		select {
		case doc, ok := <-docsCh:
			if !ok {
				docsCh = nil
				continue
			}
			docs = append(docs, doc)
		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			errs = append(errs, err)
		case <-ctx.Done():
			t.Fatal("scan timed out")
		}
	}
	return docs, errs
}

func TestConnector_FullScan(t *testing.T) {
	t.Run("emits all supported files", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"), 0600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("# beta"), 0600))

		docs, errs := collectScan(t, New("src", dir))

		assert.Empty(t, errs)
		require.Len(t, docs, 2)

		byURI := make(map[string]domain.RawDocument)
		for _, d := range docs {
			byURI[filepath.Base(d.URI)] = d
		}
		assert.Equal(t, "text/plain", byURI["a.txt"].MIMEType)
		assert.Equal(t, []byte("alpha"), byURI["a.txt"].Content)
		assert.Equal(t, "text/markdown", byURI["b.md"].MIMEType)
	})

	t.Run("walks nested directories", func(t *testing.T) {
		dir := t.TempDir()
		nested := filepath.Join(dir, "statutes", "2024")
		require.NoError(t, os.MkdirAll(nested, 0700))
		require.NoError(t, os.WriteFile(filepath.Join(nested, "charity.txt"), []byte("section 92"), 0600))

		docs, errs := collectScan(t, New("src", dir))

		assert.Empty(t, errs)
		require.Len(t, docs, 1)
		assert.Contains(t, docs[0].URI, "charity.txt")
	})

	t.Run("skips hidden files", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "visible.txt"), []byte("x"), 0600))

		docs, _ := collectScan(t, New("src", dir))

		require.Len(t, docs, 1)
		assert.Contains(t, docs[0].URI, "visible.txt")
	})

	t.Run("unknown extension still emitted", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte{0x89, 0x50}, 0600))

		docs, _ := collectScan(t, New("src", dir))

		require.Len(t, docs, 1)
		assert.Equal(t, "application/octet-stream", docs[0].MIMEType)
	})

	t.Run("unreadable file surfaces error without aborting", func(t *testing.T) {
		if os.Getuid() == 0 {
			t.Skip("file permissions are not enforced for root")
		}

		dir := t.TempDir()
		locked := filepath.Join(dir, "locked.txt")
		require.NoError(t, os.WriteFile(locked, []byte("secret"), 0000))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "open.txt"), []byte("public"), 0600))

		docs, errs := collectScan(t, New("src", dir))

		require.Len(t, docs, 1)
		assert.Contains(t, docs[0].URI, "open.txt")

		require.Len(t, errs, 1)
		var scanErr *driven.ScanError
		require.True(t, errors.As(errs[0], &scanErr))
		assert.Contains(t, scanErr.URI, "locked.txt")
	})

	t.Run("cancelled context stops the scan", func(t *testing.T) {
		dir := t.TempDir()
		for i := 0; i < 10; i++ {
			name := filepath.Join(dir, string(rune('a'+i))+".txt")
			require.NoError(t, os.WriteFile(name, []byte("x"), 0600))
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		docsCh, errsCh := New("src", dir).FullScan(ctx)

		var count int
		for range docsCh {
			count++
		}
		for range errsCh {
		}
		assert.Less(t, count, 10)
	})
}

func TestConnector_Watch(t *testing.T) {
	dir := t.TempDir()
	connector := New("src", dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := connector.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x"), 0600))

	select {
	case _, ok := <-changes:
		assert.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("no change signal after file creation")
	}

	cancel()

	// Channel closes once the context is cancelled.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-changes:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("change channel did not close on cancellation")
		}
	}
}

func TestConnector_Watch_MissingRoot(t *testing.T) {
	connector := New("src", filepath.Join(t.TempDir(), "missing"))

	_, err := connector.Watch(context.Background())
	assert.Error(t, err)
}
