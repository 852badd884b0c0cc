// Package sqlite persists index snapshots to a single SQLite file.
// The artifact is self-describing: it records the embedding model and
// vector dimensions it was built with, so a load against a different
// configuration fails loudly instead of serving mixed-space results.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/legallink/lexindex/internal/core/domain"
	"github.com/legallink/lexindex/internal/core/ports/driven"
)

var _ driven.IndexStore = (*IndexStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS index_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS passages (
	position    INTEGER PRIMARY KEY,
	id          TEXT NOT NULL,
	document_id TEXT NOT NULL,
	source      TEXT NOT NULL,
	content     TEXT NOT NULL,
	offset      INTEGER NOT NULL,
	embedding   BLOB NOT NULL
);
`

// IndexStore saves and loads index snapshots as a SQLite database
// file. Save writes a complete new database beside the target and
// renames it into place, so readers never observe a partial write.
type IndexStore struct {
	path string
}

// NewIndexStore creates a store persisting to the given file path.
// Parent directories are created on first save.
func NewIndexStore(path string) (*IndexStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: index path must not be empty", domain.ErrInvalidConfig)
	}
	return &IndexStore{path: path}, nil
}

// Path returns the artifact's storage location.
func (s *IndexStore) Path() string {
	return s.path
}

// Save persists the snapshot atomically. The snapshot is written to a
// temporary file in the same directory and renamed over the target, so
// a crash mid-write leaves the previous artifact intact.
func (s *IndexStore) Save(ctx context.Context, snapshot *driven.IndexSnapshot) error {
	if len(snapshot.Passages) != len(snapshot.Vectors) {
		return fmt.Errorf("%d passages but %d vectors", len(snapshot.Passages), len(snapshot.Vectors))
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	// A stale tmp file from a crashed save would corrupt the new write.
	if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing stale temp index: %w", err)
	}

	if err := s.writeSnapshot(ctx, tmpPath, snapshot); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("swapping index into place: %w", err)
	}
	return nil
}

func (s *IndexStore) writeSnapshot(ctx context.Context, path string, snapshot *driven.IndexSnapshot) error {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(DELETE)")
	if err != nil {
		return fmt.Errorf("opening temp index: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	meta := map[string]string{
		"model":      snapshot.Model,
		"dimensions": fmt.Sprintf("%d", snapshot.Dimensions),
		"saved_at":   time.Now().UTC().Format(time.RFC3339),
	}
	for key, value := range meta {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO index_meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("saving metadata: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO passages (position, id, document_id, source, content, offset, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, passage := range snapshot.Passages {
		vector := snapshot.Vectors[i]
		if len(vector) != snapshot.Dimensions {
			return fmt.Errorf("%w: passage %d has %d dimensions, snapshot declares %d",
				domain.ErrDimensionMismatch, i, len(vector), snapshot.Dimensions)
		}
		if _, err := stmt.ExecContext(ctx, i, passage.ID, passage.DocumentID,
			passage.Source, passage.Content, passage.Position, float32SliceToBytes(vector)); err != nil {
			return fmt.Errorf("saving passage %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

// Load restores the most recently saved snapshot. When expectDims > 0
// the stored dimensions must match it exactly.
func (s *IndexStore) Load(ctx context.Context, expectDims int) (*driven.IndexSnapshot, error) {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no index at %s", domain.ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("checking index file: %w", err)
	}

	db, err := sql.Open("sqlite", s.path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("%w: opening index: %w", domain.ErrIndexCorrupt, err)
	}
	defer db.Close()

	snapshot := &driven.IndexSnapshot{}

	rows, err := db.QueryContext(ctx, `SELECT key, value FROM index_meta`)
	if err != nil {
		return nil, fmt.Errorf("%w: reading metadata: %w", domain.ErrIndexCorrupt, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("%w: scanning metadata: %w", domain.ErrIndexCorrupt, err)
		}
		switch key {
		case "model":
			snapshot.Model = value
		case "dimensions":
			if _, err := fmt.Sscanf(value, "%d", &snapshot.Dimensions); err != nil {
				return nil, fmt.Errorf("%w: invalid dimensions %q", domain.ErrIndexCorrupt, value)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading metadata: %w", domain.ErrIndexCorrupt, err)
	}

	if snapshot.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: missing dimensions metadata", domain.ErrIndexCorrupt)
	}
	if expectDims > 0 && snapshot.Dimensions != expectDims {
		return nil, fmt.Errorf("%w: index has %d dimensions, configuration expects %d",
			domain.ErrDimensionMismatch, snapshot.Dimensions, expectDims)
	}

	if err := s.loadPassages(ctx, db, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *IndexStore) loadPassages(ctx context.Context, db *sql.DB, snapshot *driven.IndexSnapshot) error {
	rows, err := db.QueryContext(ctx, `
		SELECT id, document_id, source, content, offset, embedding
		FROM passages ORDER BY position
	`)
	if err != nil {
		return fmt.Errorf("%w: reading passages: %w", domain.ErrIndexCorrupt, err)
	}
	defer rows.Close()

	for rows.Next() {
		var passage domain.Passage
		var blob []byte
		if err := rows.Scan(&passage.ID, &passage.DocumentID, &passage.Source,
			&passage.Content, &passage.Position, &blob); err != nil {
			return fmt.Errorf("%w: scanning passage: %w", domain.ErrIndexCorrupt, err)
		}

		vector := bytesToFloat32Slice(blob)
		if len(vector) != snapshot.Dimensions {
			return fmt.Errorf("%w: passage %s has %d dimensions, index declares %d",
				domain.ErrIndexCorrupt, passage.ID, len(vector), snapshot.Dimensions)
		}

		snapshot.Passages = append(snapshot.Passages, passage)
		snapshot.Vectors = append(snapshot.Vectors, vector)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: reading passages: %w", domain.ErrIndexCorrupt, err)
	}
	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
