package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legallink/lexindex/internal/core/domain"
	"github.com/legallink/lexindex/internal/core/ports/driven"
)

func testSnapshot() *driven.IndexSnapshot {
	return &driven.IndexSnapshot{
		Model:      "nomic-embed-text",
		Dimensions: 3,
		Passages: []domain.Passage{
			{ID: "p1", DocumentID: "d1", Source: "docs/lease.txt", Content: "the tenant shall", Position: 0},
			{ID: "p2", DocumentID: "d1", Source: "docs/lease.txt", Content: "rent is due monthly", Position: 800},
			{ID: "p3", DocumentID: "d2", Source: "docs/will.md", Content: "I bequeath", Position: 0},
		},
		Vectors: [][]float32{
			{0.1, 0.2, 0.3},
			{0.4, 0.5, 0.6},
			{-1, 0, 1},
		},
	}
}

func newTestStore(t *testing.T) *IndexStore {
	t.Helper()
	store, err := NewIndexStore(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	return store
}

func TestNewIndexStore_RejectsEmptyPath(t *testing.T) {
	_, err := NewIndexStore("")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	want := testSnapshot()

	require.NoError(t, store.Save(context.Background(), want))

	got, err := store.Load(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, want.Model, got.Model)
	assert.Equal(t, want.Dimensions, got.Dimensions)
	assert.Equal(t, want.Passages, got.Passages)
	assert.Equal(t, want.Vectors, got.Vectors)
}

func TestSave_ReplacesPriorIndex(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(context.Background(), testSnapshot()))

	smaller := &driven.IndexSnapshot{
		Model:      "nomic-embed-text",
		Dimensions: 3,
		Passages:   []domain.Passage{{ID: "only", Source: "docs/new.txt", Content: "replacement"}},
		Vectors:    [][]float32{{1, 1, 1}},
	}
	require.NoError(t, store.Save(context.Background(), smaller))

	got, err := store.Load(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got.Passages, 1)
	assert.Equal(t, "only", got.Passages[0].ID)
}

func TestSave_LeavesNoTempFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(context.Background(), testSnapshot()))

	_, err := os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoad_MissingArtifact(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load(context.Background(), 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoad_DimensionMismatch(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(context.Background(), testSnapshot()))

	_, err := store.Load(context.Background(), 768)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestLoad_ZeroExpectDimsSkipsCheck(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(context.Background(), testSnapshot()))

	got, err := store.Load(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Dimensions)
}

func TestLoad_CorruptArtifact(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("not a database"), 0600))

	_, err := store.Load(context.Background(), 3)
	assert.ErrorIs(t, err, domain.ErrIndexCorrupt)
}

func TestSave_RejectsMisalignedSnapshot(t *testing.T) {
	store := newTestStore(t)
	snap := testSnapshot()
	snap.Vectors = snap.Vectors[:2]

	err := store.Save(context.Background(), snap)
	require.Error(t, err)

	_, err = store.Load(context.Background(), 3)
	assert.ErrorIs(t, err, domain.ErrNotFound, "failed save must not leave an artifact")
}

func TestSaveLoad_EmptySnapshot(t *testing.T) {
	store := newTestStore(t)
	empty := &driven.IndexSnapshot{Model: "nomic-embed-text", Dimensions: 3}

	require.NoError(t, store.Save(context.Background(), empty))

	got, err := store.Load(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, got.Passages)
	assert.Empty(t, got.Vectors)
}

func TestFloat32BlobRoundTrip(t *testing.T) {
	in := []float32{0, -1.5, 3.25, 1e-20, 1e20}
	out := bytesToFloat32Slice(float32SliceToBytes(in))
	assert.Equal(t, in, out)

	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
