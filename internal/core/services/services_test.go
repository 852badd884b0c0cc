package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/legallink/lexindex/internal/core/domain"
	"github.com/legallink/lexindex/internal/core/ports/driven"
)

// testEmbedder maps known words to fixed points in a 2d space so
// distances, and therefore similarity scores, are exact.
type testEmbedder struct {
	mu     sync.Mutex
	err    error
	points map[string][]float32
	calls  int
}

func newTestEmbedder() *testEmbedder {
	return &testEmbedder{points: map[string][]float32{}}
}

func (e *testEmbedder) place(text string, x, y float32) {
	e.points[text] = []float32{x, y}
}

func (e *testEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	if vec, ok := e.points[text]; ok {
		return vec, nil
	}
	return []float32{float32(len(text)), 0}, nil
}

func (e *testEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *testEmbedder) Dimensions() int { return 2 }
func (e *testEmbedder) ModelName() string { return "test-embed" }
func (e *testEmbedder) Ping(context.Context) error { return nil }
func (e *testEmbedder) Close() error { return nil }

// memIndex is a minimal exact-search index for service tests.
type memIndex struct {
	mu         sync.RWMutex
	dimensions int
	entries    []driven.IndexEntry
}

func newMemIndex(dimensions int) (driven.VectorIndex, error) {
	return &memIndex{dimensions: dimensions}, nil
}

func (m *memIndex) Build(entries []driven.IndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		if len(e.Vector) != m.dimensions {
			return domain.ErrDimensionMismatch
		}
	}
	m.entries = append([]driven.IndexEntry(nil), entries...)
	return nil
}

func (m *memIndex) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(query) != m.dimensions {
		return nil, domain.ErrDimensionMismatch
	}
	hits := make([]driven.VectorHit, len(m.entries))
	for i, e := range m.entries {
		var sum float64
		for j := range query {
			d := float64(query[j]) - float64(e.Vector[j])
			sum += d * d
		}
		hits[i] = driven.VectorHit{ID: i, Distance: math.Sqrt(sum)}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Distance < hits[b].Distance })
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *memIndex) Passage(id int) (domain.Passage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id < 0 || id >= len(m.entries) {
		return domain.Passage{}, false
	}
	return m.entries[id].Passage, true
}

func (m *memIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *memIndex) Dimensions() int { return m.dimensions }

// memStore records saved snapshots in memory.
type memStore struct {
	mu    sync.Mutex
	saved []*driven.IndexSnapshot
	err   error
}

func (s *memStore) Save(_ context.Context, snapshot *driven.IndexSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, snapshot)
	return nil
}

func (s *memStore) Load(context.Context, int) (*driven.IndexSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saved) == 0 {
		return nil, domain.ErrNotFound
	}
	return s.saved[len(s.saved)-1], nil
}

func (s *memStore) Path() string { return "memory" }

func (s *memStore) lastSaved() *driven.IndexSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saved) == 0 {
		return nil
	}
	return s.saved[len(s.saved)-1]
}

// stubConnector feeds a fixed set of documents and scan errors.
type stubConnector struct {
	docs       []domain.RawDocument
	errs       []error
	release    chan struct{} // when set, FullScan blocks until closed
	scanExited chan struct{} // when set, closed once the scan goroutine returns
}

func (c *stubConnector) Type() string { return "stub" }
func (c *stubConnector) SourceID() string { return "stub-source" }
func (c *stubConnector) Validate(context.Context) error { return nil }
func (c *stubConnector) Close() error { return nil }
func (c *stubConnector) Watch(context.Context) (<-chan struct{}, error) {
	return nil, fmt.Errorf("not supported")
}

func (c *stubConnector) FullScan(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docsCh := make(chan domain.RawDocument)
	errsCh := make(chan error)
	go func() {
		defer close(docsCh)
		defer close(errsCh)
		if c.scanExited != nil {
			defer close(c.scanExited)
		}
		if c.release != nil {
			select {
			case <-c.release:
			case <-ctx.Done():
				return
			}
		}
		for _, err := range c.errs {
			select {
			case errsCh <- err:
			case <-ctx.Done():
				return
			}
		}
		for _, doc := range c.docs {
			select {
			case docsCh <- doc:
			case <-ctx.Done():
				return
			}
		}
	}()
	return docsCh, errsCh
}

// stubRegistry normalises text/plain and rejects everything else.
type stubRegistry struct{}

func (stubRegistry) Register(driven.Normaliser) {}
func (stubRegistry) SupportedMIMETypes() []string { return []string{"text/plain"} }
func (stubRegistry) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw.MIMEType != "text/plain" {
		return nil, fmt.Errorf("%w: no normaliser for %q", domain.ErrUnsupportedType, raw.MIMEType)
	}
	return &driven.NormaliseResult{Document: domain.Document{
		ID:      raw.URI,
		URI:     raw.URI,
		Content: string(raw.Content),
	}}, nil
}

// linePipeline cuts a document into one passage per line.
type linePipeline struct{}

func (linePipeline) Process(_ context.Context, doc *domain.Document) ([]domain.Passage, error) {
	var passages []domain.Passage
	for i, line := range strings.Split(doc.Content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		passages = append(passages, domain.Passage{
			ID:         fmt.Sprintf("%s#%d", doc.ID, i),
			DocumentID: doc.ID,
			Source:     doc.URI,
			Content:    line,
			Position:   i,
		})
	}
	return passages, nil
}

func rawDoc(uri, mime, content string) domain.RawDocument {
	return domain.RawDocument{SourceID: "stub-source", URI: uri, MIMEType: mime, Content: []byte(content)}
}
