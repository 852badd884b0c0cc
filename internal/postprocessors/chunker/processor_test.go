package chunker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/legallink/lexindex/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.overlap)
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		p, err := New(WithChunkSize(500))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.chunkSize != 500 {
			t.Errorf("expected chunkSize 500, got %d", p.chunkSize)
		}
	})

	t.Run("custom overlap", func(t *testing.T) {
		p, err := New(WithOverlap(100))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.overlap != 100 {
			t.Errorf("expected overlap 100, got %d", p.overlap)
		}
	})

	t.Run("overlap equal to chunk size rejected", func(t *testing.T) {
		_, err := New(WithChunkSize(100), WithOverlap(100))
		if !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("overlap exceeding chunk size rejected", func(t *testing.T) {
		_, err := New(WithChunkSize(100), WithOverlap(150))
		if !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("zero chunk size rejected", func(t *testing.T) {
		_, err := New(WithChunkSize(0))
		if !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("negative overlap rejected", func(t *testing.T) {
		_, err := New(WithOverlap(-1))
		if !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	p, _ := New()
	if p.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", p.Name())
	}
}

func TestProcessor_Process_EmptyContent(t *testing.T) {
	p, _ := New()
	doc := &domain.Document{
		ID:      "test-doc",
		Content: "",
	}

	passages, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passages) != 0 {
		t.Errorf("expected 0 passages for empty content, got %d", len(passages))
	}
}

func TestProcessor_Process_SmallContent(t *testing.T) {
	p, _ := New(WithChunkSize(100), WithOverlap(20))
	doc := &domain.Document{
		ID:      "test-doc",
		URI:     "file:///docs/small.txt",
		Content: "short text",
	}

	passages, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passages) != 1 {
		t.Fatalf("expected 1 passage, got %d", len(passages))
	}
	if passages[0].Content != "short text" {
		t.Errorf("expected content 'short text', got '%s'", passages[0].Content)
	}
	if passages[0].Position != 0 {
		t.Errorf("expected position 0, got %d", passages[0].Position)
	}
	if passages[0].DocumentID != "test-doc" {
		t.Errorf("expected document id 'test-doc', got '%s'", passages[0].DocumentID)
	}
	if passages[0].Source != "file:///docs/small.txt" {
		t.Errorf("expected source to carry the document URI, got '%s'", passages[0].Source)
	}
}

func TestProcessor_Process_Overlap(t *testing.T) {
	p, _ := New(WithChunkSize(10), WithOverlap(4))
	doc := &domain.Document{
		ID:      "test-doc",
		Content: "abcdefghijklmnopqrstuvwxyz",
	}

	passages, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// step = 6: windows at 0, 6, 12, 18, 24
	want := []string{"abcdefghij", "ghijklmnop", "mnopqrstuv", "stuvwxyz", "yz"}
	if len(passages) != len(want) {
		t.Fatalf("expected %d passages, got %d", len(want), len(passages))
	}
	for i, w := range want {
		if passages[i].Content != w {
			t.Errorf("passage %d: expected %q, got %q", i, w, passages[i].Content)
		}
		if passages[i].Position != i {
			t.Errorf("passage %d: expected position %d, got %d", i, i, passages[i].Position)
		}
	}

	// Consecutive windows share exactly the overlap
	for i := 1; i < len(passages); i++ {
		prev := passages[i-1].Content
		tail := prev[len(prev)-4:]
		if len(prev) == p.chunkSize && !strings.HasPrefix(passages[i].Content, tail) {
			t.Errorf("passage %d does not overlap its predecessor", i)
		}
	}
}

func TestProcessor_Process_FullCoverage(t *testing.T) {
	// Stripping the overlap from every window after the first must
	// reconstruct the original text exactly.
	p, _ := New(WithChunkSize(50), WithOverlap(10))
	doc := &domain.Document{
		ID:      "test-doc",
		Content: strings.Repeat("Section 92. Public charities may be enforced. ", 20),
	}

	passages, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rebuilt strings.Builder
	for i, passage := range passages {
		if i == 0 {
			rebuilt.WriteString(passage.Content)
			continue
		}
		if len(passage.Content) <= p.overlap {
			// Final short window fully contained in the previous one's tail
			continue
		}
		rebuilt.WriteString(passage.Content[p.overlap:])
	}

	if rebuilt.String() != doc.Content {
		t.Error("concatenating chunk ranges minus overlaps did not reconstruct the original text")
	}
}

func TestProcessor_Process_Deterministic(t *testing.T) {
	p, _ := New(WithChunkSize(30), WithOverlap(5))
	doc := &domain.Document{
		ID:      "test-doc",
		Content: strings.Repeat("contract formation requires offer and acceptance ", 10),
	}

	first, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("runs produced different passage counts: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Content != second[i].Content {
			t.Errorf("passage %d differs between runs", i)
		}
		if first[i].Position != second[i].Position {
			t.Errorf("passage %d position differs between runs", i)
		}
	}
}

func TestProcessor_Process_ExpectedCount(t *testing.T) {
	tests := []struct {
		name      string
		length    int
		chunkSize int
		overlap   int
		want      int
	}{
		{"exact single window", 100, 100, 0, 1},
		{"trailing overlap window", 100, 100, 20, 2},
		{"two windows", 150, 100, 20, 2},
		{"no overlap", 250, 100, 0, 3},
		{"one char", 1, 100, 20, 1},
		{"default params medium doc", 2000, 1000, 200, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(WithChunkSize(tt.chunkSize), WithOverlap(tt.overlap))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			doc := &domain.Document{
				ID:      "test-doc",
				Content: strings.Repeat("x", tt.length),
			}
			passages, err := p.Process(context.Background(), doc, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(passages) != tt.want {
				t.Errorf("expected %d passages, got %d", tt.want, len(passages))
			}
		})
	}
}
