// Package chunker provides a fixed-size text chunking processor.
package chunker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/legallink/lexindex/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per passage.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Processor splits document content into fixed-size overlapping passages.
// It implements the PostProcessor interface.
//
// Splitting is deterministic: the same content and parameters always
// produce the same passage texts and positions, so rebuilds are
// reproducible.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a new chunker processor with the given options.
// The overlap must be strictly less than the chunk size; anything else
// would make the window stop advancing, so it is rejected here as a
// configuration error rather than surfacing as a hang at index time.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d",
			domain.ErrInvalidConfig, p.chunkSize)
	}
	if p.overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must be non-negative, got %d",
			domain.ErrInvalidConfig, p.overlap)
	}
	if p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be less than chunk size %d",
			domain.ErrInvalidConfig, p.overlap, p.chunkSize)
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured window size in characters.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap in characters.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the document content into passages.
// Input passages are ignored; this processor creates new passages from
// document content. The final window may be shorter than the chunk size
// and is still emitted unless it is empty.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Passage) ([]domain.Passage, error) {
	if doc.Content == "" {
		// Empty content produces no passages
		return nil, nil
	}

	content := doc.Content
	contentLen := len(content)
	step := p.chunkSize - p.overlap

	estimated := contentLen/step + 1
	passages := make([]domain.Passage, 0, estimated)

	position := 0
	for start := 0; start < contentLen; start += step {
		end := start + p.chunkSize
		if end > contentLen {
			end = contentLen
		}

		passages = append(passages, domain.Passage{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Source:     doc.URI,
			Content:    content[start:end],
			Position:   position,
		})
		position++
	}

	return passages, nil
}
