// Package pdf provides a normaliser for PDF documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/legallink/lexindex/internal/core/domain"
	"github.com/legallink/lexindex/internal/core/ports/driven"
	"github.com/legallink/lexindex/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// TextExtractor extracts plain text from PDF bytes.
// Separated out so tests can substitute a double without real PDFs.
type TextExtractor interface {
	Extract(data []byte) (string, error)
}

// Normaliser handles PDF documents.
type Normaliser struct {
	extractor TextExtractor
}

// New creates a new PDF normaliser backed by the pdf library.
func New() *Normaliser {
	return &Normaliser{extractor: libExtractor{}}
}

// NewWithExtractor creates a PDF normaliser with a custom extractor.
func NewWithExtractor(e TextExtractor) *Normaliser {
	return &Normaliser{extractor: e}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the plain text of a PDF document.
// A PDF that cannot be parsed yields domain.ErrDocumentUnreadable so the
// builder records a skip instead of aborting the whole build.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content, err := n.extractor.Extract(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDocumentUnreadable, raw.URI, err)
	}

	doc := domain.Document{
		ID:          uuid.New().String(),
		URI:         raw.URI,
		Title:       plaintext.ExtractTitle(raw.URI),
		Content:     content,
		ContentType: raw.MIMEType,
		IngestedAt:  time.Now(),
	}

	return &driven.NormaliseResult{
		Document: doc,
	}, nil
}

// libExtractor extracts text with github.com/ledongthuc/pdf.
type libExtractor struct{}

// Extract reads all page text from the PDF bytes.
// The pdf library panics on some malformed inputs, so the panic is
// recovered into an error here.
func (libExtractor) Extract(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}

	return buf.String(), nil
}
