// Package markdown provides a normaliser for Markdown documents.
package markdown

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/legallink/lexindex/internal/core/domain"
	"github.com/legallink/lexindex/internal/core/ports/driven"
	"github.com/legallink/lexindex/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents. It parses the source with
// goldmark and extracts plain text from the AST, so formatting syntax
// never leaks into passages.
type Normaliser struct {
	md goldmark.Markdown
}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{md: goldmark.New()}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts a markdown document to a normalised document.
// The Content field contains the extracted plain text.
// Chunking is handled by the PostProcessor pipeline.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content, firstHeading := n.extractText(raw.Content)

	title := firstHeading
	if title == "" {
		title = plaintext.ExtractTitle(raw.URI)
	}

	doc := domain.Document{
		ID:          uuid.New().String(),
		URI:         raw.URI,
		Title:       title,
		Content:     content,
		ContentType: raw.MIMEType,
		IngestedAt:  time.Now(),
	}

	return &driven.NormaliseResult{
		Document: doc,
	}, nil
}

// extractText walks the markdown AST collecting text content.
// Returns the plain text and the first heading, if any.
func (n *Normaliser) extractText(src []byte) (string, string) {
	root := n.md.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	var firstHeading string

	_ = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			// Separate block-level nodes so chunk boundaries do not
			// glue a heading onto the next paragraph.
			if node.Type() == ast.TypeBlock && node.Kind() != ast.KindDocument {
				b.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}

		switch t := node.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.Heading:
			if firstHeading == "" {
				firstHeading = string(textOf(t, src))
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(src))
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String()), strings.TrimSpace(firstHeading)
}

// textOf collects the text segments directly under a node.
func textOf(node ast.Node, src []byte) []byte {
	var out []byte
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			out = append(out, t.Segment.Value(src)...)
		}
	}
	return out
}
