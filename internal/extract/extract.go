// Package extract turns raw documents into ordered, page-tagged text passages.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedType    = errors.New("unsupported document type")
	ErrUnreadableDocument = errors.New("unreadable document")
)

// Page is the raw text of one page of a document. Number is 0-based.
type Page struct {
	Number int
	Text   string
}

// Passage is a page-scoped chunk of extracted text, the atomic retrievable unit.
type Passage struct {
	ID         string // UUID
	Content    string // Trimmed, never empty
	PageNumber int    // 0-based page index in the source document
}

// Extractor converts raw document bytes into pages, in document order.
type Extractor interface {
	Extract(ctx context.Context, raw []byte) ([]Page, error)
}

// ForFile returns the extractor for a filename based on its extension.
func ForFile(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFExtractor{}, nil
	case ".md", ".markdown":
		return NewMarkdownExtractor(), nil
	case ".txt":
		return &TextExtractor{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
}

// Passages builds one passage per non-empty page. Pages whose text is empty
// after trimming are dropped and never indexed.
func Passages(pages []Page) []Passage {
	passages := make([]Passage, 0, len(pages))
	for _, page := range pages {
		content := strings.TrimSpace(strings.ToValidUTF8(page.Text, ""))
		if content == "" {
			continue
		}
		passages = append(passages, Passage{
			ID:         uuid.New().String(),
			Content:    content,
			PageNumber: page.Number,
		})
	}
	return passages
}
