package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// TextExtractor handles plain text. Form feeds separate pages.
type TextExtractor struct{}

func (e *TextExtractor) Extract(_ context.Context, raw []byte) ([]Page, error) {
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: text is not valid UTF-8", ErrUnreadableDocument)
	}

	parts := strings.Split(string(raw), "\f")
	pages := make([]Page, len(parts))
	for i, part := range parts {
		pages[i] = Page{Number: i, Text: part}
	}
	return pages, nil
}
