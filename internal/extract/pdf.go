package extract

import (
	"bytes"
	"context"
	"fmt"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFExtractor reads PDF documents page by page.
type PDFExtractor struct{}

// Extract returns one Page per PDF page. A page that cannot be rendered to
// text is returned empty so page numbering stays aligned with the source.
func (e *PDFExtractor) Extract(ctx context.Context, raw []byte) (pages []Page, err error) {
	// The pdf library panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %v", ErrUnreadableDocument, r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrUnreadableDocument)
	}

	pages = make([]Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := Page{Number: i - 1}
		p := reader.Page(i)
		if !p.V.IsNull() {
			if text, err := p.GetPlainText(nil); err == nil {
				page.Text = text
			}
		}
		pages = append(pages, page)
	}

	return pages, nil
}
