package extract

import (
	"bytes"
	"context"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// MarkdownExtractor treats every H1/H2 section of a markdown document as a page.
// Text before the first heading, when present, becomes the first page.
type MarkdownExtractor struct {
	parser goldmark.Markdown
}

// NewMarkdownExtractor creates a markdown extractor configured with goldmark parser.
func NewMarkdownExtractor() *MarkdownExtractor {
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &MarkdownExtractor{parser: md}
}

func (e *MarkdownExtractor) Extract(_ context.Context, raw []byte) ([]Page, error) {
	doc := e.parser.Parser().Parse(text.NewReader(raw))

	tree, err := toc.Inspect(doc, raw,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: inspect headings: %v", ErrUnreadableDocument, err)
	}

	starts := sectionStarts(doc, raw, flatten(tree.Items))
	if len(starts) == 0 {
		return []Page{{Number: 0, Text: string(raw)}}, nil
	}

	var pages []Page
	if preamble := bytes.TrimSpace(raw[:starts[0]]); len(preamble) > 0 {
		pages = append(pages, Page{Number: 0, Text: string(preamble)})
	}
	for i, start := range starts {
		end := len(raw)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		pages = append(pages, Page{Number: len(pages), Text: string(raw[start:end])})
	}
	return pages, nil
}

// flatten walks TOC items depth-first, which is document order.
func flatten(items toc.Items) []*toc.Item {
	var out []*toc.Item
	for _, item := range items {
		out = append(out, item)
		out = append(out, flatten(item.Items)...)
	}
	return out
}

// sectionStarts returns the byte offset of the line holding each heading.
func sectionStarts(doc ast.Node, source []byte, items []*toc.Item) []int {
	starts := make([]int, 0, len(items))
	last := -1
	for _, item := range items {
		heading := findHeaderByID(doc, string(item.ID))
		if heading == nil || heading.Lines().Len() == 0 {
			continue
		}
		start := lineStart(source, heading.Lines().At(0).Start)
		if start <= last {
			continue
		}
		starts = append(starts, start)
		last = start
	}
	return starts
}

// findHeaderByID locates a heading node by its auto-generated ID.
func findHeaderByID(node ast.Node, id string) ast.Node {
	var found ast.Node
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			headingID, ok := n.AttributeString("id")
			if ok && string(headingID.([]byte)) == id {
				found = n
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return found
}

func lineStart(source []byte, offset int) int {
	if i := bytes.LastIndexByte(source[:offset], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}
