package extract

import (
	"context"
	"strings"
	"testing"
)

// TestMarkdownExtract_BasicHeaders tests splitting with H1 and multiple H2s.
func TestMarkdownExtract_BasicHeaders(t *testing.T) {
	input := `# Getting Started

Introduction text here.

## Installation

Install steps here.

## Configuration

Config details here.
`

	pages, err := NewMarkdownExtractor().Extract(context.Background(), []byte(input))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	// Expect 3 pages: H1, H2 Installation, H2 Configuration
	if len(pages) != 3 {
		t.Fatalf("Expected 3 pages, got %d", len(pages))
	}

	for i, page := range pages {
		if page.Number != i {
			t.Errorf("Page %d number: expected %d, got %d", i, i, page.Number)
		}
	}

	if !strings.HasPrefix(pages[0].Text, "# Getting Started") {
		t.Errorf("Page 0 should start with its heading, got %q", pages[0].Text)
	}
	if !strings.Contains(pages[0].Text, "Introduction text here") {
		t.Errorf("Page 0 missing expected content")
	}
	if strings.Contains(pages[0].Text, "Install steps") {
		t.Errorf("Page 0 should not contain the next section")
	}

	if !strings.HasPrefix(pages[1].Text, "## Installation") {
		t.Errorf("Page 1 should start with its heading, got %q", pages[1].Text)
	}
	if !strings.Contains(pages[1].Text, "Install steps here") {
		t.Errorf("Page 1 missing expected content")
	}

	if !strings.Contains(pages[2].Text, "Config details here") {
		t.Errorf("Page 2 missing expected content")
	}
}

// TestMarkdownExtract_H3StaysInSection verifies only H1/H2 start a new page.
func TestMarkdownExtract_H3StaysInSection(t *testing.T) {
	input := `# Guide

## Usage

Call the function.

### Details

` + "```go" + `
# not a heading
func DoSomething() error {
	return nil
}
` + "```" + `
`

	pages, err := NewMarkdownExtractor().Extract(context.Background(), []byte(input))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(pages))
	}
	if !strings.Contains(pages[1].Text, "### Details") {
		t.Errorf("H3 should stay inside the H2 page")
	}
	if !strings.Contains(pages[1].Text, "func DoSomething() error") {
		t.Errorf("Code block should stay inside the H2 page")
	}
}

// TestMarkdownExtract_Preamble verifies text before the first heading becomes the first page.
func TestMarkdownExtract_Preamble(t *testing.T) {
	input := "Front matter text.\n\n# Title\n\nBody text.\n"

	pages, err := NewMarkdownExtractor().Extract(context.Background(), []byte(input))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(pages))
	}
	if pages[0].Text != "Front matter text." {
		t.Errorf("Page 0: expected preamble, got %q", pages[0].Text)
	}
	if pages[1].Number != 1 {
		t.Errorf("Page 1 number: expected 1, got %d", pages[1].Number)
	}
}

// TestMarkdownExtract_NoHeaders verifies a document without headings is a single page.
func TestMarkdownExtract_NoHeaders(t *testing.T) {
	input := "Just a paragraph.\n\nAnd another one.\n"

	pages, err := NewMarkdownExtractor().Extract(context.Background(), []byte(input))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(pages) != 1 {
		t.Fatalf("Expected 1 page, got %d", len(pages))
	}
	if pages[0].Text != input {
		t.Errorf("Single page should hold the whole document")
	}
}

// TestMarkdownExtract_DuplicateTitles verifies repeated heading titles still split.
func TestMarkdownExtract_DuplicateTitles(t *testing.T) {
	input := `# Overview

First.

# Overview

Second.
`

	pages, err := NewMarkdownExtractor().Extract(context.Background(), []byte(input))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(pages))
	}
	if !strings.Contains(pages[0].Text, "First.") || !strings.Contains(pages[1].Text, "Second.") {
		t.Errorf("Unexpected page contents: %q / %q", pages[0].Text, pages[1].Text)
	}
}
