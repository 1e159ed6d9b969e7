// Package answer turns retrieved passages and a question into a grounded answer
// with page citations.
package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/bull/docqa/internal/extract"
	"github.com/bull/docqa/internal/llm"
	"github.com/bull/docqa/internal/metrics"
)

// Temperature is the sampling temperature for every completion.
const Temperature = 0.3

// Completer is a text-completion service.
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float64) (string, error)
}

// Answer is the response to one question. It is never persisted.
type Answer struct {
	Text       string `json:"answer"`
	CitedPages []int  `json:"cited_pages"`
}

// Synthesizer builds prompts, calls the completer and assembles citations.
type Synthesizer struct {
	completer Completer
	language  Language
	phrases   phrases
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewSynthesizer(completer Completer, language Language, m *metrics.Metrics, logger *slog.Logger) *Synthesizer {
	p, ok := catalog[language]
	if !ok {
		language = Spanish
		p = catalog[Spanish]
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		completer: completer,
		language:  language,
		phrases:   p,
		metrics:   m,
		logger:    logger,
	}
}

// Language returns the language answers are written in.
func (s *Synthesizer) Language() Language {
	return s.language
}

// Synthesize answers question from passages. It never fails: a missing context
// or a failed completion is reported in the answer text.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, passages []extract.Passage, filename string) Answer {
	if len(passages) == 0 {
		s.metrics.ObserveQuestion("no_context")
		return Answer{Text: s.phrases.noDocuments, CitedPages: []int{}}
	}

	pages := CitationPages(passages)
	citation := s.citationLine(pages)
	system := s.BuildPrompt(passages, filename)

	s.logger.Debug("Requesting completion", "passages", len(passages), "question_chars", len(question))
	text, err := s.completer.Complete(ctx, system, question, Temperature)
	if err != nil {
		s.logger.Warn("Completion failed", "error", err)
		s.metrics.ObserveQuestion("synthesis_error")
		return Answer{Text: s.errorText(err), CitedPages: pages}
	}

	text = strings.TrimSpace(text)
	if !strings.Contains(text, s.phrases.citationPrefix) && !strings.Contains(text, s.phrases.noAnswer) {
		text = text + "\n\n" + citation
	}

	s.metrics.ObserveQuestion("answered")
	return Answer{Text: text, CitedPages: pages}
}

// BuildPrompt assembles the system prompt: instructions, the filename when
// known, and each passage labeled with its ordinal and page in retrieval order.
func (s *Synthesizer) BuildPrompt(passages []extract.Passage, filename string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(s.phrases.instructions, s.phrases.noAnswer, s.citationLine(CitationPages(passages))))
	b.WriteString("\n\n")

	if filename != "" {
		b.WriteString(fmt.Sprintf(s.phrases.filenameAnswer, filename))
		b.WriteString("\n\n")
	}

	b.WriteString(s.phrases.availableInfo)
	b.WriteString("\n")
	for i, passage := range passages {
		b.WriteString(fmt.Sprintf(s.phrases.passageLabel, i+1, passage.PageNumber))
		b.WriteString("\n")
		b.WriteString(passage.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

// IsFilenameQuestion reports whether question asks for the document's name:
// it mentions the document and a name term.
func (s *Synthesizer) IsFilenameQuestion(question string) bool {
	q := joinWords(question)
	return containsAny(q, s.phrases.documentTerms) && containsAny(q, s.phrases.nameTerms)
}

// FilenameAnswer answers a filename question without retrieval or completion.
func (s *Synthesizer) FilenameAnswer(filename string) Answer {
	s.metrics.ObserveQuestion("filename")
	return Answer{Text: fmt.Sprintf(s.phrases.filenameAnswer, filename), CitedPages: []int{}}
}

// CitationPages lists the page of every passage in retrieval order. Duplicates are kept.
func CitationPages(passages []extract.Passage) []int {
	pages := make([]int, len(passages))
	for i, passage := range passages {
		pages[i] = passage.PageNumber
	}
	return pages
}

func (s *Synthesizer) citationLine(pages []int) string {
	parts := make([]string, len(pages))
	for i, page := range pages {
		parts[i] = strconv.Itoa(page)
	}
	return s.phrases.citationPrefix + " " + strings.Join(parts, ",")
}

func (s *Synthesizer) errorText(err error) string {
	if errors.Is(err, llm.ErrMissingAPIKey) {
		return s.phrases.missingKey
	}
	return fmt.Sprintf(s.phrases.processingError, err)
}

// containsAny reports whether any term occurs in s as whole words.
// s must come from joinWords.
func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, joinWords(term)) {
			return true
		}
	}
	return false
}

// joinWords lowercases text and rejoins its words with single spaces, padded on
// both ends so substring checks only match at word boundaries.
func joinWords(text string) string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	return " " + strings.Join(words, " ") + " "
}
