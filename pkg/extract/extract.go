// Package extract turns uploaded files into plain text for chunking.
//
// Binary formats (PDF, word processor archives) are handled by external
// extractors behind the Extractor interface; the built-in extractor
// covers plain text and text-like payloads with whitespace
// normalization.
package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Format classifies an upload by its MIME type. The format drives
// chunk sizing downstream.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatWord  Format = "word"
	FormatText  Format = "text"
	FormatOther Format = "other"
)

// DetectFormat returns the document format for a MIME type.
func DetectFormat(mimeType string) Format {
	lower := strings.ToLower(mimeType)
	switch {
	case strings.Contains(lower, "pdf"):
		return FormatPDF
	case strings.Contains(lower, "word"):
		return FormatWord
	case strings.Contains(lower, "text"):
		return FormatText
	default:
		return FormatOther
	}
}

// Extractor produces plain text from an uploaded file.
type Extractor interface {
	Extract(ctx context.Context, fileName, mimeType string, data []byte) (string, error)
}

// PlainTextExtractor extracts text-like payloads directly. It rejects
// content that is not valid UTF-8; binary formats need a dedicated
// extractor.
type PlainTextExtractor struct{}

// NewPlainTextExtractor creates a plain text extractor.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// Extract implements Extractor.
func (e *PlainTextExtractor) Extract(_ context.Context, fileName, _ string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: content is not valid UTF-8 text", fileName)
	}
	return normalizeWhitespace(string(data)), nil
}

// normalizeWhitespace collapses runs of blank lines and trims trailing
// spaces so that chunk boundaries land on real content.
func normalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	blank := 0
	for _, line := range lines {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// Ensure PlainTextExtractor implements Extractor at compile time.
var _ Extractor = (*PlainTextExtractor)(nil)
