package services

import "strings"

// Default chunk geometry. Sizes are in runes so multi-byte text never
// splits inside a character.
const (
	chunkOverlap = 100

	chunkSizePDF     = 1000
	chunkSizeWord    = 800
	chunkSizeText    = 500
	chunkSizeDefault = 750
)

// Chunker splits extracted document text into overlapping windows sized
// by source format.
type Chunker struct{}

// NewChunker creates a text chunker.
func NewChunker() *Chunker {
	return &Chunker{}
}

// ChunkSizeFor returns the window size for a MIME type.
func (c *Chunker) ChunkSizeFor(mimeType string) int {
	lowered := strings.ToLower(mimeType)
	switch {
	case strings.Contains(lowered, "pdf"):
		return chunkSizePDF
	case strings.Contains(lowered, "word"):
		return chunkSizeWord
	case strings.Contains(lowered, "text"):
		return chunkSizeText
	default:
		return chunkSizeDefault
	}
}

// ChunkText splits text into windows of size runes with chunkOverlap runes
// shared between consecutive windows. Every rune of the input appears in
// at least one chunk. Empty input yields no chunks.
func (c *Chunker) ChunkText(text string, size int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if size <= chunkOverlap {
		size = chunkOverlap + 1
	}

	var chunks []string
	start := 0
	for {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
		start = end - chunkOverlap
	}

	return chunks
}
