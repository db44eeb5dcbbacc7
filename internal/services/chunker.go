package services

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 200
)

// TextChunker splits long documents into pieces small enough to embed.
type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// ChunkText implements TextChunker. Paragraphs are packed greedily into chunks
// of at most maxChunkSize runes; a paragraph that is too long on its own is
// packed sentence by sentence. Each new chunk starts with the last overlap
// runes of the previous one.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	var (
		chunks  []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunk := current.String()
		chunks = append(chunks, chunk)
		current.Reset()
		if tail := lastRunes(chunk, overlap); tail != "" {
			current.WriteString(tail)
		}
	}
	add := func(piece, sep string) {
		if current.Len() > 0 &&
			utf8.RuneCountInString(current.String())+utf8.RuneCountInString(sep)+utf8.RuneCountInString(piece) > maxChunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(piece)
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= maxChunkSize {
			add(para, "\n\n")
			continue
		}
		for _, sentence := range splitSentences(para) {
			if sentence = strings.TrimSpace(sentence); sentence != "" {
				add(sentence, " ")
			}
		}
	}

	// The trailing overlap alone is not a chunk.
	if current.Len() > 0 && (len(chunks) == 0 || current.String() != lastRunes(chunks[len(chunks)-1], overlap)) {
		chunks = append(chunks, current.String())
	}

	return chunks
}

func lastRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}
