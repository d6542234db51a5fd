package ingestion

import (
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/poiesic/docsearch/core"
)

const (
	chunkEncoding = "cl100k_base"

	// DefaultChunkTokens and DefaultChunkOverlap are the token window
	// applied to section text.
	DefaultChunkTokens  = 300
	DefaultChunkOverlap = 50
)

// Chunker splits section text into overlapping token windows, each of
// which becomes one indexed passage.
type Chunker struct {
	encoder *tiktoken.Tiktoken
	size    int
	overlap int
	logger  *slog.Logger
}

// NewChunker creates a chunker with the given window size and overlap,
// both in tokens. When the BPE encoding cannot be loaded (offline hosts),
// the chunker falls back to whitespace tokens; window boundaries shift but
// chunking still works.
func NewChunker(size, overlap int, logger *slog.Logger) *Chunker {
	if size <= 0 {
		size = DefaultChunkTokens
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 6
	}
	if logger == nil {
		logger = slog.Default()
	}

	encoder, err := tiktoken.GetEncoding(chunkEncoding)
	if err != nil {
		logger.Warn("token encoding unavailable, chunking on whitespace",
			"encoding", chunkEncoding, "err", err)
		encoder = nil
	}

	return &Chunker{
		encoder: encoder,
		size:    size,
		overlap: overlap,
		logger:  logger,
	}
}

// Chunk splits a section into passages. Passage ids derive from the file,
// heading path, and sequence index, so re-chunking unchanged content
// produces the same ids. An empty section yields no passages.
func (c *Chunker) Chunk(section *core.Section) []*core.Passage {
	text := strings.TrimSpace(section.Text)
	if text == "" {
		return nil
	}

	chunks := c.split(text)
	sectionID := core.SectionIDFor(section.File, section.HeadingPath)

	passages := make([]*core.Passage, 0, len(chunks))
	for seq, chunk := range chunks {
		passages = append(passages, &core.Passage{
			Id:            core.PassageIDFor(section.File, section.HeadingPath, seq),
			Text:          chunk.text,
			File:          section.File,
			HeadingPath:   section.HeadingPath,
			Page:          section.Page,
			SectionId:     sectionID,
			SequenceIndex: seq,
			TokenCount:    chunk.tokens,
		})
	}
	return passages
}

type chunk struct {
	text   string
	tokens int
}

func (c *Chunker) split(text string) []chunk {
	if c.encoder != nil {
		return c.splitTokens(text)
	}
	return c.splitWhitespace(text)
}

func (c *Chunker) splitTokens(text string) []chunk {
	tokens := c.encoder.Encode(text, nil, nil)
	if len(tokens) <= c.size {
		return []chunk{{text: text, tokens: len(tokens)}}
	}

	step := c.size - c.overlap
	chunks := make([]chunk, 0, len(tokens)/step+1)
	for start := 0; start < len(tokens); start += step {
		end := start + c.size
		if end > len(tokens) {
			end = len(tokens)
		}
		window := tokens[start:end]
		chunks = append(chunks, chunk{
			text:   strings.TrimSpace(c.encoder.Decode(window)),
			tokens: len(window),
		})
		if end == len(tokens) {
			break
		}
	}
	return chunks
}

func (c *Chunker) splitWhitespace(text string) []chunk {
	words := strings.Fields(text)
	if len(words) <= c.size {
		return []chunk{{text: text, tokens: len(words)}}
	}

	step := c.size - c.overlap
	chunks := make([]chunk, 0, len(words)/step+1)
	for start := 0; start < len(words); start += step {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}
		window := words[start:end]
		chunks = append(chunks, chunk{
			text:   strings.Join(window, " "),
			tokens: len(window),
		})
		if end == len(words) {
			break
		}
	}
	return chunks
}
