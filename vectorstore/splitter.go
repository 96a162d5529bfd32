package vectorstore

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2s"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter recursively splits text on paragraph, line, word and finally character boundaries
// until every chunk fits chunkSize as measured by length.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	length       func(string) int
	separators   []string
}

func NewSplitter(chunkSize, chunkOverlap int, length func(string) int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", chunkOverlap, chunkSize)
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		length:       length,
		separators:   defaultSeparators,
	}, nil
}

// NewTokenSplitter measures length in cl100k_base tokens, or in characters when the encoding
// cannot be loaded.
func NewTokenSplitter(chunkSize, chunkOverlap int) (*Splitter, error) {
	return NewSplitter(chunkSize, chunkOverlap, TokenCounter())
}

// TokenCounter returns a cl100k_base token counter, falling back to rune counting.
func TokenCounter() func(string) int {
	tok, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		logger.Error("Failed to get token encoder, counting characters instead", zap.Error(err))
		return utf8.RuneCountInString
	}
	return func(s string) int {
		return len(tok.Encode(s, nil, nil))
	}
}

// SplitDocuments splits each document and tags every chunk with its index and a content id.
func (s *Splitter) SplitDocuments(docs []workflow.Document) []workflow.Document {
	var out []workflow.Document
	for _, doc := range docs {
		for i, chunk := range s.SplitText(doc.Content) {
			metadata := make(map[string]string, len(doc.Metadata)+2)
			for k, v := range doc.Metadata {
				metadata[k] = v
			}
			metadata["chunk_index"] = strconv.Itoa(i)
			metadata["chunk_id"] = ChunkID(doc.Source(), chunk)
			out = append(out, workflow.Document{Content: chunk, Metadata: metadata})
		}
	}
	return out
}

func (s *Splitter) SplitText(text string) []string {
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var pieces []string
	if separator == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
	} else {
		for _, p := range strings.Split(text, separator) {
			if p != "" {
				pieces = append(pieces, p)
			}
		}
	}

	var chunks, fitting []string
	for _, piece := range pieces {
		if s.length(piece) < s.chunkSize {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			chunks = append(chunks, s.merge(fitting, separator)...)
			fitting = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, s.split(piece, rest)...)
		}
	}
	if len(fitting) > 0 {
		chunks = append(chunks, s.merge(fitting, separator)...)
	}
	return chunks
}

// merge packs pieces into chunks of at most chunkSize, carrying up to chunkOverlap of the
// previous chunk's tail into the next.
func (s *Splitter) merge(pieces []string, separator string) []string {
	sepLen := s.length(separator)

	var chunks, current []string
	total := 0
	for _, piece := range pieces {
		pieceLen := s.length(piece)
		joinLen := 0
		if len(current) > 0 {
			joinLen = sepLen
		}

		if total+pieceLen+joinLen > s.chunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, separator)); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for len(current) > 0 && (total > s.chunkOverlap || (total+pieceLen+joinLen > s.chunkSize && total > 0)) {
				dropped := s.length(current[0])
				if len(current) > 1 {
					dropped += sepLen
				}
				total -= dropped
				current = current[1:]
				if len(current) == 0 {
					joinLen = 0
				}
			}
		}

		current = append(current, piece)
		total += pieceLen
		if len(current) > 1 {
			total += sepLen
		}
	}

	if chunk := strings.TrimSpace(strings.Join(current, separator)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// ChunkID is a short content hash of a chunk and its source.
func ChunkID(source, chunk string) string {
	h, _ := blake2s.New256(nil)
	h.Write([]byte(source + ":" + chunk))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
