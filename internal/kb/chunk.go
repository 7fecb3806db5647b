// Package kb builds and queries the local farming-guide knowledge base:
// fixed-size overlapping character chunks, persisted as one flat collection,
// ranked by lexical term frequency.
package kb

import "fmt"

const (
	// ChunkSize and ChunkOverlap define the character windows: consecutive
	// chunks from one document share ChunkOverlap characters.
	ChunkSize    = 1000
	ChunkOverlap = 150

	// Windows shorter than this are noise and get dropped.
	minChunkLen = 30
)

// Chunk is the atomic retrieval unit. ID is source filename + index and is
// stable across rebuilds of unchanged documents.
type Chunk struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
	Length     int    `json:"length"`
}

// ChunkText slices normalized text into overlapping windows. Deterministic:
// the same input always yields the same chunks.
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = ChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = ChunkOverlap
	}

	var out []string
	for i := 0; i < len(text); i += size - overlap {
		end := i + size
		if end > len(text) {
			end = len(text)
		}
		if c := text[i:end]; len(c) >= minChunkLen {
			out = append(out, c)
		}
		if end == len(text) {
			break
		}
	}
	return out
}

// chunksFor wraps raw window strings into Chunks for one source document.
func chunksFor(source, text string) []Chunk {
	windows := ChunkText(text, ChunkSize, ChunkOverlap)
	chunks := make([]Chunk, 0, len(windows))
	for i, w := range windows {
		chunks = append(chunks, Chunk{
			ID:         fmt.Sprintf("%s::%d", source, i),
			Source:     source,
			ChunkIndex: i,
			Text:       w,
			Length:     len(w),
		})
	}
	return chunks
}
