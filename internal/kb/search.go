package kb

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

const (
	// DefaultTopK is the number of excerpts returned when the caller does
	// not ask for a specific count.
	DefaultTopK = 3

	// Chunks longer than this accumulate incidental matches, so their
	// score is discounted.
	longChunkLen     = 1600
	longChunkPenalty = 0.7

	// Returned excerpt text is capped at this many characters.
	excerptLen = 400
)

// SearchResult is one ranked excerpt.
type SearchResult struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

// Engine answers lexical relevance queries against the persisted chunk
// collection. It holds no chunks between calls: every search re-reads the
// store so external rebuilds are picked up immediately.
type Engine struct {
	store   Store
	builder *Builder
}

func NewEngine(store Store, builder *Builder) *Engine {
	return &Engine{store: store, builder: builder}
}

// Ensure builds the knowledge base when the persisted collection is empty
// or missing. Safe to race: each build rewrites the collection in full.
func (e *Engine) Ensure(ctx context.Context) error {
	chunks, err := e.store.Load()
	if err != nil {
		return err
	}
	if len(chunks) > 0 {
		return nil
	}
	_, err = e.builder.Build(ctx)
	return err
}

// Rebuild forces a full rebuild regardless of current state.
func (e *Engine) Rebuild(ctx context.Context) (int, error) {
	return e.builder.Build(ctx)
}

// Search tokenizes the query plus the crop hint on whitespace, scores every
// chunk by whole-word term frequency and returns the topK best, texts
// truncated. Equal scores keep build order.
func (e *Engine) Search(query, crop string, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	chunks, err := e.store.Load()
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return []SearchResult{}, nil
	}

	var terms []string
	for _, t := range []string{query, crop} {
		terms = append(terms, strings.Fields(t)...)
	}

	matchers := termMatchers(terms)
	if len(matchers) == 0 {
		return []SearchResult{}, nil
	}

	scored := make([]SearchResult, 0, len(chunks))
	for _, c := range chunks {
		score := scoreChunk(c.Text, matchers)
		if score <= 0 {
			continue
		}
		scored = append(scored, SearchResult{
			ID:     c.ID,
			Source: c.Source,
			Text:   truncate(c.Text, excerptLen),
			Score:  score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// termMatchers compiles one whole-word case-insensitive matcher per
// non-empty term.
func termMatchers(terms []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(t) + `\b`)
		if err != nil {
			continue
		}
		out = append(out, re)
	}
	return out
}

func scoreChunk(text string, matchers []*regexp.Regexp) float64 {
	var score float64
	for _, re := range matchers {
		score += float64(len(re.FindAllStringIndex(text, -1)))
	}
	if len(text) > longChunkLen {
		score *= longChunkPenalty
	}
	return score
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s + "..."
	}
	return s[:max] + "..."
}
