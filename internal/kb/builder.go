package kb

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Builder turns a directory of guide documents into the persisted chunk
// collection. A document that fails to parse is logged and skipped; it
// never aborts the build.
type Builder struct {
	guidesDir string
	store     Store
	log       *zap.Logger
}

func NewBuilder(guidesDir string, store Store, log *zap.Logger) *Builder {
	return &Builder{guidesDir: guidesDir, store: store, log: log}
}

// Build enumerates the guides directory, chunks every supported document and
// replaces the persisted collection in full. Returns the number of chunks
// written. Idempotent for unchanged inputs.
func (b *Builder) Build(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(b.guidesDir)
	if errors.Is(err, fs.ErrNotExist) {
		b.log.Warn("guides directory missing", zap.String("dir", b.guidesDir))
		if err := b.store.Save([]Chunk{}); err != nil {
			return 0, err
		}
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var all []Chunk
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		path := filepath.Join(b.guidesDir, e.Name())
		text, err := extractText(path)
		if err != nil {
			b.log.Warn("skipping guide document", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		if text == "" {
			continue
		}

		chunks := chunksFor(e.Name(), text)
		if len(chunks) > 0 {
			all = append(all, chunks...)
			b.log.Info("processed guide document",
				zap.String("file", e.Name()),
				zap.Int("chunks", len(chunks)))
		}
	}

	if err := b.store.Save(all); err != nil {
		return 0, err
	}
	b.log.Info("knowledge base written", zap.Int("chunks", len(all)))
	return len(all), nil
}
