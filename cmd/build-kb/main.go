// Command build-kb rebuilds the local knowledge base index from the guides
// directory, replacing the persisted chunk collection in full.
package main

import (
	"context"
	"flag"

	"go.uber.org/zap"

	"github.com/anihan/farm-assist/internal/config"
	"github.com/anihan/farm-assist/internal/kb"
	"github.com/anihan/farm-assist/internal/logger"
)

func main() {
	cfg := config.Load()
	guidesFlag := flag.String("guides", cfg.GuidesDir, "directory of guide documents (.txt/.md/.html/.pdf)")
	outFlag := flag.String("out", cfg.KBPath, "path of the persisted chunk collection")
	flag.Parse()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	store := kb.NewFileStore(*outFlag)
	builder := kb.NewBuilder(*guidesFlag, store, log)

	count, err := builder.Build(context.Background())
	if err != nil {
		log.Fatal("kb build failed", zap.Error(err))
	}
	log.Info("kb build completed", zap.Int("chunks", count), zap.String("out", *outFlag))
}
