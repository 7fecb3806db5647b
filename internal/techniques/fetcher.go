// Package techniques retrieves structured farming-technique records for a
// crop, degrading to a built-in catalog whenever the remote store cannot
// answer. Every path returns ok:true; the source tag tells the caller which
// one it got.
package techniques

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

const (
	// SourceRemote marks rows that came from the store.
	SourceRemote = "supabase"
	// SourceFallback marks the catalog used when the store is unconfigured
	// or returned zero rows.
	SourceFallback = "supabase-fallback"
	// SourceErrorFallback marks the catalog used after a store error.
	SourceErrorFallback = "fallback-error"
)

type Technique struct {
	Title string   `json:"title"`
	Steps []string `json:"steps"`
}

type Result struct {
	OK         bool        `json:"ok"`
	Source     string      `json:"source"`
	Crop       string      `json:"crop"`
	Techniques []Technique `json:"techniques"`
	Error      string      `json:"error,omitempty"`
}

// Store is the remote technique store. A nil Store on the Fetcher means
// "unconfigured".
type Store interface {
	FetchByCrop(ctx context.Context, crop string) ([]Technique, error)
}

type Fetcher struct {
	store Store
	log   *zap.Logger
}

func NewFetcher(store Store, log *zap.Logger) *Fetcher {
	return &Fetcher{store: store, log: log}
}

// Fetch never fails: store errors and empty results both fall back to the
// static catalog, distinguished only by the source tag.
func (f *Fetcher) Fetch(ctx context.Context, crop string) *Result {
	if f.store == nil {
		return &Result{OK: true, Source: SourceFallback, Crop: crop, Techniques: Catalog(crop)}
	}

	rows, err := f.store.FetchByCrop(ctx, crop)
	if err != nil {
		f.log.Warn("technique store query failed", zap.String("crop", crop), zap.Error(err))
		return &Result{OK: true, Source: SourceErrorFallback, Crop: crop, Techniques: Catalog(crop), Error: err.Error()}
	}
	if len(rows) == 0 {
		return &Result{OK: true, Source: SourceFallback, Crop: crop, Techniques: Catalog(crop)}
	}
	return &Result{OK: true, Source: SourceRemote, Crop: crop, Techniques: rows}
}

func normalizeCrop(crop string) string {
	return strings.ToLower(strings.TrimSpace(crop))
}
