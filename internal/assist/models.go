// Package assist orchestrates a farmer question into a grounded answer:
// intent extraction, fact fetching, knowledge-base retrieval, prompt
// assembly and the model call, with a deterministic fallback when the model
// is unavailable.
package assist

import (
	"context"

	"github.com/anihan/farm-assist/internal/kb"
	"github.com/anihan/farm-assist/internal/meteo"
	"github.com/anihan/farm-assist/internal/openstat"
	"github.com/anihan/farm-assist/internal/techniques"
)

// Intent is what we managed to read out of the raw message.
type Intent struct {
	Crop     string `json:"crop,omitempty"`
	Location string `json:"location,omitempty"`
	Intent   string `json:"intent"`
}

// ChatMessage is one prior conversation turn passed through to the model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AskRequest is the orchestration input. Crop and Location are optional
// hints used when the message itself resolves nothing.
type AskRequest struct {
	Message  string        `json:"message"`
	Crop     string        `json:"crop,omitempty"`
	Location string        `json:"location,omitempty"`
	History  []ChatMessage `json:"priorMessages,omitempty"`
}

// ModelRaw carries provenance of the answer text.
type ModelRaw struct {
	Fallback bool   `json:"fallback"`
	Provider string `json:"provider,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ModelAnswer is the final answer object, model-produced or synthesized.
// The two are indistinguishable in shape except for Raw.Fallback.
type ModelAnswer struct {
	OK   bool     `json:"ok"`
	Text string   `json:"text"`
	Raw  ModelRaw `json:"raw"`
}

// AskResponse aggregates everything gathered during one orchestration run.
type AskResponse struct {
	OK         bool                `json:"ok"`
	Keywords   Intent              `json:"keywords"`
	Price      *openstat.PriceFact `json:"price"`
	Weather    *meteo.Forecast     `json:"weather"`
	Techniques *techniques.Result  `json:"techniques"`
	KB         []kb.SearchResult   `json:"kb"`
	Prompt     string              `json:"prompt"`
	Qwen       *ModelAnswer        `json:"qwen"`
}

// ModelResult is what a model client returns. Non-throwing: failures are
// encoded, not raised.
type ModelResult struct {
	OK    bool
	Text  string
	Error string
}

// ModelClient sends one rendered prompt (plus prior turns) to a hosted
// model. Exactly one attempt per orchestration run; no retry.
type ModelClient interface {
	Complete(ctx context.Context, prompt string, history []ChatMessage) ModelResult
}

// PriceClient fetches the farmgate price fact.
type PriceClient interface {
	FetchFarmgatePrice(ctx context.Context, crop, location string) *openstat.PriceFact
}

// WeatherClient fetches the short-range forecast fact.
type WeatherClient interface {
	Fetch(ctx context.Context, lat, lon float64) *meteo.Forecast
}

// TechniqueClient fetches technique records for a crop.
type TechniqueClient interface {
	Fetch(ctx context.Context, crop string) *techniques.Result
}

// KnowledgeBase is the retrieval engine surface the orchestrator needs.
type KnowledgeBase interface {
	Ensure(ctx context.Context) error
	Search(query, crop string, topK int) ([]kb.SearchResult, error)
}
