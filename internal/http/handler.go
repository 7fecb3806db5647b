package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/anihan/farm-assist/internal/assist"
	"github.com/anihan/farm-assist/internal/kb"
)

type Handler struct {
	service *assist.Service
	engine  *kb.Engine
}

func NewHandler(service *assist.Service, engine *kb.Engine) *Handler {
	return &Handler{service: service, engine: engine}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req assist.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	resp, err := h.service.Ask(ctx, req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) BuildKB(w http.ResponseWriter, r *http.Request) {
	count, err := h.engine.Rebuild(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "chunks": count})
}
