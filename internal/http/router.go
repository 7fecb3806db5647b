package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func NewRouter(h *Handler, log *zap.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/api/ask", h.Ask).Methods(http.MethodPost)
	r.HandleFunc("/api/kb/build", h.BuildKB).Methods(http.MethodPost)

	return corsMiddleware(requestIDMiddleware(log)(r))
}
