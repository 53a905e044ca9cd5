package http

import (
	"net/http"
	"time"

	"github.com/Wyydra/signalhub/internal/core/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handler struct {
	Gateway *service.Gateway

	readLimit    int64
	writeTimeout time.Duration
}

func NewHandler(gateway *service.Gateway, readLimit int64, writeTimeout time.Duration) *Handler {
	return &Handler{
		Gateway:      gateway,
		readLimit:    readLimit,
		writeTimeout: writeTimeout,
	}
}

func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ws", h.ServeWS)

	// Only WebSocket clients are served here.
	r.HandleFunc("/*", func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "Signaling server. Please connect over WebSocket.", http.StatusMethodNotAllowed)
	})

	return r
}
