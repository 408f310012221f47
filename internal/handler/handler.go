package handler

import (
	"net/http"

	"github.com/YannKr/tunesync/internal/config"
	"github.com/YannKr/tunesync/internal/session"
)

type Handler struct {
	Cfg      *config.Config
	Sessions *session.Dispatcher
}

func New(cfg *config.Config, sessions *session.Dispatcher) *Handler {
	return &Handler{Cfg: cfg, Sessions: sessions}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}
