package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (h *Handler) Routes(upgradeRL *RateLimiter) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.With(upgradeRL.Middleware).Get("/ws", h.ServeWS)

	// Downloaded tracks, named by content id.
	prefix := "/" + h.Cfg.InstanceKey + "/"
	files := http.StripPrefix(prefix, cachedMedia(http.FileServer(http.Dir(h.Cfg.CacheDir))))
	r.With(middleware.Compress(5, "audio/*", "video/*", "application/octet-stream")).
		Handle(prefix+"*", files)

	return r
}
