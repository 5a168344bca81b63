package delivery

import (
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

type RouteOptions struct {
	// RateLimitPerMinute caps requests per client IP on the voice routes; 0 disables it.
	RateLimitPerMinute int
	Recorder           RequestRecorder
	MetricsHandler     http.Handler
}

func RegisterRoutes(r chi.Router, h *VoiceHandler, opts RouteOptions) {
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	if opts.Recorder != nil {
		r.Use(MetricsMiddleware(opts.Recorder))
	}

	r.With(httputil.RecoverMiddleware).Get("/", Index)

	r.With(httputil.RecoverMiddleware).Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	// --- voice ---
	r.Group(func(vr chi.Router) {
		vr.Use(httputil.RecoverMiddleware)
		if opts.RateLimitPerMinute > 0 {
			vr.Use(httprate.LimitByIP(opts.RateLimitPerMinute, time.Minute))
		}

		vr.Post("/stt", h.STT)
		vr.Post("/tts_audio", h.TTSAudio)
	})
}
