// Package api exposes the watch-mode HTTP server: health, last run status,
// metrics and profiling.
package api

import (
	"errors"
	"net/http"
	"time"

	"geosite/internal/config"
	"geosite/internal/status"
	"geosite/pkg/controller"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-faster/jx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options holds configuration for the HTTP server.
// Zero durations fall back to the net/http defaults.
type Options struct {
	// Addr is the TCP address the server listens on, e.g. ":8080".
	Addr string
	// ReadTimeout is the maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration
	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration
	// MetricsPath is the HTTP path at which Prometheus metrics are served.
	MetricsPath string
}

// NewOptions maps the HTTP section of cfg to Options.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Addr:              cfg.HTTP.Addr,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		MetricsPath:       cfg.HTTP.MetricsPath,
	}
}

type Deps struct {
	// Status is read on every /status request.
	Status *status.Holder
	// Gatherer backs the metrics endpoint. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// NewServer returns a configured *http.Server. It does not start listening.
func NewServer(deps Deps, opts Options) (*http.Server, error) {
	if deps.Status == nil {
		return nil, errors.New("status holder is required")
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           NewRouter(deps, opts.MetricsPath),
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
	}, nil
}

// NewRouter builds the route table.
func NewRouter(deps Deps, metricsPath string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(controller.WithLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Get("/status", statusHandler(deps.Status))
	r.Handle(metricsPath, promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	r.Handle(controller.PprofPrefix+"*", controller.PprofMux())

	return r
}

func statusHandler(h *status.Holder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := h.Get()
		if s.LastSuccess == nil {
			msg := "no successful run yet"
			if s.LastErr != "" {
				msg += ": " + s.LastErr
			}
			controller.WriteError(r.Context(), w, http.StatusServiceUnavailable, msg)

			return
		}

		controller.WriteJSON(r.Context(), w, http.StatusOK, func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("lastSuccess", s.LastSuccess.Encode)
				if s.Last != s.LastSuccess {
					e.Field("last", s.Last.Encode)
					e.Field("lastError", func(e *jx.Encoder) { e.Str(s.LastErr) })
				}
			})
		})
	}
}
