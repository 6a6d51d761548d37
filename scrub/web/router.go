package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/pkg/errors"

	"github.com/CMSgov/scrub-app/conf"
	"github.com/CMSgov/scrub-app/scrub/logging"
	"github.com/CMSgov/scrub-app/scrub/metrics"
)

type Config struct {
	Port         int           `conf:"API_PORT" conf_default:"3000"`
	ReadTimeout  time.Duration `conf:"API_READ_TIMEOUT" conf_default:"10s"`
	WriteTimeout time.Duration `conf:"API_WRITE_TIMEOUT" conf_default:"60s"`
	IdleTimeout  time.Duration `conf:"API_IDLE_TIMEOUT" conf_default:"120s"`
	// MaxBodyBytes bounds request bodies.
	MaxBodyBytes int64 `conf:"API_MAX_BODY_BYTES" conf_default:"10485760"`
}

func LoadConfig() (cfg *Config, err error) {
	cfg = &Config{}
	if err := conf.Checkout(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to load API config")
	}
	return cfg, nil
}

// NewAPIRouter builds the API routes. A nil timer leaves request timing off.
func NewAPIRouter(h *Handler, maxBodyBytes int64, timer metrics.Timer) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		logging.NewStructuredLogger(),
		logging.NewCtxLogger,
		middleware.Recoverer,
		render.SetContentType(render.ContentTypeJSON),
		ConnectionClose,
	)
	if maxBodyBytes > 0 {
		r.Use(RequestSize(maxBodyBytes))
	}
	if timer != nil {
		r.Use(metrics.Middleware(timer))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/claims/$validate", h.validateClaim)
		r.Post("/claims/$validate-batch", h.validateBatch)

		r.Get("/rules", h.listRules)
		r.Put("/rules/{ruleID}", h.setRuleEnabled)

		r.Post("/batches", h.submitBatch)
		r.Get("/batches/{batchID}", h.getBatch)
	})
	r.Get("/_version", getVersion)
	r.Get("/_health", h.healthCheck)
	return r
}

// NewServer builds the API server from cfg.
func NewServer(cfg *Config, h *Handler, timer metrics.Timer) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewAPIRouter(h, cfg.MaxBodyBytes, timer),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func ConnectionClose(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Connection", "close")
		next.ServeHTTP(w, r)
	})
}

// RequestSize caps the number of bytes a handler may read from the request
// body. Reads past the limit fail with *http.MaxBytesError.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
