// Package chi exposes the blacklist, searches and videos indexes over HTTP.
// Every endpoint answers with the success/error envelope.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/roxby/tubesearch/internal/engine"
	"github.com/roxby/tubesearch/internal/index"
	"github.com/roxby/tubesearch/internal/index/blacklist"
	"github.com/roxby/tubesearch/internal/index/searches"
	"github.com/roxby/tubesearch/internal/index/videos"
	logpkg "github.com/roxby/tubesearch/internal/logger"
	"github.com/roxby/tubesearch/internal/metrics"
	"github.com/roxby/tubesearch/internal/response"
	"github.com/roxby/tubesearch/internal/translate"
	healthuc "github.com/roxby/tubesearch/internal/usecase/health"
	searchuc "github.com/roxby/tubesearch/internal/usecase/search"
)

// maxBodyBytes bounds request bodies; bulk video payloads are the largest.
const maxBodyBytes = 32 << 20

// errorHandler tries to handle an operation error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Deps are the services the API serves.
type Deps struct {
	Blacklist *blacklist.Index
	Searches  *searches.Index
	Videos    *videos.Index
	Search    *searchuc.Service
	Health    *healthuc.Service
	APIKeys   []string
	Logger    *zap.Logger
}

// Server is the HTTP API.
type Server struct {
	blacklist     *blacklist.Index
	searches      *searches.Index
	videos        *videos.Index
	search        *searchuc.Service
	health        *healthuc.Service
	apiKeys       []string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		blacklist: d.Blacklist,
		searches:  d.Searches,
		videos:    d.Videos,
		search:    d.Search,
		health:    d.Health,
		apiKeys:   d.APIKeys,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(index.ErrInvalidInput, http.StatusBadRequest, false),
		sentinelHandler(engine.ErrInvalidRequest, http.StatusBadRequest, false),
		sentinelHandler(engine.ErrNotFound, http.StatusNotFound, false),
		sentinelHandler(engine.ErrIndexNotFound, http.StatusNotFound, false),
		sentinelHandler(engine.ErrIndexExists, http.StatusConflict, false),
		sentinelHandler(engine.ErrConflict, http.StatusConflict, false),
		sentinelHandler(translate.ErrRateLimited, http.StatusTooManyRequests, true),
		sentinelHandler(translate.ErrUnavailable, http.StatusBadGateway, true),
		sentinelHandler(engine.ErrUnsupported, http.StatusNotImplemented, true),
		sentinelHandler(engine.ErrUnavailable, http.StatusServiceUnavailable, true),
	}
	return s
}

// Handler builds the router with the middleware chain.
func (s *Server) Handler() http.Handler {
	r := gochi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(APIKeyMiddleware(s.apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r gochi.Router) {
		r.Route("/blacklist", func(r gochi.Router) {
			r.Get("/", s.ListBlacklist)
			r.Post("/", s.AddBlacklist)
			r.Get("/exists", s.BlacklistExists)
			r.Get("/count", s.CountBlacklist)
			r.Put("/{term}", s.RenameBlacklist)
			r.Delete("/{term}", s.DeleteBlacklist)
		})

		r.Get("/searches/count", s.CountSearches)
		r.Delete("/searches", s.DeleteMatchingSearches)

		r.Route("/tubes/{tube}", func(r gochi.Router) {
			r.Route("/searches", func(r gochi.Router) {
				r.Get("/", s.ListSearches)
				r.Post("/", s.RecordSearch)
				r.Delete("/", s.DeleteMatchingSearches)
				r.Get("/one", s.GetSearch)
				r.Delete("/one", s.DeleteSearch)
				r.Get("/count", s.CountSearches)
			})

			r.Route("/videos", func(r gochi.Router) {
				r.Get("/", s.SearchVideos)
				r.Post("/", s.AddVideos)
				r.Patch("/", s.UpdateVideos)
				r.Get("/count", s.CountVideos)
				r.Get("/last", s.LastStoredVideo)
				r.Post("/delete", s.DeleteVideos)
				r.Post("/deleted", s.SetVideosDeleted)
				r.Post("/refresh", s.RefreshVideos)
				r.Get("/{video_id}", s.GetVideo)
				r.Patch("/{video_id}", s.UpdateVideo)
				r.Delete("/{video_id}", s.DeleteVideo)
			})
		})
	})
	return r
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// respond writes an operation envelope: 200 on success, the mapped status otherwise.
func respond[T any](s *Server, w http.ResponseWriter, r *http.Request, res response.Response[T]) {
	if res.Success {
		writeJSON(w, http.StatusOK, res)
		return
	}
	s.handleError(w, r, res.Err())
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	log.Warn("operation failed", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeFailure(w, http.StatusInternalServerError, "internal error")
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// Opaque handlers answer with the sentinel text instead of the full chain.
func sentinelHandler(sentinel error, status int, opaque bool) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := err.Error()
		if opaque {
			msg = sentinel.Error()
		}
		writeFailure(w, status, msg)
		return true
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dest); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response.Fail[struct{}](errors.New(message)))
}
