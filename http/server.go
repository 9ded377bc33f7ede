package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/fwojciec/websum"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Limits on incoming requests.
const (
	DefaultMaxBatch = 100
	maxRequestBytes = 1 << 20
)

// Server exposes a SummaryService over a JSON HTTP API:
//
//	POST /summarize  {"url": "...", "options": {...}}
//	POST /batch      {"urls": ["..."], "options": {...}}
//	GET  /healthz
//
// Options omitted from a request keep the server defaults.
type Server struct {
	service  websum.SummaryService
	defaults websum.SummaryOptions
	maxBatch int
	logger   *slog.Logger
	router   chi.Router
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithDefaults sets the options requests start from.
func WithDefaults(opts websum.SummaryOptions) ServerOption {
	return func(s *Server) {
		s.defaults = opts
	}
}

// WithMaxBatch caps the number of URLs accepted by /batch.
func WithMaxBatch(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a Server backed by service.
func NewServer(service websum.SummaryService, opts ...ServerOption) *Server {
	s := &Server{
		service:  service,
		defaults: websum.DefaultSummaryOptions(),
		maxBatch: DefaultMaxBatch,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Post("/summarize", s.handleSummarize)
	r.Post("/batch", s.handleBatch)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type summarizeRequest struct {
	URL     string                `json:"url"`
	Options websum.SummaryOptions `json:"options"`
}

type batchRequest struct {
	URLs    []string              `json:"urls"`
	Options websum.SummaryOptions `json:"options"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	req := summarizeRequest{Options: s.requestDefaults()}
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.service.SummarizeURL(r.Context(), req.URL, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	req := batchRequest{Options: s.requestDefaults()}
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.URLs) == 0 {
		s.writeError(w, r, websum.Errorf(websum.EINVALID, "urls required"))
		return
	}
	if len(req.URLs) > s.maxBatch {
		s.writeError(w, r, websum.Errorf(websum.EINVALID, "too many urls: %d (max %d)", len(req.URLs), s.maxBatch))
		return
	}

	report, err := s.service.SummarizeBatch(r.Context(), req.URLs, req.Options, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// requestDefaults returns the server defaults for a single request to
// decode into. The plugin list is copied so decoding cannot write through
// to the shared slice.
func (s *Server) requestDefaults() websum.SummaryOptions {
	opts := s.defaults
	opts.Plugins = slices.Clone(s.defaults.Plugins)
	return opts
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return websum.WrapError(websum.EINVALID, err, "invalid request body")
	}
	return nil
}

type errorBody struct {
	Error *websum.ResultError `json:"error"`
}

// StatusCode maps an error code to an HTTP status.
func StatusCode(code string) int {
	switch code {
	case websum.EINVALID:
		return http.StatusBadRequest
	case websum.ENOTFOUND:
		return http.StatusNotFound
	case websum.ECONTENT:
		return http.StatusUnprocessableEntity
	case websum.EPERMANENT, websum.EMODEL:
		return http.StatusBadGateway
	case websum.ETRANSIENT, websum.ERESOURCE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(websum.ErrorCode(err))
	if ctxErr := r.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		// Client closed the request.
		status = 499
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
	}
	s.writeJSON(w, status, errorBody{Error: websum.NewResultError(err)})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("writing response", "err", err)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
