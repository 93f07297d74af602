// Package server exposes the vectorizer over HTTP.
package server

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/askiada/go-segsvg/pkg/vectorize"
)

const (
	defaultMaxUploadBytes = 20 << 20
	defaultMaxPixels      = 16 << 20
	multipartMemory       = 8 << 20
)

// Server routes /health and /segment-svg. It answers 503 on /segment-svg until
// a segmenter has been set.
type Server struct {
	router         chi.Router
	vectorizer     *vectorize.Vectorizer
	segmenter      atomic.Pointer[segmenterHandle]
	maxUploadBytes int64
	maxPixels      int
	allowOrigins   []string
	graphDir       string
	logger         *slog.Logger
}

type segmenterHandle struct {
	vectorize.Segmenter
}

// Option configures a Server.
type Option func(s *Server)

func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		s.maxUploadBytes = n
	}
}

// WithMaxPixels rejects images whose width times height exceeds n.
func WithMaxPixels(n int) Option {
	return func(s *Server) {
		s.maxPixels = n
	}
}

// WithAllowOrigins sets the origins allowed by CORS. "*" allows any origin.
func WithAllowOrigins(origins []string) Option {
	return func(s *Server) {
		s.allowOrigins = origins
	}
}

// WithGraphDir writes the stage graph of every successful request to
// dir/<request id>.gv.
func WithGraphDir(dir string) Option {
	return func(s *Server) {
		s.graphDir = dir
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New returns a Server using vectorizer for every request.
func New(vectorizer *vectorize.Vectorizer, opts ...Option) *Server {
	s := &Server{
		vectorizer:     vectorizer,
		maxUploadBytes: defaultMaxUploadBytes,
		maxPixels:      defaultMaxPixels,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(corsOptions(s.allowOrigins)))

	r.Get("/health", s.handleHealth)
	r.Post("/segment-svg", s.handleSegmentSVG)

	s.router = r

	return s
}

// SetSegmenter makes seg available to subsequent requests. A nil seg puts the
// server back in the unavailable state.
func (s *Server) SetSegmenter(seg vectorize.Segmenter) {
	if seg == nil {
		s.segmenter.Store(nil)

		return
	}

	s.segmenter.Store(&segmenterHandle{seg})
}

func (s *Server) currentSegmenter() vectorize.Segmenter {
	h := s.segmenter.Load()
	if h == nil {
		return nil
	}

	return h.Segmenter
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
