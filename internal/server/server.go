package server

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/argus-gcs/linkrunner/internal/config"
	"github.com/argus-gcs/linkrunner/internal/middleware"
)

// Server is the diagnostics HTTP surface: a plain JSON API exposing
// link, telemetry and transfer state for the one vehicle this runtime
// manages.
type Server struct {
	config       *config.Config
	dependencies *Dependencies
	mux          *http.ServeMux
	logger       *logrus.Logger
}

// New creates a new Server instance.
func New(cfg *config.Config) *Server {
	deps := NewDependencies(cfg)

	return &Server{
		config:       cfg,
		dependencies: deps,
		mux:          http.NewServeMux(),
		logger:       deps.GetLogger(),
	}
}

// RegisterHandler mounts handler at path on the diagnostics mux.
func (s *Server) RegisterHandler(path string, handler http.Handler) {
	s.logger.WithField("path", path).Info("server: registering handler")
	s.mux.Handle(path, handler)
}

// buildHandler builds the final HTTP handler with all middleware.
func (s *Server) buildHandler() http.Handler {
	handler := http.Handler(s.mux)

	handler = middleware.CORS(s.config.Server.CORSOrigins, s.config.Server.CORSAllowedHeaders, s.logger)(handler)
	handler = middleware.Logging(s.logger)(handler)
	handler = middleware.Recovery(s.logger)(handler)

	// h2c lets clients speak HTTP/2 without TLS.
	return h2c.NewHandler(handler, &http2.Server{})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := s.config.ServerAddr()
	handler := s.buildHandler()

	s.logger.WithField("addr", addr).Info("server: diagnostics surface starting")

	return http.ListenAndServe(addr, handler)
}

// GetDependencies returns the shared dependencies.
func (s *Server) GetDependencies() *Dependencies {
	return s.dependencies
}
