package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server wraps the HTTP server.
type Server struct {
	srv *http.Server
}

// NewServer wires routes and returns a ready-to-start Server.
func NewServer(addr string, h *Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      Routes(h),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute, // a scrape run drives a real browser
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Routes returns the service mux wrapped in request logging.
func Routes(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/api/v1/osint/scrape", h.Scrape)
	mux.HandleFunc("/api/v1/osint/scrape/cache", h.InvalidateCache)
	mux.HandleFunc("/api/v1/osint/leads", h.Leads)
	mux.HandleFunc("/api/v1/osint/categories", h.Categories)
	mux.HandleFunc("/api/v1/osint/suggestions", h.Suggestions)
	mux.HandleFunc("/api/v1/osint/phones/validate", h.ValidatePhones)

	return loggingMiddleware(mux)
}

// Start begins listening and blocks until the server stops.
// It returns nil after a graceful Shutdown.
func (s *Server) Start() error {
	zap.L().Info("api: listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down with the given context.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// loggingMiddleware logs each request with method, path, status and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}
