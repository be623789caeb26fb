package receipt

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// DefaultMaxUploadBytes caps the multipart form size. High-resolution
// phone photos of receipts commonly run tens of megabytes.
const DefaultMaxUploadBytes = 50 << 20 // 50MB

// Server handles HTTP requests for receipt parsing
type Server struct {
	service        *Service
	maxUploadBytes int64
	mux            *http.ServeMux
	handler        http.HandlerFunc
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, maxUploadBytes int64) *Server {
	return NewServerWithMux(service, maxUploadBytes, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, maxUploadBytes int64, mux *http.ServeMux) *Server {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	s := &Server{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		mux:            mux,
	}
	s.registerRoutes()
	// CORS wraps the whole mux so that preflight OPTIONS requests are
	// answered for every route
	s.handler = s.corsMiddleware(s.mux.ServeHTTP)
	return s
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// statusRecorder captures the status code a handler writes so the
// request log can include it
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequest middleware assigns a request id and logs each request
// with the status it resolved to
func (s *Server) logRequest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		slog.Info("Handled request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
		)
	}
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", s.handleHealth)

	// The three scan routes are behaviorally identical aliases kept
	// for client compatibility
	s.mux.HandleFunc("POST /scan", s.logRequest(s.handleScan))
	s.mux.HandleFunc("POST /api/scan", s.logRequest(s.handleScan))
	s.mux.HandleFunc("POST /parse", s.logRequest(s.handleScan))
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s)
}

// ServeHTTP implements http.Handler. Requests pass through the same
// middleware chain whether served by Start or directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler(w, r)
}
