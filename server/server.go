// Package server is the HTTP request layer around the transcription core.
// It owns upload handling, temporary file lifecycle, per-request timeouts
// and the wire serialization of notes and raaga matches; the core itself
// stays a pure function call.
package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sargamlabs/sargam/logging"
	"github.com/sargamlabs/sargam/transcode"
	"github.com/sargamlabs/sargam/transcribe"
)

// Config holds server configuration
type Config struct {
	Port           int           `json:"port"`
	TempDir        string        `json:"temp_dir"`
	AllowedOrigins []string      `json:"allowed_origins"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

// DefaultConfig returns server defaults
func DefaultConfig() *Config {
	return &Config{
		Port:           8000,
		TempDir:        "",
		AllowedOrigins: []string{"*"},
		RequestTimeout: 120 * time.Second,
	}
}

// Server serves the transcription API
type Server struct {
	transcriber *transcribe.Transcriber
	decoder     *transcode.Decoder
	config      *Config
	logger      logging.Logger
}

// NewServer creates a server around a transcriber; nil arguments select
// defaults
func NewServer(transcriber *transcribe.Transcriber, config *Config) *Server {
	if transcriber == nil {
		transcriber = transcribe.NewTranscriber(nil)
	}
	if config == nil {
		config = DefaultConfig()
	}

	return &Server{
		transcriber: transcriber,
		decoder:     transcode.NewDecoder(),
		config:      config,
		logger:      logging.WithFields(logging.Fields{"component": "server"}),
	}
}

// Handler returns the routed HTTP handler with CORS applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/transcribe", s.handleTranscribe)

	return corsMiddleware(s.config.AllowedOrigins)(mux)
}

// ListenAndServe starts the server on the configured port
func (s *Server) ListenAndServe() error {
	addr := ":" + strconv.Itoa(s.config.Port)

	s.logger.Info("listening", logging.Fields{"addr": addr})

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		// The per-request timeout wraps the whole pipeline call; the core
		// has no suspension points of its own
		ReadTimeout:  s.config.RequestTimeout,
		WriteTimeout: s.config.RequestTimeout,
	}
	return srv.ListenAndServe()
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				for _, allowedOrigin := range allowedOrigins {
					if strings.EqualFold(allowedOrigin, origin) {
						w.Header().Set("Access-Control-Allow-Origin", origin)
						break
					}
				}
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
