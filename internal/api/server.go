// Package api serves the translation pipeline over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alnah/go-translate/internal/cache"
	"github.com/alnah/go-translate/internal/lang"
	"github.com/alnah/go-translate/internal/pipeline"
	"github.com/alnah/go-translate/internal/summary"
	"github.com/alnah/go-translate/internal/tokenizer"
	"github.com/alnah/go-translate/internal/translate"
)

// DefaultMaxUploadBytes bounds a whole multipart request.
const DefaultMaxUploadBytes = 10 << 20

// Config wires the server to the pipeline components.
type Config struct {
	Limits         pipeline.Limits
	Counter        tokenizer.Counter
	Translator     translate.Translator
	Summarizer     summary.Summarizer // optional
	Cache          cache.Policy
	MaxUploadBytes int64
}

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    Config
	log    *slog.Logger
}

// NewServer creates and configures the HTTP server.
func NewServer(cfg Config, log *slog.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{cfg: cfg, log: log}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/languages", s.handleLanguages)
		r.Post("/estimate", s.handleEstimate)
		r.Post("/translate", s.handleTranslate)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

type languageJSON struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	codes := lang.Supported()
	out := make([]languageJSON, 0, len(codes))
	for _, code := range codes {
		out = append(out, languageJSON{Code: code, Name: lang.MustParse(code).DisplayName()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"languages": out})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
