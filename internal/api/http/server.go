package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"moviestream/searchservice/internal/domain"
	"moviestream/searchservice/internal/search"
)

// MovieService is the tiered search core behind /find and /translate.
type MovieService interface {
	Find(ctx context.Context, req domain.FindRequest) ([]domain.TranslatedMovie, error)
	Translate(ctx context.Context, imdbID, title string) (domain.Movie, error)
	Providers() []domain.ProviderInfo
}

const (
	maxQueryLength = 500

	msgNotFound       = "Could not find movies"
	msgFindFailure    = "Error getting torrents"
	msgTranslateError = "Error translating movie"
)

type Server struct {
	movies    MovieService
	logger    *slog.Logger
	rateLimit float64
	rateBurst int
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		if rps > 0 && burst > 0 {
			s.rateLimit = rps
			s.rateBurst = burst
		}
	}
}

func NewServer(movies MovieService, options ...ServerOption) *Server {
	server := &Server{
		movies:    movies,
		logger:    slog.Default(),
		rateLimit: 10,
		rateBurst: 20,
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	return server
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/find", s.handleFind)
	mux.HandleFunc("/translate", s.handleTranslate)
	mux.HandleFunc("/providers", s.handleProviders)
	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "movie-search",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health"
		}),
	)
	return recoveryMiddleware(s.logger, rateLimitMiddleware(s.rateLimit, s.rateBurst, metricsMiddleware(traced)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/find" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.movies == nil {
		writeFailure(w, http.StatusInternalServerError, msgFindFailure)
		return
	}

	query := r.URL.Query()
	req := domain.FindRequest{
		Search:   strings.TrimSpace(query.Get("search")),
		Category: strings.ToLower(strings.TrimSpace(query.Get("category"))),
		Letter:   strings.TrimSpace(query.Get("letter")),
		Genre:    strings.TrimSpace(query.Get("genre")),
	}
	if len(req.Search) > maxQueryLength {
		req.Search = req.Search[:maxQueryLength]
	}
	var err error
	req.Limit, err = parsePositiveInt(r, "limit", 0)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid limit")
		return
	}
	req.Offset, err = parseNonNegativeInt(r, "offset", 0)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid offset")
		return
	}

	started := time.Now()
	movies, err := s.movies.Find(r.Context(), req)
	if err != nil {
		if errors.Is(err, search.ErrNoMovies) {
			writeFailure(w, http.StatusNotFound, msgNotFound)
			return
		}
		s.logger.Warn("find request failed",
			slog.String("search", truncate(req.Search, 80)),
			slog.String("category", req.Category),
			slog.String("error", err.Error()),
		)
		writeFailure(w, http.StatusInternalServerError, msgFindFailure)
		return
	}

	s.logger.Info("find completed",
		slog.String("search", truncate(req.Search, 80)),
		slog.String("category", req.Category),
		slog.Int("count", len(movies)),
		slog.Int64("elapsedMs", time.Since(started).Milliseconds()),
	)
	writeData(w, movies)
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/translate" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.movies == nil {
		writeFailure(w, http.StatusInternalServerError, msgTranslateError)
		return
	}

	imdbID := strings.TrimSpace(r.URL.Query().Get("imdbid"))
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if imdbID == "" {
		writeFailure(w, http.StatusBadRequest, "imdbid is required")
		return
	}

	movie, err := s.movies.Translate(r.Context(), imdbID, title)
	if err != nil {
		if errors.Is(err, search.ErrNoMovies) {
			writeFailure(w, http.StatusNotFound, msgNotFound)
			return
		}
		s.logger.Warn("translate request failed",
			slog.String("imdbId", imdbID),
			slog.String("error", err.Error()),
		)
		writeFailure(w, http.StatusInternalServerError, msgTranslateError)
		return
	}
	writeData(w, movie)
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/providers" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.movies == nil {
		writeFailure(w, http.StatusInternalServerError, "service is not configured")
		return
	}
	writeData(w, s.movies.Providers())
}

func parsePositiveInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, errors.New("invalid value")
	}
	return parsed, nil
}

func parseNonNegativeInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return 0, errors.New("invalid value")
	}
	return parsed, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Every response carries the {status, data|error} envelope the clients
// were built against.
func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": true,
		"data":   data,
	})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"status": false,
		"error":  message,
	})
}
