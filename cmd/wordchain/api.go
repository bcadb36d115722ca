package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/CTAG07/wordchain/pkg/archive"
	"github.com/CTAG07/wordchain/pkg/markov"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	shutdownTimeout  = 10 * time.Second
)

// API holds the dependencies for the HTTP handlers.
type API struct {
	gen       *markov.Generator
	archive   *archive.Archive
	minLength int
	source    string
	logger    *slog.Logger
}

// GenerateResponse is returned by the generate endpoint.
type GenerateResponse struct {
	Text           string `json:"text"`
	Words          int    `json:"words"`
	Steps          int    `json:"steps"`
	StartExhausted bool   `json:"start_exhausted"`
	StepsExhausted bool   `json:"steps_exhausted"`
	MinLength      int    `json:"min_length"`
}

// SaveRequest is the body accepted by the save endpoint. MinLength records
// the length the text was generated with; when omitted the server default
// is recorded.
type SaveRequest struct {
	Name      string `json:"name"`
	Text      string `json:"text"`
	MinLength *int   `json:"min_length,omitempty"`
}

// NewAPI creates a new instance of the API.
func NewAPI(gen *markov.Generator, a *archive.Archive, minLength int, source string, logger *slog.Logger) *API {
	return &API{
		gen:       gen,
		archive:   a,
		minLength: minLength,
		source:    source,
		logger:    logger,
	}
}

// Routes builds the router serving every endpoint.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", a.handleHealthCheck)
	r.Route("/api", func(r chi.Router) {
		r.Get("/generate", a.handleGenerate)
		r.Get("/stats", a.handleStats)
		r.Route("/saved", func(r chi.Router) {
			r.Get("/", a.handleListSaved)
			r.Post("/", a.handleSave)
			r.Get("/{id}", a.handleGetSaved)
		})
	})
	return r
}

// logRequests logs every request through the API logger.
func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.logger.DebugContext(r.Context(), "Request served",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func (a *API) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGenerate generates a new text. The optional min_length query
// parameter overrides the configured minimum length.
func (a *API) handleGenerate(w http.ResponseWriter, r *http.Request) {
	minLength := a.minLength
	if raw := r.URL.Query().Get("min_length"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondWithError(w, http.StatusBadRequest, "min_length must be a non-negative integer")
			return
		}
		minLength = n
	}

	res, err := a.gen.GenerateResult(r.Context(), markov.WithMinLength(minLength))
	if err != nil {
		if errors.Is(err, markov.ErrNoContinuation) {
			respondWithError(w, http.StatusUnprocessableEntity, "The corpus cannot produce a text")
			return
		}
		a.logger.Error("Failed to generate text", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to generate text")
		return
	}

	respondWithJSON(w, http.StatusOK, GenerateResponse{
		Text:           res.Text,
		Words:          res.Words,
		Steps:          res.Steps,
		StartExhausted: res.StartExhausted,
		StepsExhausted: res.StepsExhausted,
		MinLength:      minLength,
	})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.gen.Stats(r.Context())
	if err != nil {
		a.logger.Error("Failed to get chain stats", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to get chain stats")
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// handleSave writes a text into the output directory and records it in the
// history.
func (a *API) handleSave(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	if req.Text == "" {
		respondWithError(w, http.StatusBadRequest, "Text must not be empty")
		return
	}
	minLength := a.minLength
	if req.MinLength != nil {
		if *req.MinLength < 0 {
			respondWithError(w, http.StatusBadRequest, "min_length must be a non-negative integer")
			return
		}
		minLength = *req.MinLength
	}

	entry, err := a.archive.Save(r.Context(), archive.SaveRequest{
		Name:      req.Name,
		Text:      req.Text,
		Order:     a.gen.Order(),
		MinLength: minLength,
		Source:    a.source,
	})
	if err != nil {
		a.logger.Error("Failed to save text", "name", req.Name, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to save text")
		return
	}
	respondWithJSON(w, http.StatusCreated, entry)
}

// handleListSaved lists the newest saved texts. The optional limit query
// parameter is capped at maxListLimit.
func (a *API) handleListSaved(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	entries, err := a.archive.List(r.Context(), limit)
	if err != nil {
		a.respondWithHistoryError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}

func (a *API) handleGetSaved(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := a.archive.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondWithError(w, http.StatusNotFound, fmt.Sprintf("Saved text '%s' not found", id))
			return
		}
		a.respondWithHistoryError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entry)
}

func (a *API) respondWithHistoryError(w http.ResponseWriter, err error) {
	if errors.Is(err, archive.ErrNoStore) {
		respondWithError(w, http.StatusNotFound, "Saved text history is disabled")
		return
	}
	a.logger.Error("Failed to query saved texts", "error", err)
	respondWithError(w, http.StatusInternalServerError, "Failed to query saved texts")
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		err := json.NewEncoder(w).Encode(payload)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "ERROR: Failed to encode JSON response: %v\n", err)
		}
	}
}

// serveHTTP serves handler on addr until ctx is cancelled, then shuts the
// server down gracefully.
func serveHTTP(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting api server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Stopping api server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown failed: %w", err)
	}
	logger.Info("Api server stopped.")
	return nil
}
