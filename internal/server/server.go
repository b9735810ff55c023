// Package server exposes the quiz and assistant functionality as a JSON HTTP
// API and owns per-session web state.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cyberguard/internal/assistant"
	"cyberguard/internal/log"
	"cyberguard/internal/models"
	"cyberguard/internal/store"
)

// API holds the injected collaborators of the HTTP layer. The assistant is
// constructed and owned by the caller; the server never initializes it
// lazily.
type API struct {
	// assistant is one process-wide conversation shared by every web
	// session: its generation history crosses session boundaries and
	// clear-history resets it for all callers. Only the display history in
	// sessions is per-session.
	assistant *assistant.Assistant
	sessions  store.Store
	bank      map[string][]models.QuizQuestion
	logger    *log.Logger
}

func NewAPI(as *assistant.Assistant, sessions store.Store, bank map[string][]models.QuizQuestion, logger *log.Logger) *API {
	return &API{assistant: as, sessions: sessions, bank: bank, logger: logger}
}

// Handler returns the routed handler wrapped in logging and rate-limit
// middleware.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/categories", a.handleCategories)
	mux.HandleFunc("/api/quiz/", a.handleQuiz)
	mux.HandleFunc("/api/profile", a.handleProfile)
	mux.HandleFunc("/api/leaderboard", a.handleLeaderboard)
	mux.HandleFunc("/api/reset-scores", a.handleResetScores)
	mux.HandleFunc("/assistant/ask", a.handleAsk)
	mux.HandleFunc("/assistant/ask-stream", a.handleAskStream)
	mux.HandleFunc("/assistant/history", a.handleHistory)
	mux.HandleFunc("/assistant/quiz-suggestions", a.handleQuizSuggestions)
	mux.HandleFunc("/assistant/clear-history", a.handleClearHistory)
	return a.logMiddleware(a.rateLimitMiddleware(mux))
}

// Run serves handler on addr and shuts down gracefully on SIGINT/SIGTERM.
func Run(addr string, handler http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigc:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, status int, errStr, message string) {
	writeJSON(w, status, apiError{Error: errStr, Message: message})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}
