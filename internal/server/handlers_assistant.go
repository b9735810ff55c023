package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cyberguard/internal/assistant"
	"cyberguard/internal/models"
	"cyberguard/internal/quiz"
)

const suggestionLimit = 3

func (a *API) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	sid := a.session(w, r)
	var req struct {
		Question string `json:"question"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	answer, err := a.assistant.Ask(r.Context(), req.Question)
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyQuestion) {
			writeError(w, http.StatusBadRequest, "question_required", "Question is required")
			return
		}
		a.logger.Error("assistant ask failed", "error", err.Error())
		// the caller still receives a well-formed answer object
		writeJSON(w, http.StatusInternalServerError, models.Answer{
			Answer:     "I encountered an error processing your request. Please try again.",
			Sources:    []models.SourceRef{},
			Confidence: 0.0,
		})
		return
	}
	now := time.Now()
	if err := a.sessions.AppendChat(sid,
		models.ChatTurn{Role: models.RoleUser, Content: req.Question, Timestamp: now},
		models.ChatTurn{Role: models.RoleAssistant, Content: answer.Answer, Timestamp: now},
	); err != nil {
		a.logger.Error("persist chat failed", "error", err.Error())
	}
	writeJSON(w, http.StatusOK, answer)
}

// handleAskStream answers a question as a server-sent event stream. Each
// event's data is a JSON object {"delta": "..."} so deltas may contain
// newlines; the stream ends with a literal [DONE] event. The full exchange is
// persisted to the session after the stream completes.
func (a *API) handleAskStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	sid := a.session(w, r)
	var req struct {
		Question string `json:"question"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	st, err := a.assistant.AskStream(r.Context(), req.Question)
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyQuestion) {
			writeError(w, http.StatusBadRequest, "question_required", "Question is required")
			return
		}
		a.logger.Error("assistant ask stream failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "ask_failed", "Failed to answer question")
		return
	}
	defer st.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	fl, _ := w.(http.Flusher)

	var full strings.Builder
	for {
		delta, done, err := st.Recv()
		if err != nil {
			a.logger.Warn("ask stream interrupted", "error", err.Error())
			break
		}
		if delta != "" {
			full.WriteString(delta)
			payload, _ := json.Marshal(map[string]string{"delta": delta})
			fmt.Fprintf(w, "data: %s\n\n", payload)
			if fl != nil {
				fl.Flush()
			}
		}
		if done {
			break
		}
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	if fl != nil {
		fl.Flush()
	}

	now := time.Now()
	if err := a.sessions.AppendChat(sid,
		models.ChatTurn{Role: models.RoleUser, Content: strings.TrimSpace(req.Question), Timestamp: now},
		models.ChatTurn{Role: models.RoleAssistant, Content: full.String(), Timestamp: now},
	); err != nil {
		a.logger.Error("persist chat failed", "error", err.Error())
	}
}

func (a *API) handleQuizSuggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Topic string `json:"topic"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	suggestions, err := a.assistant.RelevantQuizQuestions(r.Context(), req.Topic, suggestionLimit)
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyTopic) {
			writeError(w, http.StatusBadRequest, "topic_required", "Topic is required")
			return
		}
		a.logger.Error("quiz suggestions failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "suggestions_failed", "Failed to get suggestions")
		return
	}
	type formatted struct {
		Question       string   `json:"question"`
		Category       string   `json:"category"`
		Options        []string `json:"options"`
		HasMoreOptions bool     `json:"has_more_options"`
	}
	out := make([]formatted, 0, len(suggestions))
	for _, s := range suggestions {
		f := formatted{Question: s.Question, Category: quiz.DisplayName(s.Category)}
		if q, ok := a.findQuestion(s.Category, s.Question); ok {
			if len(q.Options) > 3 {
				f.Options = q.Options[:3]
				f.HasMoreOptions = true
			} else {
				f.Options = q.Options
			}
		}
		out = append(out, f)
	}
	writeJSON(w, http.StatusOK, map[string]any{"topic": req.Topic, "suggestions": out})
}

func (a *API) findQuestion(category, question string) (models.QuizQuestion, bool) {
	for _, q := range a.bank[category] {
		if q.Question == question {
			return q, true
		}
	}
	return models.QuizQuestion{}, false
}

// handleHistory returns the session's display chat history plus suggested
// topics drawn from categories the user scored under 70% on.
func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sid := a.session(w, r)
	history, err := a.sessions.ChatHistory(sid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", "Failed to load history")
		return
	}
	if history == nil {
		history = []models.ChatTurn{}
	}
	scores, _ := a.sessions.Scores(sid)
	var topics []string
	for _, cat := range quiz.CategoryOrder {
		if len(topics) == 3 {
			break
		}
		if sc, ok := scores[cat]; ok && sc.Percentage < 70 {
			topics = append(topics, quiz.DisplayName(cat))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chat_history":     history,
		"suggested_topics": topics,
	})
}

func (a *API) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	sid := a.session(w, r)
	if err := a.sessions.ClearChat(sid); err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", "Failed to clear history")
		return
	}
	a.assistant.ClearHistory()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Chat history cleared"})
}
