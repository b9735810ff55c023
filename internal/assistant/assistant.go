// Package assistant coordinates retrieval, answer generation, and the rolling
// conversation history.
package assistant

import (
	"context"
	"strings"
	"sync"
	"time"

	"cyberguard/internal/corpus"
	"cyberguard/internal/llm"
	"cyberguard/internal/log"
	"cyberguard/internal/models"
)

const (
	retrieveK      = 5
	suggestK       = 10
	historyCap     = 20 // turns, i.e. 10 exchanges
	sourceLimit    = 3
	previewChars   = 100
	confidenceHit  = 0.95
	confidenceMiss = 0.5
)

// Searcher is the retrieval capability the assistant needs from the index.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]models.RetrievalResult, error)
}

// Assistant owns one conversation's history and answers questions by
// retrieving context and generating a grounded answer. A single Ask is
// expected in flight at a time; the mutex only guards history bookkeeping.
type Assistant struct {
	index  Searcher
	gen    *Generator
	logger *log.Logger

	mu      sync.Mutex
	history []models.ChatTurn
}

func New(index Searcher, gen *Generator, logger *log.Logger) *Assistant {
	return &Assistant{index: index, gen: gen, logger: logger}
}

// Ask answers one question. Empty or whitespace-only questions are rejected
// before any retrieval work and leave the history untouched. Backend
// failures never surface: the answer is always a non-empty string.
//
// Confidence is a fixed two-valued heuristic (retrieval happened or not),
// not a calibrated probability.
func (a *Assistant) Ask(ctx context.Context, question string) (models.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.Answer{}, ErrEmptyQuestion
	}
	retrieved, err := a.index.Search(ctx, question, retrieveK)
	if err != nil {
		return models.Answer{}, err
	}

	a.mu.Lock()
	history := append([]models.ChatTurn(nil), a.history...)
	a.mu.Unlock()

	answer := a.gen.Generate(ctx, question, retrieved, history)
	a.appendExchange(question, answer)

	sources := make([]models.SourceRef, 0, sourceLimit)
	for _, r := range retrieved {
		if len(sources) == sourceLimit {
			break
		}
		if r.Document.Meta.Source != models.SourceQuiz {
			continue
		}
		sources = append(sources, models.SourceRef{
			Type:           string(models.SourceQuiz),
			Category:       r.Document.Meta.Category,
			ContentPreview: excerpt(r.Document.Content, previewChars),
		})
	}
	confidence := confidenceMiss
	if len(retrieved) > 0 {
		confidence = confidenceHit
	}
	return models.Answer{Answer: answer, Sources: sources, Confidence: confidence}, nil
}

// AskStream is Ask with incremental delivery. The returned stream's deltas
// concatenate to a never-empty answer; the full exchange is appended to the
// history once the stream finishes. Mid-stream backend failures degrade to
// the extractive fallback rather than surfacing an error.
func (a *Assistant) AskStream(ctx context.Context, question string) (llm.ChatStream, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	retrieved, err := a.index.Search(ctx, question, retrieveK)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	history := append([]models.ChatTurn(nil), a.history...)
	a.mu.Unlock()

	return &recordedStream{
		inner:    a.gen.GenerateStream(ctx, question, retrieved, history),
		owner:    a,
		question: question,
		fallback: a.gen.fallback(retrieved),
	}, nil
}

// recordedStream accumulates deltas so the finished answer can be recorded in
// the conversation history, and substitutes the fallback answer when the
// backend stream fails or ends blank before producing anything useful.
type recordedStream struct {
	inner    llm.ChatStream
	owner    *Assistant
	question string
	fallback string
	buf      strings.Builder
	done     bool
}

func (s *recordedStream) Recv() (string, bool, error) {
	if s.done {
		return "", true, nil
	}
	delta, done, err := s.inner.Recv()
	if err != nil {
		s.done = true
		if strings.TrimSpace(s.buf.String()) != "" {
			s.owner.appendExchange(s.question, s.buf.String())
			return "", true, nil
		}
		s.owner.appendExchange(s.question, s.fallback)
		return s.fallback, true, nil
	}
	s.buf.WriteString(delta)
	if done {
		s.done = true
		if strings.TrimSpace(s.buf.String()) == "" {
			s.owner.appendExchange(s.question, s.fallback)
			return s.fallback, true, nil
		}
		s.owner.appendExchange(s.question, s.buf.String())
	}
	return delta, done, nil
}

func (s *recordedStream) Close() error { return s.inner.Close() }

func (a *Assistant) appendExchange(question, answer string) {
	now := time.Now()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = append(a.history,
		models.ChatTurn{Role: models.RoleUser, Content: question, Timestamp: now},
		models.ChatTurn{Role: models.RoleAssistant, Content: answer, Timestamp: now},
	)
	if len(a.history) > historyCap {
		a.history = a.history[len(a.history)-historyCap:]
	}
}

// RelevantQuizQuestions returns up to limit quiz questions related to topic.
// Quiz documents without a recoverable question text are skipped, never an
// error.
func (a *Assistant) RelevantQuizQuestions(ctx context.Context, topic string, limit int) ([]models.QuizSuggestion, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	retrieved, err := a.index.Search(ctx, topic, suggestK)
	if err != nil {
		return nil, err
	}
	suggestions := make([]models.QuizSuggestion, 0, limit)
	for _, r := range retrieved {
		if len(suggestions) >= limit {
			break
		}
		if r.Document.Meta.Source != models.SourceQuiz {
			continue
		}
		question := r.Document.Meta.Question
		if question == "" {
			// older snapshots lack the structured field; recover it from the
			// rendered block
			question = questionFromContent(r.Document.Content)
		}
		if question == "" {
			continue
		}
		suggestions = append(suggestions, models.QuizSuggestion{Question: question, Category: r.Document.Meta.Category})
	}
	return suggestions, nil
}

// History returns a copy of the conversation history.
func (a *Assistant) History() []models.ChatTurn {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.ChatTurn(nil), a.history...)
}

// ClearHistory drops the conversation history.
func (a *Assistant) ClearHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}

func questionFromContent(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, corpus.QuestionPrefix) {
			return strings.TrimPrefix(line, corpus.QuestionPrefix)
		}
	}
	return ""
}
