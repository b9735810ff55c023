package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cyberguard/internal/llm"
	"cyberguard/internal/log"
	"cyberguard/internal/models"
)

const (
	contextEntries    = 3
	contextCharBudget = 500
	fallbackExcerpt   = 300
	temperature       = 0.7
	maxOutputTokens   = 500
	backendTimeout    = 30 * time.Second
)

const systemPrompt = `You are CyberGuard, a cybersecurity assistant.
Use the provided context to answer questions accurately.
If you're not sure based on the context, say so.
Always provide helpful cybersecurity advice.`

const noContextAnswer = "I'm currently learning about cybersecurity! For now, please refer to the quiz sections for specific cybersecurity knowledge."

// Generator builds a bounded prompt from retrieved context and history and
// invokes the chat backend. It never returns an error and never returns an
// empty string: with no provider configured, or on any backend failure
// (including timeout), it degrades to an extractive fallback.
type Generator struct {
	provider llm.ChatProvider // nil means fallback-only mode
	model    string
	timeout  time.Duration
	logger   *log.Logger
}

func NewGenerator(provider llm.ChatProvider, model string, logger *log.Logger) *Generator {
	return &Generator{provider: provider, model: model, timeout: backendTimeout, logger: logger}
}

func (g *Generator) Generate(ctx context.Context, query string, retrieved []models.RetrievalResult, history []models.ChatTurn) string {
	if g.provider == nil {
		return g.fallback(retrieved)
	}
	messages := g.buildMessages(query, retrieved, history)
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	st, err := g.provider.Chat(cctx, g.model, messages, false, temperature, maxOutputTokens)
	if err != nil {
		g.logger.Warn("generation backend failed, using fallback", "error", err.Error())
		return g.fallback(retrieved)
	}
	answer, err := llm.Collect(st)
	if err != nil {
		g.logger.Warn("generation stream failed, using fallback", "error", err.Error())
		return g.fallback(retrieved)
	}
	if strings.TrimSpace(answer) == "" {
		return g.fallback(retrieved)
	}
	return answer
}

// GenerateStream is Generate with incremental delivery: the returned stream's
// deltas concatenate to the answer. Without a provider, or when the backend
// call fails outright, the fallback answer arrives as a single delta. The
// stream runs under the caller's context; mid-stream failures are handled by
// the consumer.
func (g *Generator) GenerateStream(ctx context.Context, query string, retrieved []models.RetrievalResult, history []models.ChatTurn) llm.ChatStream {
	if g.provider == nil {
		return llm.TextStream(g.fallback(retrieved))
	}
	messages := g.buildMessages(query, retrieved, history)
	st, err := g.provider.Chat(ctx, g.model, messages, true, temperature, maxOutputTokens)
	if err != nil {
		g.logger.Warn("generation backend failed, using fallback", "error", err.Error())
		return llm.TextStream(g.fallback(retrieved))
	}
	return st
}

func (g *Generator) buildMessages(query string, retrieved []models.RetrievalResult, history []models.ChatTurn) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: llm.Role(turn.Role), Content: turn.Content})
	}

	var ctxParts []string
	n := len(retrieved)
	if n > contextEntries {
		n = contextEntries
	}
	for _, r := range retrieved[:n] {
		ctxParts = append(ctxParts, fmt.Sprintf("Source: %s\nContent: %s", r.Document.Meta.Source, excerpt(r.Document.Content, contextCharBudget)))
	}
	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", strings.Join(ctxParts, "\n\n"), query),
	})
	return messages
}

func (g *Generator) fallback(retrieved []models.RetrievalResult) string {
	if len(retrieved) == 0 {
		return noContextAnswer
	}
	return "Based on available information:\n\n" + excerpt(retrieved[0].Document.Content, fallbackExcerpt)
}

// excerpt truncates s to at most n runes, marking truncation with an
// ellipsis.
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
