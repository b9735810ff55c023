package llm

import (
	"context"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatProvider provides chat completion APIs.
type ChatProvider interface {
	Chat(ctx context.Context, model string, messages []Message, stream bool, temperature float32, maxTokens int) (ChatStream, error)
}

// Embedder provides embedding generation APIs.
type Embedder interface {
	Embeddings(ctx context.Context, model string, inputs []string) ([][]float32, error)
}

// ChatStream allows streaming tokens, or a single final message if non-streaming.
type ChatStream interface {
	Recv() (delta string, done bool, err error)
	Close() error
}

// TextStream returns a ChatStream that yields s as a single delta. It backs
// non-streaming completions and degraded answers on the streaming path.
func TextStream(s string) ChatStream { return &textStream{s: s} }

type textStream struct{ s string }

func (t *textStream) Recv() (string, bool, error) {
	if t.s == "" {
		return "", true, nil
	}
	v := t.s
	t.s = ""
	return v, false, nil
}

func (t *textStream) Close() error { return nil }

// Collect drains a stream into the full response text.
func Collect(st ChatStream) (string, error) {
	defer st.Close()
	var out []byte
	for {
		delta, done, err := st.Recv()
		if err != nil {
			return "", err
		}
		out = append(out, delta...)
		if done {
			return string(out), nil
		}
	}
}
