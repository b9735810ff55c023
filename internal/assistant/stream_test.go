package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberguard/internal/llm"
	"cyberguard/internal/log"
	"cyberguard/internal/models"
)

// deltaStream yields each element as one delta, then an optional error.
type deltaStream struct {
	deltas []string
	err    error
	pos    int
}

func (d *deltaStream) Recv() (string, bool, error) {
	if d.pos < len(d.deltas) {
		v := d.deltas[d.pos]
		d.pos++
		return v, false, nil
	}
	if d.err != nil {
		return "", true, d.err
	}
	return "", true, nil
}

func (d *deltaStream) Close() error { return nil }

func TestGenerateStreamWithoutProvider(t *testing.T) {
	g := NewGenerator(nil, "", log.New())
	st := g.GenerateStream(context.Background(), "q", retrievalFixture(), nil)
	got, err := llm.Collect(st)
	require.NoError(t, err)
	assert.Equal(t, g.Generate(context.Background(), "q", retrievalFixture(), nil), got)
}

func TestGenerateStreamBackendCallFailure(t *testing.T) {
	p := &fakeProvider{chatFn: func(context.Context, string, []llm.Message, bool, float32, int) (llm.ChatStream, error) {
		return nil, errors.New("connection refused")
	}}
	g := NewGenerator(p, "", log.New())
	st := g.GenerateStream(context.Background(), "q", retrievalFixture(), nil)
	got, err := llm.Collect(st)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "Based on available information:"))
}

func TestGenerateStreamRequestsStreaming(t *testing.T) {
	var streamed bool
	p := &fakeProvider{chatFn: func(_ context.Context, _ string, _ []llm.Message, stream bool, _ float32, _ int) (llm.ChatStream, error) {
		streamed = true
		if !stream {
			t.Error("expected stream=true")
		}
		return &deltaStream{deltas: []string{"ok"}}, nil
	}}
	g := NewGenerator(p, "", log.New())
	_, err := llm.Collect(g.GenerateStream(context.Background(), "q", nil, nil))
	require.NoError(t, err)
	assert.True(t, streamed)
}

func TestAskStreamEmptyQuestion(t *testing.T) {
	a := newTestAssistant(&fakeSearcher{})
	_, err := a.AskStream(context.Background(), "  \n")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Empty(t, a.History())
}

func TestAskStreamConcatenatesAndRecordsHistory(t *testing.T) {
	p := &fakeProvider{chatFn: func(context.Context, string, []llm.Message, bool, float32, int) (llm.ChatStream, error) {
		return &deltaStream{deltas: []string{"firewalls ", "filter ", "traffic"}}, nil
	}}
	logger := log.New()
	a := New(&fakeSearcher{results: []models.RetrievalResult{quizResult("network_security", "What does a firewall do?")}}, NewGenerator(p, "", logger), logger)

	st, err := a.AskStream(context.Background(), "what does a firewall do?")
	require.NoError(t, err)
	got, err := llm.Collect(st)
	require.NoError(t, err)
	assert.Equal(t, "firewalls filter traffic", got)

	h := a.History()
	require.Len(t, h, 2)
	assert.Equal(t, models.RoleUser, h[0].Role)
	assert.Equal(t, "what does a firewall do?", h[0].Content)
	assert.Equal(t, models.RoleAssistant, h[1].Role)
	assert.Equal(t, "firewalls filter traffic", h[1].Content)
}

func TestAskStreamMidStreamFailureKeepsPartialAnswer(t *testing.T) {
	p := &fakeProvider{chatFn: func(context.Context, string, []llm.Message, bool, float32, int) (llm.ChatStream, error) {
		return &deltaStream{deltas: []string{"partial answer"}, err: errors.New("connection reset")}, nil
	}}
	logger := log.New()
	a := New(&fakeSearcher{results: []models.RetrievalResult{quizResult("malware", "What is a worm?")}}, NewGenerator(p, "", logger), logger)

	st, err := a.AskStream(context.Background(), "what is a worm?")
	require.NoError(t, err)
	got, err := llm.Collect(st)
	require.NoError(t, err, "stream failures degrade, never surface")
	assert.Equal(t, "partial answer", got)

	h := a.History()
	require.Len(t, h, 2)
	assert.Equal(t, "partial answer", h[1].Content)
}

func TestAskStreamImmediateFailureFallsBack(t *testing.T) {
	p := &fakeProvider{chatFn: func(context.Context, string, []llm.Message, bool, float32, int) (llm.ChatStream, error) {
		return &deltaStream{err: errors.New("connection reset")}, nil
	}}
	logger := log.New()
	results := []models.RetrievalResult{quizResult("cryptography", "What is a hash?")}
	a := New(&fakeSearcher{results: results}, NewGenerator(p, "", logger), logger)

	st, err := a.AskStream(context.Background(), "what is a hash?")
	require.NoError(t, err)
	got, err := llm.Collect(st)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "Based on available information:"))

	h := a.History()
	require.Len(t, h, 2)
	assert.Equal(t, got, h[1].Content)
}

func TestAskStreamBlankAnswerFallsBack(t *testing.T) {
	p := &fakeProvider{chatFn: func(context.Context, string, []llm.Message, bool, float32, int) (llm.ChatStream, error) {
		return &deltaStream{deltas: []string{"  ", "\n"}}, nil
	}}
	logger := log.New()
	a := New(&fakeSearcher{results: []models.RetrievalResult{quizResult("forensics", "What is a hash chain?")}}, NewGenerator(p, "", logger), logger)

	st, err := a.AskStream(context.Background(), "explain chain of custody")
	require.NoError(t, err)
	got, err := llm.Collect(st)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "  "), "whitespace deltas still delivered")
	assert.True(t, strings.HasSuffix(got, a.History()[1].Content))
	assert.True(t, strings.Contains(got, "Based on available information:"))
}
