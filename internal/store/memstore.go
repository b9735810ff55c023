package store

import (
	"sync"

	"cyberguard/internal/models"
)

// Memory is an in-process Store used in tests and when no sqlite path is
// configured.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*memSession
}

type memSession struct {
	chat   []models.ChatTurn
	scores map[string]models.QuizScore
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]*memSession)}
}

func (m *Memory) session(id string) *memSession {
	s, ok := m.sessions[id]
	if !ok {
		s = &memSession{scores: make(map[string]models.QuizScore)}
		m.sessions[id] = s
	}
	return s
}

func (m *Memory) EnsureSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(id)
	return nil
}

func (m *Memory) AppendChat(sessionID string, turns ...models.ChatTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(sessionID)
	s.chat = append(s.chat, turns...)
	if len(s.chat) > DisplayHistoryCap {
		s.chat = s.chat[len(s.chat)-DisplayHistoryCap:]
	}
	return nil
}

func (m *Memory) ChatHistory(sessionID string) ([]models.ChatTurn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return append([]models.ChatTurn(nil), s.chat...), nil
}

func (m *Memory) ClearChat(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(sessionID).chat = nil
	return nil
}

func (m *Memory) SetScore(sessionID, category string, score models.QuizScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(sessionID).scores[category] = score
	return nil
}

func (m *Memory) Scores(sessionID string) (map[string]models.QuizScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return map[string]models.QuizScore{}, nil
	}
	out := make(map[string]models.QuizScore, len(s.scores))
	for k, v := range s.scores {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) ResetScores(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(sessionID).scores = make(map[string]models.QuizScore)
	return nil
}

func (m *Memory) Close() error { return nil }
