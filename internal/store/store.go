// Package store persists per-session web state: chat history for display and
// quiz scores. The core assistant does not depend on it; the web layer owns
// these records.
package store

import (
	"cyberguard/internal/models"
)

// DisplayHistoryCap limits how many chat turns a session keeps for display.
// It is independent of the assistant's own history cap.
const DisplayHistoryCap = 20

// Store is the session persistence boundary used by the HTTP layer.
type Store interface {
	// EnsureSession creates the session if it does not exist.
	EnsureSession(id string) error
	AppendChat(sessionID string, turns ...models.ChatTurn) error
	ChatHistory(sessionID string) ([]models.ChatTurn, error)
	ClearChat(sessionID string) error
	SetScore(sessionID, category string, score models.QuizScore) error
	Scores(sessionID string) (map[string]models.QuizScore, error)
	ResetScores(sessionID string) error
	Close() error
}
