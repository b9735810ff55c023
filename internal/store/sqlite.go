package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"cyberguard/internal/models"
)

// SQLite is the durable Store used when a sqlite path is configured.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite path required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := (migrator{}).upToLatest(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) EnsureSession(id string) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO sessions(id, created_at) VALUES(?, ?)`,
		id, time.Now().Format(time.RFC3339))
	return err
}

func (s *SQLite) AppendChat(sessionID string, turns ...models.ChatTurn) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, t := range turns {
		if _, err := tx.Exec(`INSERT INTO chat_messages(session_id, role, content, created_at) VALUES(?,?,?,?)`,
			sessionID, string(t.Role), t.Content, t.Timestamp.Format(time.RFC3339Nano)); err != nil {
			return err
		}
	}
	// keep only the newest DisplayHistoryCap rows per session
	if _, err := tx.Exec(`DELETE FROM chat_messages WHERE session_id=? AND id NOT IN (
			SELECT id FROM chat_messages WHERE session_id=? ORDER BY id DESC LIMIT ?
		)`, sessionID, sessionID, DisplayHistoryCap); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) ChatHistory(sessionID string) ([]models.ChatTurn, error) {
	rows, err := s.db.Query(`SELECT role, content, created_at FROM chat_messages WHERE session_id=? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.ChatTurn
	for rows.Next() {
		var role, content, created string
		if err := rows.Scan(&role, &content, &created); err != nil {
			return nil, err
		}
		ts, _ := time.Parse(time.RFC3339Nano, created)
		out = append(out, models.ChatTurn{Role: models.Role(role), Content: content, Timestamp: ts})
	}
	return out, rows.Err()
}

func (s *SQLite) ClearChat(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM chat_messages WHERE session_id=?`, sessionID)
	return err
}

func (s *SQLite) SetScore(sessionID, category string, score models.QuizScore) error {
	_, err := s.db.Exec(`INSERT INTO quiz_scores(session_id, category, score, total, percentage, date)
		VALUES(?,?,?,?,?,?)
		ON CONFLICT(session_id, category) DO UPDATE SET
			score=excluded.score, total=excluded.total, percentage=excluded.percentage, date=excluded.date`,
		sessionID, category, score.Score, score.Total, score.Percentage, score.Date.Format(time.RFC3339))
	return err
}

func (s *SQLite) Scores(sessionID string) (map[string]models.QuizScore, error) {
	rows, err := s.db.Query(`SELECT category, score, total, percentage, date FROM quiz_scores WHERE session_id=?`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]models.QuizScore)
	for rows.Next() {
		var category, date string
		var sc models.QuizScore
		if err := rows.Scan(&category, &sc.Score, &sc.Total, &sc.Percentage, &date); err != nil {
			return nil, err
		}
		sc.Date, _ = time.Parse(time.RFC3339, date)
		out[category] = sc
	}
	return out, rows.Err()
}

func (s *SQLite) ResetScores(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM quiz_scores WHERE session_id=?`, sessionID)
	return err
}

func (s *SQLite) Close() error { return s.db.Close() }

// Open selects the sqlite store when path is non-empty and falls back to the
// in-memory store otherwise.
func Open(path string) (Store, error) {
	if path == "" {
		return NewMemory(), nil
	}
	st, err := NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return st, nil
}
