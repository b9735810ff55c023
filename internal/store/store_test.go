package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"cyberguard/internal/models"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := NewSQLite(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { sq.Close() })
	return map[string]Store{"memory": NewMemory(), "sqlite": sq}
}

func TestChatAppendAndTrim(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			sid := "sess-1"
			if err := st.EnsureSession(sid); err != nil {
				t.Fatalf("ensure: %v", err)
			}
			for i := 0; i < DisplayHistoryCap; i++ {
				err := st.AppendChat(sid,
					models.ChatTurn{Role: models.RoleUser, Content: fmt.Sprintf("u%d", i), Timestamp: time.Now()},
					models.ChatTurn{Role: models.RoleAssistant, Content: fmt.Sprintf("a%d", i), Timestamp: time.Now()},
				)
				if err != nil {
					t.Fatalf("append: %v", err)
				}
			}
			h, err := st.ChatHistory(sid)
			if err != nil {
				t.Fatalf("history: %v", err)
			}
			if len(h) != DisplayHistoryCap {
				t.Fatalf("history len=%d want %d", len(h), DisplayHistoryCap)
			}
			// oldest dropped first: first remaining turn belongs to exchange 10
			if h[0].Content != "u10" {
				t.Fatalf("first turn=%q want u10", h[0].Content)
			}
			if h[len(h)-1].Content != fmt.Sprintf("a%d", DisplayHistoryCap-1) {
				t.Fatalf("last turn=%q", h[len(h)-1].Content)
			}
		})
	}
}

func TestClearChat(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			sid := "sess-2"
			_ = st.EnsureSession(sid)
			_ = st.AppendChat(sid, models.ChatTurn{Role: models.RoleUser, Content: "hi", Timestamp: time.Now()})
			if err := st.ClearChat(sid); err != nil {
				t.Fatalf("clear: %v", err)
			}
			h, _ := st.ChatHistory(sid)
			if len(h) != 0 {
				t.Fatalf("history not cleared: %d", len(h))
			}
		})
	}
}

func TestScoresRoundTrip(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			sid := "sess-3"
			_ = st.EnsureSession(sid)
			sc := models.QuizScore{Score: 7, Total: 10, Percentage: 70, Date: time.Now()}
			if err := st.SetScore(sid, "malware", sc); err != nil {
				t.Fatalf("set: %v", err)
			}
			// overwrite with a new attempt
			sc2 := models.QuizScore{Score: 9, Total: 10, Percentage: 90, Date: time.Now()}
			if err := st.SetScore(sid, "malware", sc2); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, err := st.Scores(sid)
			if err != nil {
				t.Fatalf("scores: %v", err)
			}
			if len(got) != 1 || got["malware"].Score != 9 || got["malware"].Percentage != 90 {
				t.Fatalf("unexpected scores: %+v", got)
			}
			if err := st.ResetScores(sid); err != nil {
				t.Fatalf("reset: %v", err)
			}
			got, _ = st.Scores(sid)
			if len(got) != 0 {
				t.Fatalf("scores not reset: %+v", got)
			}
		})
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_ = st.EnsureSession("a")
			_ = st.EnsureSession("b")
			_ = st.AppendChat("a", models.ChatTurn{Role: models.RoleUser, Content: "only a", Timestamp: time.Now()})
			_ = st.SetScore("a", "forensics", models.QuizScore{Score: 1, Total: 1, Percentage: 100, Date: time.Now()})
			h, _ := st.ChatHistory("b")
			if len(h) != 0 {
				t.Fatalf("session b sees a's chat")
			}
			scores, _ := st.Scores("b")
			if len(scores) != 0 {
				t.Fatalf("session b sees a's scores")
			}
		})
	}
}

func TestOpenFallsBackToMemory(t *testing.T) {
	st, err := Open("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := st.(*Memory); !ok {
		t.Fatalf("expected memory store, got %T", st)
	}
}
