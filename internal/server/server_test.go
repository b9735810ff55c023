package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cyberguard/internal/assistant"
	"cyberguard/internal/corpus"
	"cyberguard/internal/llm/hashembed"
	"cyberguard/internal/log"
	"cyberguard/internal/quiz"
	"cyberguard/internal/store"
	"cyberguard/internal/vectorindex"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()
	logger := log.New()
	bank := quiz.Bank()
	ix := vectorindex.New(hashembed.New(), "")
	if err := ix.Build(context.Background(), corpus.QuizDocuments(bank)); err != nil {
		t.Fatalf("build index: %v", err)
	}
	as := assistant.New(ix, assistant.NewGenerator(nil, "", logger), logger)
	return NewAPI(as, store.NewMemory(), bank, logger)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	h := newTestAPI(t).Handler()
	rr := doJSON(t, h, http.MethodGet, "/healthz", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz code=%d", rr.Code)
	}
}

func TestAskEmptyQuestionRejected(t *testing.T) {
	h := newTestAPI(t).Handler()
	rr := doJSON(t, h, http.MethodPost, "/assistant/ask", map[string]string{"question": "   "}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("code=%d want 400", rr.Code)
	}
}

func TestAskReturnsAnswerAndUpdatesHistory(t *testing.T) {
	h := newTestAPI(t).Handler()
	rr := doJSON(t, h, http.MethodPost, "/assistant/ask", map[string]string{"question": "what does a firewall do?"}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rr.Code, rr.Body.String())
	}
	var ans struct {
		Answer     string  `json:"answer"`
		Confidence float64 `json:"confidence"`
		Sources    []struct {
			Type     string `json:"type"`
			Category string `json:"category"`
		} `json:"sources"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &ans); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ans.Answer == "" {
		t.Fatal("empty answer")
	}
	if ans.Confidence != 0.95 {
		t.Fatalf("confidence=%v", ans.Confidence)
	}
	for _, s := range ans.Sources {
		if s.Type != "quiz" {
			t.Fatalf("unexpected source type %q", s.Type)
		}
	}

	cookies := (&http.Response{Header: rr.Header()}).Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie issued")
	}
	hr := doJSON(t, h, http.MethodGet, "/assistant/history", nil, cookies)
	var hist struct {
		ChatHistory []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"chat_history"`
	}
	if err := json.Unmarshal(hr.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.ChatHistory) != 2 {
		t.Fatalf("history len=%d want 2", len(hist.ChatHistory))
	}
	if hist.ChatHistory[0].Role != "user" || hist.ChatHistory[1].Role != "assistant" {
		t.Fatalf("unexpected roles: %+v", hist.ChatHistory)
	}
}

func TestAskStreamEmptyQuestionRejected(t *testing.T) {
	h := newTestAPI(t).Handler()
	rr := doJSON(t, h, http.MethodPost, "/assistant/ask-stream", map[string]string{"question": ""}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("code=%d want 400", rr.Code)
	}
}

func TestAskStreamEmitsEventsAndPersistsHistory(t *testing.T) {
	h := newTestAPI(t).Handler()
	rr := doJSON(t, h, http.MethodPost, "/assistant/ask-stream", map[string]string{"question": "what is phishing?"}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type = %q", ct)
	}

	var answer strings.Builder
	sawDone := false
	for _, line := range strings.Split(rr.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			sawDone = true
			continue
		}
		var evt struct {
			Delta string `json:"delta"`
		}
		if err := json.Unmarshal([]byte(payload), &evt); err != nil {
			t.Fatalf("bad event payload %q: %v", payload, err)
		}
		answer.WriteString(evt.Delta)
	}
	if !sawDone {
		t.Fatal("stream did not terminate with [DONE]")
	}
	if answer.Len() == 0 {
		t.Fatal("stream carried no answer deltas")
	}

	cookies := (&http.Response{Header: rr.Header()}).Cookies()
	hr := doJSON(t, h, http.MethodGet, "/assistant/history", nil, cookies)
	var hist struct {
		ChatHistory []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"chat_history"`
	}
	if err := json.Unmarshal(hr.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.ChatHistory) != 2 {
		t.Fatalf("history len=%d want 2", len(hist.ChatHistory))
	}
	if hist.ChatHistory[1].Content != answer.String() {
		t.Fatalf("persisted answer %q does not match streamed %q", hist.ChatHistory[1].Content, answer.String())
	}
}

func TestQuizUnknownCategory(t *testing.T) {
	h := newTestAPI(t).Handler()
	rr := doJSON(t, h, http.MethodGet, "/api/quiz/not_a_category", nil, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("code=%d want 404", rr.Code)
	}
}

func TestQuizGetHidesAnswers(t *testing.T) {
	h := newTestAPI(t).Handler()
	rr := doJSON(t, h, http.MethodGet, "/api/quiz/network_security", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("code=%d", rr.Code)
	}
	var out struct {
		CategoryKey string `json:"category_key"`
		Questions   []struct {
			Question string   `json:"question"`
			Options  []string `json:"options"`
		} `json:"questions"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.CategoryKey != "network_security" {
		t.Fatalf("category_key=%q", out.CategoryKey)
	}
	if len(out.Questions) == 0 || len(out.Questions) > quiz.MaxQuestionsPerQuiz {
		t.Fatalf("question count=%d", len(out.Questions))
	}
	if strings.Contains(rr.Body.String(), `"answer"`) {
		t.Fatal("response leaks correct answers")
	}
}

func TestQuizSubmitAndProfile(t *testing.T) {
	h := newTestAPI(t).Handler()
	bank := quiz.Bank()["malware"]
	sub := map[string]any{"answers": []map[string]string{
		{"question": bank[0].Question, "selected": bank[0].Answer},
		{"question": bank[1].Question, "selected": "wrong"},
	}}
	rr := doJSON(t, h, http.MethodPost, "/api/quiz/malware", sub, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rr.Code, rr.Body.String())
	}
	var res struct {
		Score      int     `json:"score"`
		Total      int     `json:"total"`
		Percentage float64 `json:"percentage"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Score != 1 || res.Total != 2 || res.Percentage != 50 {
		t.Fatalf("unexpected grade: %+v", res)
	}

	cookies := (&http.Response{Header: rr.Header()}).Cookies()
	pr := doJSON(t, h, http.MethodGet, "/api/profile", nil, cookies)
	var prof struct {
		TotalQuizzes   int `json:"total_quizzes"`
		TotalCorrect   int `json:"total_correct"`
		TotalQuestions int `json:"total_questions"`
	}
	if err := json.Unmarshal(pr.Body.Bytes(), &prof); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if prof.TotalQuizzes != 1 || prof.TotalCorrect != 1 || prof.TotalQuestions != 2 {
		t.Fatalf("unexpected profile: %+v", prof)
	}
}

func TestQuizSuggestionsRequireTopic(t *testing.T) {
	h := newTestAPI(t).Handler()
	rr := doJSON(t, h, http.MethodPost, "/assistant/quiz-suggestions", map[string]string{"topic": ""}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("code=%d want 400", rr.Code)
	}
}

func TestQuizSuggestions(t *testing.T) {
	h := newTestAPI(t).Handler()
	rr := doJSON(t, h, http.MethodPost, "/assistant/quiz-suggestions", map[string]string{"topic": "network security firewalls"}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rr.Code, rr.Body.String())
	}
	var out struct {
		Topic       string `json:"topic"`
		Suggestions []struct {
			Question string   `json:"question"`
			Category string   `json:"category"`
			Options  []string `json:"options"`
		} `json:"suggestions"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Suggestions) == 0 || len(out.Suggestions) > 3 {
		t.Fatalf("suggestion count=%d", len(out.Suggestions))
	}
	for _, s := range out.Suggestions {
		if s.Question == "" || s.Category == "" {
			t.Fatalf("incomplete suggestion: %+v", s)
		}
		if len(s.Options) > 3 {
			t.Fatalf("too many options: %d", len(s.Options))
		}
	}
}

func TestClearHistory(t *testing.T) {
	h := newTestAPI(t).Handler()
	rr := doJSON(t, h, http.MethodPost, "/assistant/ask", map[string]string{"question": "what is ransomware?"}, nil)
	cookies := (&http.Response{Header: rr.Header()}).Cookies()

	cr := doJSON(t, h, http.MethodPost, "/assistant/clear-history", nil, cookies)
	if cr.Code != http.StatusOK {
		t.Fatalf("clear code=%d", cr.Code)
	}
	hr := doJSON(t, h, http.MethodGet, "/assistant/history", nil, cookies)
	var hist struct {
		ChatHistory []any `json:"chat_history"`
	}
	if err := json.Unmarshal(hr.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hist.ChatHistory) != 0 {
		t.Fatalf("history not cleared: %d", len(hist.ChatHistory))
	}
}

func TestResetScores(t *testing.T) {
	h := newTestAPI(t).Handler()
	bank := quiz.Bank()["forensics"]
	sub := map[string]any{"answers": []map[string]string{{"question": bank[0].Question, "selected": bank[0].Answer}}}
	rr := doJSON(t, h, http.MethodPost, "/api/quiz/forensics", sub, nil)
	cookies := (&http.Response{Header: rr.Header()}).Cookies()

	reset := doJSON(t, h, http.MethodPost, "/api/reset-scores", nil, cookies)
	if reset.Code != http.StatusOK {
		t.Fatalf("reset code=%d", reset.Code)
	}
	pr := doJSON(t, h, http.MethodGet, "/api/profile", nil, cookies)
	var prof struct {
		TotalQuizzes int `json:"total_quizzes"`
	}
	if err := json.Unmarshal(pr.Body.Bytes(), &prof); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if prof.TotalQuizzes != 0 {
		t.Fatalf("scores not reset: %d", prof.TotalQuizzes)
	}
}
