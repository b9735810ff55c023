package server

import (
	"net/http"
	"sort"
	"strings"

	"cyberguard/internal/models"
	"cyberguard/internal/quiz"
)

func (a *API) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sid := a.session(w, r)
	scores, err := a.sessions.Scores(sid)
	if err != nil {
		a.logger.Error("load scores failed", "error", err.Error())
		scores = map[string]models.QuizScore{}
	}
	type category struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	}
	cats := make([]category, 0, len(quiz.CategoryOrder))
	for _, key := range quiz.CategoryOrder {
		if _, ok := a.bank[key]; !ok {
			continue
		}
		cats = append(cats, category{Key: key, Name: quiz.DisplayName(key)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories":  cats,
		"user_scores": scores,
	})
}

type quizSubmission struct {
	Answers []struct {
		Question string `json:"question"`
		Selected string `json:"selected"`
	} `json:"answers"`
}

func (a *API) handleQuiz(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimPrefix(r.URL.Path, "/api/quiz/")
	questions, ok := a.bank[category]
	if !ok {
		writeError(w, http.StatusNotFound, "category_not_found", "Category not found")
		return
	}
	if len(questions) == 0 {
		writeError(w, http.StatusNotFound, "no_questions", "No questions available for this category")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.serveQuiz(w, r, category, questions)
	case http.MethodPost:
		a.gradeQuiz(w, r, category, questions)
	default:
		methodNotAllowed(w)
	}
}

func (a *API) serveQuiz(w http.ResponseWriter, r *http.Request, category string, questions []models.QuizQuestion) {
	a.session(w, r)
	sampled := quiz.Sample(questions, quiz.MaxQuestionsPerQuiz, nil)
	// answers stay server-side; only question text and shuffled options go out
	type presented struct {
		Question string   `json:"question"`
		Options  []string `json:"options"`
	}
	out := make([]presented, 0, len(sampled))
	for _, q := range sampled {
		out = append(out, presented{Question: q.Question, Options: q.Options})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category":        quiz.DisplayName(category),
		"category_key":    category,
		"questions":       out,
		"total_questions": len(out),
	})
}

func (a *API) gradeQuiz(w http.ResponseWriter, r *http.Request, category string, questions []models.QuizQuestion) {
	sid := a.session(w, r)
	var sub quizSubmission
	if err := decodeJSON(r, &sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if len(sub.Answers) == 0 {
		writeError(w, http.StatusBadRequest, "no_answers", "No answers submitted")
		return
	}
	byText := make(map[string]models.QuizQuestion, len(questions))
	for _, q := range questions {
		byText[q.Question] = q
	}
	var asked []models.QuizQuestion
	var selected []string
	for _, ans := range sub.Answers {
		q, ok := byText[ans.Question]
		if !ok {
			continue
		}
		asked = append(asked, q)
		selected = append(selected, ans.Selected)
	}
	if len(asked) == 0 {
		writeError(w, http.StatusBadRequest, "unknown_questions", "Submitted questions do not belong to this category")
		return
	}
	score, graded := quiz.Grade(asked, selected)
	if err := a.sessions.SetScore(sid, category, score); err != nil {
		a.logger.Error("persist score failed", "error", err.Error())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category":   quiz.DisplayName(category),
		"score":      score.Score,
		"total":      score.Total,
		"percentage": score.Percentage,
		"answers":    graded,
	})
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sid := a.session(w, r)
	scores, err := a.sessions.Scores(sid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", "Failed to load scores")
		return
	}
	totalCorrect, totalQuestions := 0, 0
	type categoryScore struct {
		Category string  `json:"category"`
		Name     string  `json:"name"`
		Score    int     `json:"score"`
		Total    int     `json:"total"`
		Percent  float64 `json:"percentage"`
	}
	sorted := make([]categoryScore, 0, len(scores))
	for cat, sc := range scores {
		totalCorrect += sc.Score
		totalQuestions += sc.Total
		sorted = append(sorted, categoryScore{Category: cat, Name: quiz.DisplayName(cat), Score: sc.Score, Total: sc.Total, Percent: sc.Percentage})
	}
	// weakest categories first
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Percent < sorted[j].Percent })
	overall := 0.0
	if totalQuestions > 0 {
		overall = float64(totalCorrect) / float64(totalQuestions) * 100
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_quizzes":      len(scores),
		"total_correct":      totalCorrect,
		"total_questions":    totalQuestions,
		"overall_percentage": overall,
		"categories":         sorted,
	})
}

// Demo leaderboard entries; a real deployment would back this with storage
// shared across users.
var demoLeaderboard = []map[string]any{
	{"username": "CyberPro", "score": 98, "quizzes_completed": 6},
	{"username": "SecurityWiz", "score": 95, "quizzes_completed": 5},
	{"username": "CodeGuard", "score": 92, "quizzes_completed": 6},
	{"username": "NetShield", "score": 88, "quizzes_completed": 4},
	{"username": "DataDefender", "score": 85, "quizzes_completed": 5},
}

func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sid := a.session(w, r)
	scores, _ := a.sessions.Scores(sid)
	totalCorrect, totalQuestions := 0, 0
	for _, sc := range scores {
		totalCorrect += sc.Score
		totalQuestions += sc.Total
	}
	userScore := 0.0
	if totalQuestions > 0 {
		userScore = float64(totalCorrect) / float64(totalQuestions) * 100
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"leaderboard":  demoLeaderboard,
		"user_score":   userScore,
		"user_quizzes": len(scores),
	})
}

func (a *API) handleResetScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	sid := a.session(w, r)
	if err := a.sessions.ResetScores(sid); err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", "Failed to reset scores")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "All scores reset"})
}
