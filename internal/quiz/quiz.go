// Package quiz holds the built-in categorized question bank and the
// sampling/grading logic behind the quiz endpoints.
package quiz

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"os"
	"time"

	"cyberguard/internal/models"
)

// DisplayNames maps category keys to their presentation names.
var DisplayNames = map[string]string{
	"network_security": "Network Security",
	"cryptography":     "Cryptography",
	"malware":          "Malware Analysis",
	"web_security":     "Web Security",
	"cloud_security":   "Cloud Security",
	"forensics":        "Digital Forensics",
}

// CategoryOrder fixes the order categories are listed in.
var CategoryOrder = []string{
	"network_security", "cryptography", "malware", "web_security", "cloud_security", "forensics",
}

// DisplayName returns the presentation name for a category key, falling back
// to the key itself.
func DisplayName(category string) string {
	if n, ok := DisplayNames[category]; ok {
		return n
	}
	return category
}

// MaxQuestionsPerQuiz caps how many questions one quiz round presents.
const MaxQuestionsPerQuiz = 10

// Bank returns the built-in question bank keyed by category.
func Bank() map[string][]models.QuizQuestion { return builtinBank }

// LoadBank reads a question bank from a JSON file shaped like Bank()'s
// result. A missing path returns the built-in bank.
func LoadBank(path string) (map[string][]models.QuizQuestion, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return builtinBank, nil
		}
		return nil, err
	}
	var bank map[string][]models.QuizQuestion
	if err := json.Unmarshal(b, &bank); err != nil {
		return nil, err
	}
	return bank, nil
}

// Sample returns up to n questions from qs in random order, each with its
// options shuffled. The input slice is not modified.
func Sample(qs []models.QuizQuestion, n int, rng *rand.Rand) []models.QuizQuestion {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if n > len(qs) {
		n = len(qs)
	}
	idx := rng.Perm(len(qs))[:n]
	out := make([]models.QuizQuestion, 0, n)
	for _, i := range idx {
		q := qs[i]
		opts := make([]string, len(q.Options))
		copy(opts, q.Options)
		rng.Shuffle(len(opts), func(a, b int) { opts[a], opts[b] = opts[b], opts[a] })
		q.Options = opts
		out = append(out, q)
	}
	return out
}

// GradedAnswer reports the outcome of one submitted answer.
type GradedAnswer struct {
	Question string `json:"question"`
	Selected string `json:"selected"`
	Correct  string `json:"correct"`
	Right    bool   `json:"right"`
}

// Grade scores submitted answers against the presented questions. Answers
// beyond len(questions) are ignored; missing answers count as wrong.
func Grade(questions []models.QuizQuestion, answers []string) (models.QuizScore, []GradedAnswer) {
	graded := make([]GradedAnswer, 0, len(questions))
	score := 0
	for i, q := range questions {
		selected := ""
		if i < len(answers) {
			selected = answers[i]
		}
		right := selected == q.Answer
		if right {
			score++
		}
		graded = append(graded, GradedAnswer{Question: q.Question, Selected: selected, Correct: q.Answer, Right: right})
	}
	total := len(questions)
	pct := 0.0
	if total > 0 {
		pct = math.Round(float64(score)/float64(total)*10000) / 100
	}
	return models.QuizScore{Score: score, Total: total, Percentage: pct, Date: time.Now()}, graded
}
