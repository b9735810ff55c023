// Package corpus gathers raw text units from the quiz bank and from flat-file
// documents into a uniform document sequence for indexing.
package corpus

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"cyberguard/internal/models"
	"cyberguard/internal/quiz"
)

// QuestionPrefix is the canonical marker in front of the question line of a
// rendered quiz document. Consumers that cannot read structured metadata
// locate the question text through this prefix.
const QuestionPrefix = "Question: "

// QuizDocuments renders every question of the bank into one retrievable
// document per question. Category iteration order is fixed so question IDs
// are stable across runs.
func QuizDocuments(bank map[string][]models.QuizQuestion) []models.Document {
	categories := make([]string, 0, len(bank))
	for c := range bank {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var docs []models.Document
	for _, category := range categories {
		for i, q := range bank[category] {
			text := fmt.Sprintf("Category: %s\n%s%s\nCorrect Answer: %s\nOptions: %s\n",
				quiz.DisplayName(category), QuestionPrefix, q.Question, q.Answer, strings.Join(q.Options, ", "))
			docs = append(docs, models.Document{
				Content: text,
				Meta: models.DocumentMeta{
					Source:     models.SourceQuiz,
					Category:   category,
					QuestionID: fmt.Sprintf("%s_%d", category, i),
					Question:   q.Question,
				},
			})
		}
	}
	return docs
}

// DocumentsFromDir loads every .txt (as-is) and .pdf (text extracted) file in
// dir, non-recursively, one document per file. A missing directory yields an
// empty slice and no error. Content is not validated, deduplicated, or
// size-limited.
func DocumentsFromDir(dir string) ([]models.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read documents dir: %w", err)
	}
	var docs []models.Document
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		var content string
		switch strings.ToLower(filepath.Ext(name)) {
		case ".txt":
			b, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
			content = string(b)
		case ".pdf":
			text, err := pdfText(filepath.Join(dir, name))
			if err != nil {
				// unreadable PDFs are skipped, not fatal
				continue
			}
			content = text
		default:
			continue
		}
		docs = append(docs, models.Document{
			Content: content,
			Meta:    models.DocumentMeta{Source: models.SourceDocument, Filename: name},
		})
	}
	return docs, nil
}

func pdfText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	var buf bytes.Buffer
	rd, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	if _, err := buf.ReadFrom(rd); err != nil {
		return "", err
	}
	return buf.String(), nil
}
