package models

import "time"

// DocumentSource identifies where a retrievable document came from.
type DocumentSource string

const (
	SourceQuiz     DocumentSource = "quiz"
	SourceDocument DocumentSource = "document"
)

// DocumentMeta carries source-specific attributes of a Document.
// Quiz-derived documents carry Category/QuestionID/Question; file-derived
// documents carry Filename.
type DocumentMeta struct {
	Source     DocumentSource `json:"source"`
	Category   string         `json:"category,omitempty"`
	QuestionID string         `json:"questionID,omitempty"`
	Question   string         `json:"question,omitempty"`
	Filename   string         `json:"filename,omitempty"`
}

// Document is one unit of retrievable text. Documents are created at corpus
// load time and immutable afterwards; their identity is positional within the
// corpus handed to the index.
type Document struct {
	Content string       `json:"content"`
	Meta    DocumentMeta `json:"meta"`
}

// RetrievalResult pairs a document with its squared Euclidean distance to the
// query embedding. Smaller distance means more relevant.
type RetrievalResult struct {
	Document Document `json:"document"`
	Distance float64  `json:"distance"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is a single message in a conversation history.
type ChatTurn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SourceRef is a structured attribution returned alongside an answer.
type SourceRef struct {
	Type           string `json:"type"`
	Category       string `json:"category"`
	ContentPreview string `json:"content_preview"`
}

// Answer is the orchestrator's response to one question. Confidence is a
// coarse two-valued heuristic (retrieval happened or not), not a calibrated
// probability.
type Answer struct {
	Answer     string      `json:"answer"`
	Sources    []SourceRef `json:"sources"`
	Confidence float64     `json:"confidence"`
}

// QuizSuggestion is a quiz question surfaced as relevant to a topic.
type QuizSuggestion struct {
	Question string `json:"question"`
	Category string `json:"category"`
}

// QuizQuestion is one entry of the question bank.
type QuizQuestion struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Options  []string `json:"options"`
}

// QuizScore records a graded quiz attempt for one category.
type QuizScore struct {
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Percentage float64   `json:"percentage"`
	Date       time.Time `json:"date"`
}
