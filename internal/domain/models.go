package domain

import "time"

// RawQuestion is a question record as supplied by the bank, before
// normalization. Field shapes vary between banks, so it stays a loose map
// until the normalizer has coerced it.
type RawQuestion map[string]any

// Question is the canonical, immutable question shape used everywhere past
// the normalizer.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	// CorrectIndex is nil when the bank record gave no resolvable answer.
	CorrectIndex *int   `json:"correctIndex"`
	Subject      string `json:"subject,omitempty"`
}

// SessionState is the persisted snapshot of one attempt. It is saved as a
// whole record on every mutation and removed exactly once, at submission.
type SessionState struct {
	QuestionOrder []string       `json:"questionOrder"`
	Current       int            `json:"current"`
	Answers       map[string]int `json:"answers"`
	SecondsLeft   int            `json:"secondsLeft"`
}

// AttemptDetail is the per-question scoring record.
type AttemptDetail struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	UserIndex     *int     `json:"userIndex"`
	CorrectIndex  *int     `json:"correctIndex"`
	Options       []string `json:"options"`
	IsCorrect     bool     `json:"isCorrect"`
	IsWrong       bool     `json:"isWrong"`
	IsUnattempted bool     `json:"isUnattempted"`
	Marks         float64  `json:"marks"`
}

// Analytics is the aggregate result of a submitted attempt.
type Analytics struct {
	Total       int             `json:"total"`
	Correct     int             `json:"correct"`
	Wrong       int             `json:"wrong"`
	Unattempted int             `json:"unattempted"`
	Score       float64         `json:"score"`
	Percentage  float64         `json:"percentage"`
	Details     []AttemptDetail `json:"details"`
}

// ResultRow is one line of the external result submission, one per question.
type ResultRow struct {
	QuestionID string `json:"questionId"`
	// UserAnswer is -1 when the question was left unattempted.
	UserAnswer        int       `json:"userAnswer"`
	UserAnswerText    string    `json:"userAnswerText"`
	CorrectAnswer     *int      `json:"correctAnswer"`
	CorrectAnswerText string    `json:"correctAnswerText"`
	Timestamp         time.Time `json:"timestamp"`
}

// DeliveryStatus records the outcome of the single result-delivery attempt.
// It is informational only; submission never depends on it.
type DeliveryStatus struct {
	OK     bool   `json:"ok"`
	Status int    `json:"status,omitempty"`
	Body   string `json:"body,omitempty"`
	Error  string `json:"error,omitempty"`
}
