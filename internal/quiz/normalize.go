package quiz

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"practice-quiz-service/internal/domain"
)

// Normalize converts one raw bank record into the canonical Question shape.
// It never fails: every field degrades to a default when the record is
// malformed. Callers should supply stable `id` fields; a record lacking both
// `id` and `_id` gets a synthesized uuid, which is not stable across loads.
func Normalize(raw domain.RawQuestion) domain.Question {
	q := domain.Question{
		ID:      identifier(raw),
		Text:    firstString(raw, "text", "question", "title"),
		Options: options(raw["options"]),
		Subject: firstString(raw, "subject", "Subject", "topic", "Topic"),
	}
	q.CorrectIndex = correctIndex(raw, q.Options)
	return q
}

// NormalizeAll maps a raw bank into canonical questions, preserving order.
func NormalizeAll(raws []domain.RawQuestion) []domain.Question {
	questions := make([]domain.Question, 0, len(raws))
	for _, raw := range raws {
		questions = append(questions, Normalize(raw))
	}
	return questions
}

func identifier(raw domain.RawQuestion) string {
	if v, ok := raw["id"]; ok && v != nil {
		if s := stringify(v); s != "" {
			return s
		}
	}
	if s := stringify(raw["_id"]); s != "" {
		return s
	}
	return uuid.NewString()
}

func firstString(raw domain.RawQuestion, keys ...string) string {
	for _, key := range keys {
		if s, ok := raw[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func options(v any) []string {
	list, ok := v.([]any)
	if !ok {
		// A typed slice arrives when the bank is built in-process.
		if typed, ok := v.([]string); ok {
			return append([]string(nil), typed...)
		}
		return []string{}
	}
	opts := make([]string, 0, len(list))
	for _, item := range list {
		opts = append(opts, stringify(item))
	}
	return opts
}

// correctIndex resolves the answer key: numeric correctIndex, then numeric
// correctAnswer interpreted as an index, then string correctAnswer matched
// against trimmed option text (first exact, case-sensitive match).
func correctIndex(raw domain.RawQuestion, opts []string) *int {
	if n, ok := asInt(raw["correctIndex"]); ok {
		return &n
	}
	if n, ok := asInt(raw["correctAnswer"]); ok {
		return &n
	}
	if target, ok := raw["correctAnswer"].(string); ok && len(opts) > 0 {
		want := strings.TrimSpace(target)
		for i, opt := range opts {
			if strings.TrimSpace(opt) == want {
				idx := i
				return &idx
			}
		}
	}
	return nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

// stringify coerces scalar bank values to strings. JSON numbers arrive as
// float64; integral ones must not grow a trailing ".0".
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	}
	return ""
}
