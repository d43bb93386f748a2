// Package relay builds the external result submission and delivers it to the
// configured spreadsheet webhook. Delivery is a single attempt; retries and
// endpoint selection belong to the deployment, not to this code.
package relay

import (
	"time"

	"practice-quiz-service/internal/domain"
)

// BuildRows flattens attempt details into one submission row per question.
// All rows share the batch timestamp.
func BuildRows(details []domain.AttemptDetail, at time.Time) []domain.ResultRow {
	rows := make([]domain.ResultRow, 0, len(details))
	for _, d := range details {
		row := domain.ResultRow{
			QuestionID:    d.ID,
			UserAnswer:    -1,
			CorrectAnswer: d.CorrectIndex,
			Timestamp:     at,
		}
		if d.UserIndex != nil {
			row.UserAnswer = *d.UserIndex
			row.UserAnswerText = optionText(d.Options, *d.UserIndex)
		}
		if d.CorrectIndex != nil {
			row.CorrectAnswerText = optionText(d.Options, *d.CorrectIndex)
		}
		rows = append(rows, row)
	}
	return rows
}

func optionText(options []string, idx int) string {
	if idx < 0 || idx >= len(options) {
		return ""
	}
	return options[idx]
}
