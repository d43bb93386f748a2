package quiz

import (
	"math"

	"practice-quiz-service/internal/domain"
)

// Marking scheme: +1 for a correct answer, -0.33 for a wrong one, 0 for an
// unattempted question.
const (
	MarksCorrect = 1.0
	MarksWrong   = -0.33
)

// Score computes the attempt result from the working set and the recorded
// answers. It is a pure function; questions must be in display order so the
// details line up with what the user saw.
func Score(questions []domain.Question, answers map[string]int) domain.Analytics {
	analytics := domain.Analytics{
		Total:   len(questions),
		Details: make([]domain.AttemptDetail, 0, len(questions)),
	}

	var score float64
	for _, q := range questions {
		detail := domain.AttemptDetail{
			ID:           q.ID,
			Question:     q.Text,
			CorrectIndex: q.CorrectIndex,
			Options:      q.Options,
		}
		if idx, ok := answers[q.ID]; ok {
			userIdx := idx
			detail.UserIndex = &userIdx
			if q.CorrectIndex != nil && idx == *q.CorrectIndex {
				detail.IsCorrect = true
				detail.Marks = MarksCorrect
				analytics.Correct++
			} else {
				detail.IsWrong = true
				detail.Marks = MarksWrong
				analytics.Wrong++
			}
		} else {
			detail.IsUnattempted = true
			analytics.Unattempted++
		}
		score += detail.Marks
		analytics.Details = append(analytics.Details, detail)
	}

	analytics.Score = round2(score)
	if analytics.Total > 0 {
		analytics.Percentage = math.Round(analytics.Score/float64(analytics.Total)*10000) / 100
	}
	return analytics
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
