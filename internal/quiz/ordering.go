package quiz

import (
	"math/rand"

	"practice-quiz-service/internal/domain"
)

// ResolveOrder decides the working order for this load.
//
// Priority: a persisted questionOrder is reconstructed exactly (ids that
// vanished from the bank are dropped, questions new to the bank are appended
// in bank order); a session with answers but no order record keeps the bank's
// natural order; otherwise this is a fresh session and the set is shuffled.
//
// fresh reports whether a new shuffle was produced, in which case the caller
// must persist the order (see FreshState) before handing control to the user.
func ResolveOrder(questions []domain.Question, prior domain.SessionState, hasPrior bool, rnd *rand.Rand) (ordered []domain.Question, fresh bool) {
	if hasPrior && len(prior.QuestionOrder) > 0 {
		return restoreOrder(questions, prior.QuestionOrder), false
	}
	if hasPrior && len(prior.Answers) > 0 {
		return append([]domain.Question(nil), questions...), false
	}

	ordered = append([]domain.Question(nil), questions...)
	shuffle(ordered, rnd)
	return ordered, true
}

// restoreOrder maps persisted ids back to questions, first match wins on
// duplicate ids, then appends bank questions missing from the order.
func restoreOrder(questions []domain.Question, order []string) []domain.Question {
	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		if _, ok := byID[q.ID]; !ok {
			byID[q.ID] = q
		}
	}

	ordered := make([]domain.Question, 0, len(questions))
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if seen[id] {
			continue
		}
		seen[id] = true
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	for _, q := range questions {
		if !seen[q.ID] {
			seen[q.ID] = true
			ordered = append(ordered, q)
		}
	}
	return ordered
}

// shuffle is an in-place Fisher-Yates permutation; every ordering is equally
// likely.
func shuffle(questions []domain.Question, rnd *rand.Rand) {
	for i := len(questions) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		questions[i], questions[j] = questions[j], questions[i]
	}
}

// FreshState overlays a freshly shuffled order onto whatever state was
// persisted before: position resets to the first question, answers and the
// clock keep any prior value and otherwise take their defaults. The caller
// writes the result back in a single save.
func FreshState(prior domain.SessionState, ordered []domain.Question, totalSeconds int) domain.SessionState {
	state := prior
	state.QuestionOrder = make([]string, 0, len(ordered))
	for _, q := range ordered {
		state.QuestionOrder = append(state.QuestionOrder, q.ID)
	}
	state.Current = 0
	if state.Answers == nil {
		state.Answers = map[string]int{}
	}
	if state.SecondsLeft <= 0 {
		state.SecondsLeft = totalSeconds
	}
	return state
}
