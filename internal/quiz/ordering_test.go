package quiz

import (
	"math/rand"
	"testing"

	"practice-quiz-service/internal/domain"
)

func bank(ids ...string) []domain.Question {
	questions := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		questions = append(questions, domain.Question{ID: id})
	}
	return questions
}

func ids(questions []domain.Question) []string {
	out := make([]string, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.ID)
	}
	return out
}

func TestResolveOrderRestoresPersistedOrder(t *testing.T) {
	questions := bank("a", "b", "c", "d")
	prior := domain.SessionState{QuestionOrder: []string{"c", "gone", "a"}}

	ordered, fresh := ResolveOrder(questions, prior, true, rand.New(rand.NewSource(1)))
	if fresh {
		t.Fatalf("restored order must not be marked fresh")
	}
	got := ids(ordered)
	// Persisted relative order kept, vanished id dropped, new questions appended
	// in bank order.
	want := []string{"c", "a", "b", "d"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestResolveOrderKeepsNaturalOrderMidSession(t *testing.T) {
	questions := bank("a", "b", "c")
	prior := domain.SessionState{Answers: map[string]int{"b": 1}}

	ordered, fresh := ResolveOrder(questions, prior, true, rand.New(rand.NewSource(1)))
	if fresh {
		t.Fatalf("mid-session order must not be marked fresh")
	}
	got := ids(ordered)
	for i, id := range []string{"a", "b", "c"} {
		if got[i] != id {
			t.Fatalf("expected natural order, got %v", got)
		}
	}
}

func TestResolveOrderShufflesFreshSession(t *testing.T) {
	questions := bank("a", "b", "c", "d", "e", "f", "g", "h")

	ordered, fresh := ResolveOrder(questions, domain.SessionState{}, false, rand.New(rand.NewSource(7)))
	if !fresh {
		t.Fatalf("expected fresh shuffle")
	}

	// Permutation: every id exactly once.
	seen := map[string]int{}
	for _, id := range ids(ordered) {
		seen[id]++
	}
	if len(seen) != len(questions) {
		t.Fatalf("expected %d distinct ids, got %v", len(questions), seen)
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("id %s appeared %d times", id, n)
		}
	}

	// Different seeds should disagree with overwhelming probability.
	differs := false
	for seed := int64(0); seed < 16 && !differs; seed++ {
		other, _ := ResolveOrder(questions, domain.SessionState{}, false, rand.New(rand.NewSource(seed)))
		for i := range other {
			if other[i].ID != ordered[i].ID {
				differs = true
				break
			}
		}
	}
	if !differs {
		t.Fatalf("shuffle produced the same order for 16 seeds")
	}
}

func TestFreshStateMergesDefaults(t *testing.T) {
	ordered := bank("b", "a")

	state := FreshState(domain.SessionState{}, ordered, 2700)
	if len(state.QuestionOrder) != 2 || state.QuestionOrder[0] != "b" {
		t.Fatalf("expected order persisted, got %v", state.QuestionOrder)
	}
	if state.Current != 0 {
		t.Fatalf("expected current reset, got %d", state.Current)
	}
	if state.Answers == nil || len(state.Answers) != 0 {
		t.Fatalf("expected empty answers default, got %v", state.Answers)
	}
	if state.SecondsLeft != 2700 {
		t.Fatalf("expected full duration, got %d", state.SecondsLeft)
	}

	// Prior clock value survives the overlay.
	prior := domain.SessionState{SecondsLeft: 100}
	if state := FreshState(prior, ordered, 2700); state.SecondsLeft != 100 {
		t.Fatalf("expected prior clock preserved, got %d", state.SecondsLeft)
	}
}
