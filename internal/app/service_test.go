package app_test

import (
	"context"
	"strings"
	"testing"

	"practice-quiz-service/internal/app"
	"practice-quiz-service/internal/domain"
	"practice-quiz-service/internal/infra/memory"
)

func sampleBank() []domain.RawQuestion {
	return []domain.RawQuestion{
		{"id": "q1", "text": "one", "options": []any{"a", "b"}, "correctIndex": float64(0)},
		{"id": "q2", "question": "two", "options": []any{"a", "b"}, "correctAnswer": "b"},
		{"id": "q3", "title": "three", "options": []any{"a", "b"}},
		{"id": "q4", "text": "four", "options": []any{"a", "b"}, "correctAnswer": float64(1)},
	}
}

func newTestService(store *memory.SessionStore) *app.PracticeService {
	banks := memory.NewStaticBankLoader(map[string][]domain.RawQuestion{
		"bank-1": sampleBank(),
	})
	return app.NewPracticeService(store, staticRepo{banks}, app.ServiceConfig{
		BankID:       "bank-1",
		TotalSeconds: 300,
	})
}

// staticRepo skips the caching layer; these tests exercise the service, not
// the cache.
type staticRepo struct {
	loader *memory.StaticBankLoader
}

func (r staticRepo) GetBank(ctx context.Context, bankID string) ([]domain.RawQuestion, error) {
	return r.loader.LoadBank(ctx, bankID)
}

func TestStartPersistsFreshOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	service := newTestService(store)
	defer service.Release("s1")

	sess, err := service.Start(ctx, "s1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	snap := sess.Snapshot()
	if snap.Total != 4 || snap.Current != 0 || snap.SecondsLeft != 300 {
		t.Fatalf("unexpected fresh snapshot: %+v", snap)
	}

	state, ok, _ := store.Load(ctx, "s1")
	if !ok {
		t.Fatalf("expected fresh order persisted")
	}
	if len(state.QuestionOrder) != 4 || state.Current != 0 || state.SecondsLeft != 300 || state.Answers == nil {
		t.Fatalf("fresh write-back incomplete: %+v", state)
	}
}

func TestStartResumesPersistedOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	_ = store.Save(ctx, "s1", domain.SessionState{
		QuestionOrder: []string{"q3", "q1"},
		Current:       1,
		Answers:       map[string]int{"q1": 1},
		SecondsLeft:   42,
	})
	service := newTestService(store)
	defer service.Release("s1")

	sess, err := service.Start(ctx, "s1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	snap := sess.Snapshot()
	got := make([]string, 0, len(snap.Questions))
	for _, q := range snap.Questions {
		got = append(got, q.ID)
	}
	// Persisted prefix kept, remaining bank questions appended in bank order.
	want := []string{"q3", "q1", "q2", "q4"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
	if snap.Current != 1 || snap.SecondsLeft != 42 || snap.Answers["q1"] != 1 {
		t.Fatalf("resume lost state: %+v", snap)
	}
}

func TestStartIsIdempotentForActiveSession(t *testing.T) {
	ctx := context.Background()
	service := newTestService(memory.NewSessionStore())
	defer service.Release("s1")

	first, err := service.Start(ctx, "s1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	second, err := service.Start(ctx, "s1")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if first != second {
		t.Fatalf("expected the same session instance")
	}
}

func TestReleaseKeepsPersistedState(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	service := newTestService(store)

	sess, err := service.Start(ctx, "s1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_ = sess.SelectAnswer(ctx, "q1", 0)
	service.Release("s1")

	if _, ok := service.Get("s1"); ok {
		t.Fatalf("expected session detached")
	}
	state, ok, _ := store.Load(ctx, "s1")
	if !ok || state.Answers["q1"] != 0 {
		t.Fatalf("expected persisted state kept for resume, got ok=%v %+v", ok, state)
	}
}

func TestRestartClearsStateUnconditionally(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	service := newTestService(store)
	defer service.Release("s1")

	sess, err := service.Start(ctx, "s1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_ = sess.SelectAnswer(ctx, "q1", 1)
	sess.Goto(ctx, 2)

	restarted, err := service.Restart(ctx, "s1")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if restarted != sess {
		t.Fatalf("restart should reset the session in place")
	}
	snap := restarted.Snapshot()
	if snap.Current != 0 || len(snap.Answers) != 0 || snap.SecondsLeft != 300 || snap.Submitted {
		t.Fatalf("restart left stale state: %+v", snap)
	}

	state, ok, _ := store.Load(ctx, "s1")
	if !ok || len(state.QuestionOrder) != 4 || len(state.Answers) != 0 {
		t.Fatalf("expected fresh order persisted after restart: ok=%v %+v", ok, state)
	}
}

func TestStartFailsOnEmptyBank(t *testing.T) {
	banks := memory.NewStaticBankLoader(map[string][]domain.RawQuestion{"bank-1": {}})
	service := app.NewPracticeService(memory.NewSessionStore(), staticRepo{banks}, app.ServiceConfig{BankID: "bank-1"})

	if _, err := service.Start(context.Background(), "s1"); err != domain.ErrNoQuestions {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestExplainUsesWorkingSetQuestion(t *testing.T) {
	ctx := context.Background()
	banks := memory.NewStaticBankLoader(map[string][]domain.RawQuestion{
		"bank-1": sampleBank(),
	})
	explainer := &fakeExplainer{reply: "because"}
	service := app.NewPracticeService(memory.NewSessionStore(), staticRepo{banks}, app.ServiceConfig{
		BankID:    "bank-1",
		Explainer: explainer,
	})
	defer service.Release("s1")

	if _, err := service.Start(ctx, "s1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	got, err := service.Explain(ctx, "s1", "q1")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if got != "because" {
		t.Fatalf("expected explainer reply, got %q", got)
	}
	if !strings.Contains(explainer.prompt, "one") || !strings.Contains(explainer.prompt, "1. a") {
		t.Fatalf("prompt missing question content: %q", explainer.prompt)
	}

	if _, err := service.Explain(ctx, "s1", "missing"); err != domain.ErrQuestionNotFound {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

type fakeExplainer struct {
	prompt string
	reply  string
}

func (f *fakeExplainer) Explain(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, nil
}
