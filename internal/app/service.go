package app

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"practice-quiz-service/internal/domain"
	"practice-quiz-service/internal/explain"
	"practice-quiz-service/internal/quiz"
)

// DefaultTotalSeconds is the full attempt duration: 45 minutes.
const DefaultTotalSeconds = 45 * 60

// SessionRepository persists the per-session state blob. Implementations
// treat a missing or corrupt blob as absent and never surface that upward.
type SessionRepository interface {
	Load(ctx context.Context, sessionID string) (domain.SessionState, bool, error)
	Save(ctx context.Context, sessionID string, state domain.SessionState) error
	Clear(ctx context.Context, sessionID string) error
}

// BankRepository loads raw question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) ([]domain.RawQuestion, error)
}

// ResultSink receives the result rows of a submitted attempt. A single
// delivery attempt; the status is informational.
type ResultSink interface {
	Deliver(ctx context.Context, rows []domain.ResultRow) domain.DeliveryStatus
}

// Explainer produces a free-text explanation for a prompt.
type Explainer interface {
	Explain(ctx context.Context, prompt string) (string, error)
}

// ServiceConfig carries the optional collaborators and attempt settings.
type ServiceConfig struct {
	BankID       string
	TotalSeconds int
	Sink         ResultSink
	Explainer    Explainer
}

// PracticeService owns the active attempts and wires them to the stores.
type PracticeService struct {
	store        SessionRepository
	banks        BankRepository
	sink         ResultSink
	explainer    Explainer
	bankID       string
	totalSeconds int
	now          func() time.Time

	mu       sync.Mutex
	rnd      *rand.Rand
	sessions map[string]*Session
}

func NewPracticeService(store SessionRepository, banks BankRepository, cfg ServiceConfig) *PracticeService {
	total := cfg.TotalSeconds
	if total <= 0 {
		total = DefaultTotalSeconds
	}
	return &PracticeService{
		store:        store,
		banks:        banks,
		sink:         cfg.Sink,
		explainer:    cfg.Explainer,
		bankID:       cfg.BankID,
		totalSeconds: total,
		now:          time.Now,
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
		sessions:     make(map[string]*Session),
	}
}

// WithClock is test-only for deterministic timestamps and shuffles.
func (s *PracticeService) WithClock(now func() time.Time, rnd *rand.Rand) *PracticeService {
	s.now = now
	if rnd != nil {
		s.rnd = rnd
	}
	return s
}

// Start returns the active session for an ID, resuming persisted state or
// shuffling a fresh working order. The countdown is running when Start
// returns; starting an already-active session only (idempotently) re-arms it.
func (s *PracticeService) Start(ctx context.Context, sessionID string) (*Session, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[sessionID]; ok {
		s.mu.Unlock()
		sess.StartTimer()
		return sess, nil
	}
	s.mu.Unlock()

	questions, err := s.loadQuestions(ctx)
	if err != nil {
		return nil, err
	}

	prior, hasPrior, err := s.store.Load(ctx, sessionID)
	if err != nil {
		// Unreadable state degrades to a fresh session, never to a failure.
		log.Printf("session %s: load state: %v", sessionID, err)
		prior, hasPrior = domain.SessionState{}, false
	}

	s.mu.Lock()
	if sess, ok := s.sessions[sessionID]; ok {
		s.mu.Unlock()
		sess.StartTimer()
		return sess, nil
	}
	ordered, fresh := quiz.ResolveOrder(questions, prior, hasPrior, s.rnd)
	state := prior
	if fresh {
		state = quiz.FreshState(prior, ordered, s.totalSeconds)
	}
	clampState(&state, len(ordered))
	sess := newSession(sessionID, ordered, state, s.store, s.sink, s.now)
	s.sessions[sessionID] = sess
	s.mu.Unlock()

	if fresh {
		// Single write-back so the shuffled order, position, answers and clock
		// land together before the user acts.
		if err := s.store.Save(ctx, sessionID, state); err != nil {
			log.Printf("session %s: persist fresh order: %v", sessionID, err)
		}
	}
	sess.StartTimer()
	return sess, nil
}

// Get returns an active session without creating one.
func (s *PracticeService) Get(sessionID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	return sess, ok
}

// Release detaches an active session: the countdown stops but persisted state
// stays, so the next Start resumes where the user left off.
func (s *PracticeService) Release(sessionID string) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()
	if ok {
		sess.stopTimer()
	}
}

// Restart throws the attempt away: persisted state is cleared unconditionally
// and a fresh shuffled session takes its place.
func (s *PracticeService) Restart(ctx context.Context, sessionID string) (*Session, error) {
	if err := s.store.Clear(ctx, sessionID); err != nil {
		log.Printf("session %s: clear state: %v", sessionID, err)
	}

	s.mu.Lock()
	sess := s.sessions[sessionID]
	s.mu.Unlock()
	if sess == nil {
		return s.Start(ctx, sessionID)
	}

	questions, err := s.loadQuestions(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	ordered, _ := quiz.ResolveOrder(questions, domain.SessionState{}, false, s.rnd)
	s.mu.Unlock()
	state := quiz.FreshState(domain.SessionState{}, ordered, s.totalSeconds)

	sess.reset(ordered, state)
	if err := s.store.Save(ctx, sessionID, state); err != nil {
		log.Printf("session %s: persist fresh order: %v", sessionID, err)
	}
	sess.StartTimer()
	return sess, nil
}

// Explain builds the step-by-step prompt for a question in the working set
// and forwards it to the configured explainer.
func (s *PracticeService) Explain(ctx context.Context, sessionID, questionID string) (string, error) {
	if s.explainer == nil {
		return "", fmt.Errorf("explanations not configured")
	}
	sess, ok := s.Get(sessionID)
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	q, err := sess.Question(questionID)
	if err != nil {
		return "", err
	}
	return s.explainer.Explain(ctx, explain.Prompt(q))
}

func (s *PracticeService) loadQuestions(ctx context.Context) ([]domain.Question, error) {
	raws, err := s.banks.GetBank(ctx, s.bankID)
	if err != nil {
		return nil, err
	}
	questions := quiz.NormalizeAll(raws)
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	return questions, nil
}

func clampState(state *domain.SessionState, total int) {
	if state.Current < 0 {
		state.Current = 0
	}
	if state.Current >= total && total > 0 {
		state.Current = total - 1
	}
	if state.SecondsLeft < 0 {
		state.SecondsLeft = 0
	}
}
