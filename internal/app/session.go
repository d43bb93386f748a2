package app

import (
	"context"
	"log"
	"sync"
	"time"

	"practice-quiz-service/internal/domain"
	"practice-quiz-service/internal/quiz"
	"practice-quiz-service/internal/relay"
)

type phase int

const (
	phaseRunning phase = iota
	phaseSubmitted
)

// Event types published to session subscribers.
const (
	EventState     = "state"
	EventTick      = "tick"
	EventSubmitted = "submitted"
)

// Event is a session update pushed to subscribers.
type Event struct {
	Type        string            `json:"type"`
	Snapshot    *Snapshot         `json:"snapshot,omitempty"`
	SecondsLeft int               `json:"secondsLeft"`
	Analytics   *domain.Analytics `json:"analytics,omitempty"`
}

// Snapshot is the client-facing view of an attempt.
type Snapshot struct {
	SessionID   string                 `json:"sessionId"`
	Questions   []domain.Question      `json:"questions"`
	Current     int                    `json:"current"`
	Total       int                    `json:"total"`
	Answers     map[string]int         `json:"answers"`
	SecondsLeft int                    `json:"secondsLeft"`
	Submitted   bool                   `json:"submitted"`
	Pages       []int                  `json:"pages"`
	Delivery    *domain.DeliveryStatus `json:"delivery,omitempty"`
}

// Session is the state machine for one attempt: answers, position, countdown
// and the Running -> Submitted transition. All mutations are serialized by the
// session mutex; the countdown goroutine and user commands never interleave
// inside a transition.
type Session struct {
	id    string
	store SessionRepository
	sink  ResultSink
	now   func() time.Time

	mu          sync.Mutex
	questions   []domain.Question
	byID        map[string]int
	state       domain.SessionState
	phase       phase
	analytics   *domain.Analytics
	delivery    *domain.DeliveryStatus
	subscribers map[chan Event]struct{}
	timer       *countdown
}

// countdown owns the periodic tick resource; halt releases it exactly once.
type countdown struct {
	stop chan struct{}
	once sync.Once
}

func (c *countdown) halt() {
	c.once.Do(func() { close(c.stop) })
}

func newSession(id string, questions []domain.Question, state domain.SessionState, store SessionRepository, sink ResultSink, now func() time.Time) *Session {
	if state.Answers == nil {
		state.Answers = map[string]int{}
	}
	return &Session{
		id:          id,
		store:       store,
		sink:        sink,
		now:         now,
		questions:   questions,
		byID:        indexByID(questions),
		state:       state,
		subscribers: make(map[chan Event]struct{}),
	}
}

// indexByID keeps the first occurrence when ids collide; later duplicates
// shadow in lookups but stay in the display order.
func indexByID(questions []domain.Question) map[string]int {
	byID := make(map[string]int, len(questions))
	for i, q := range questions {
		if _, ok := byID[q.ID]; !ok {
			byID[q.ID] = i
		}
	}
	return byID
}

// StartTimer begins the one-second countdown. Calling it while a countdown is
// already running is a no-op, so re-attaching clients cannot spawn duplicate
// drivers.
func (s *Session) StartTimer() {
	s.mu.Lock()
	if s.timer != nil || s.phase != phaseRunning {
		s.mu.Unlock()
		return
	}
	c := &countdown{stop: make(chan struct{})}
	s.timer = c
	s.mu.Unlock()
	go s.runCountdown(c)
}

func (s *Session) runCountdown(c *countdown) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if !s.Tick() {
				return
			}
		case <-c.stop:
			return
		}
	}
}

func (s *Session) stopTimer() {
	s.mu.Lock()
	c := s.timer
	s.timer = nil
	s.mu.Unlock()
	if c != nil {
		c.halt()
	}
}

// Tick advances the countdown by one second and reports whether it should
// keep running. The tick that reaches zero performs the submission before
// returning, so no later tick can observe a running session at zero.
func (s *Session) Tick() bool {
	s.mu.Lock()
	if s.phase != phaseRunning {
		s.mu.Unlock()
		return false
	}
	if s.state.SecondsLeft <= 1 {
		s.state.SecondsLeft = 0
		s.mu.Unlock()
		_, _ = s.Submit(context.Background())
		return false
	}
	s.state.SecondsLeft--
	left := s.state.SecondsLeft
	s.persistLocked(context.Background())
	s.publishLocked(Event{Type: EventTick, SecondsLeft: left})
	s.mu.Unlock()
	return true
}

// SelectAnswer records the chosen option for a question. Selections after
// submission are rejected.
func (s *Session) SelectAnswer(ctx context.Context, questionID string, optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != phaseRunning {
		return domain.ErrAlreadySubmitted
	}
	if _, ok := s.byID[questionID]; !ok {
		return domain.ErrQuestionNotFound
	}
	s.state.Answers[questionID] = optionIndex
	s.persistLocked(ctx)
	s.publishStateLocked()
	return nil
}

// ResetCurrent drops the answer for the question currently in view.
func (s *Session) ResetCurrent(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != phaseRunning || s.state.Current >= len(s.questions) {
		return
	}
	delete(s.state.Answers, s.questions[s.state.Current].ID)
	s.persistLocked(ctx)
	s.publishStateLocked()
}

// Goto moves to the given question index, clamped to the working set.
func (s *Session) Goto(ctx context.Context, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gotoLocked(ctx, index)
}

func (s *Session) Next(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gotoLocked(ctx, s.state.Current+1)
}

func (s *Session) Prev(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gotoLocked(ctx, s.state.Current-1)
}

func (s *Session) gotoLocked(ctx context.Context, index int) {
	if s.phase != phaseRunning {
		return
	}
	if index < 0 {
		index = 0
	}
	if max := len(s.questions) - 1; index > max {
		index = max
	}
	if index == s.state.Current {
		return
	}
	s.state.Current = index
	s.persistLocked(ctx)
	s.publishStateLocked()
}

// Submit applies the Running -> Submitted transition: score, clear the
// persisted blob, release the countdown, and hand rows to the sink in the
// background. A second call returns the same Analytics and sends nothing.
func (s *Session) Submit(ctx context.Context) (domain.Analytics, error) {
	s.mu.Lock()
	if s.phase == phaseSubmitted {
		analytics := *s.analytics
		s.mu.Unlock()
		return analytics, nil
	}
	s.phase = phaseSubmitted
	analytics := quiz.Score(s.questions, s.state.Answers)
	s.analytics = &analytics
	s.publishLocked(Event{Type: EventSubmitted, Analytics: &analytics})
	s.mu.Unlock()

	s.stopTimer()
	if err := s.store.Clear(ctx, s.id); err != nil {
		log.Printf("session %s: clear persisted state: %v", s.id, err)
	}

	if s.sink != nil {
		rows := relay.BuildRows(analytics.Details, s.now())
		// Fire and forget: the submit transition is already committed, the
		// delivery outcome only updates the status field.
		go func() {
			status := s.sink.Deliver(context.Background(), rows)
			s.setDelivery(status)
		}()
	}
	return analytics, nil
}

// Question returns the canonical question for an id in the working set.
func (s *Session) Question(questionID string) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byID[questionID]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return s.questions[idx], nil
}

// Snapshot returns a copy of the current client-facing view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	answers := make(map[string]int, len(s.state.Answers))
	for id, idx := range s.state.Answers {
		answers[id] = idx
	}
	return Snapshot{
		SessionID:   s.id,
		Questions:   s.questions,
		Current:     s.state.Current,
		Total:       len(s.questions),
		Answers:     answers,
		SecondsLeft: s.state.SecondsLeft,
		Submitted:   s.phase == phaseSubmitted,
		Pages:       quiz.PageItems(len(s.questions), s.state.Current),
		Delivery:    s.delivery,
	}
}

// Subscribe returns a channel of session events, primed with a state
// snapshot. The caller must invoke cancel to avoid leaks.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	ch <- Event{Type: EventState, Snapshot: &snapshot, SecondsLeft: snapshot.SecondsLeft}

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) setDelivery(status domain.DeliveryStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivery = &status
	if !status.OK {
		log.Printf("session %s: result delivery failed: status=%d err=%s", s.id, status.Status, status.Error)
	}
	s.publishStateLocked()
}

// reset reinitializes the attempt in place, keeping subscribers attached.
func (s *Session) reset(questions []domain.Question, state domain.SessionState) {
	s.stopTimer()
	s.mu.Lock()
	defer s.mu.Unlock()
	if state.Answers == nil {
		state.Answers = map[string]int{}
	}
	s.questions = questions
	s.byID = indexByID(questions)
	s.state = state
	s.phase = phaseRunning
	s.analytics = nil
	s.delivery = nil
	s.publishStateLocked()
}

func (s *Session) persistLocked(ctx context.Context) {
	if err := s.store.Save(ctx, s.id, s.state); err != nil {
		log.Printf("session %s: persist state: %v", s.id, err)
	}
}

func (s *Session) publishStateLocked() {
	snapshot := s.snapshotLocked()
	s.publishLocked(Event{Type: EventState, Snapshot: &snapshot, SecondsLeft: snapshot.SecondsLeft})
}

// publishLocked fans the event out without blocking on slow subscribers:
// when a buffer is full the oldest pending event is dropped in its favor.
func (s *Session) publishLocked(ev Event) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
