package app

import (
	"sync"
	"time"

	"casper-learning/internal/domain"
)

// Session is one learner's attempt at one quiz.
//
// Intents (select, validate, advance, retry) move the session through
// in_progress -> answered_pending -> explained -> in_progress(index+1) or
// completed. Retry returns to in_progress(0) from any phase. Every retry
// bumps the attempt counter so results of work started by an older attempt
// (a badge mint) can be recognised and dropped.
type Session struct {
	id       string
	moduleID string
	quiz     domain.Quiz
	now      func() time.Time

	mu          sync.RWMutex
	attempt     int
	index       int
	selected    int
	hasSelected bool
	answers     []int
	explained   bool
	completed   bool
	score       int
	correct     int
	completedAt time.Time
	saved       bool
	mint        domain.MintStatus
	receipt     string
	closed      bool
	subscribers map[chan domain.SessionState]struct{}
}

// completion is handed to the service when the last answer was advanced past.
type completion struct {
	attempt int
	record  domain.ProgressRecord
}

// NewSession is exported for infrastructure layers and tests that need to seed sessions.
func NewSession(id, moduleID string, quiz domain.Quiz) *Session {
	return newSessionWithClock(id, moduleID, quiz, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id, moduleID string, quiz domain.Quiz, now func() time.Time) *Session {
	return newSessionWithClock(id, moduleID, quiz, now)
}

func newSessionWithClock(id, moduleID string, quiz domain.Quiz, now func() time.Time) *Session {
	return &Session{
		id:          id,
		moduleID:    moduleID,
		quiz:        quiz,
		now:         now,
		answers:     make([]int, 0, len(quiz.Questions)),
		mint:        domain.MintNone,
		subscribers: make(map[chan domain.SessionState]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Closed reports whether the session was discarded.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Session) selectAnswer(option int) (domain.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed || s.explained {
		return s.snapshotLocked(), domain.ErrInvalidInput
	}
	if option < 0 || option >= len(s.quiz.Questions[s.index].Options) {
		return s.snapshotLocked(), domain.ErrInvalidInput
	}
	s.selected = option
	s.hasSelected = true
	return s.broadcastLocked(), nil
}

func (s *Session) validateAnswer() (domain.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed || s.explained || !s.hasSelected {
		return s.snapshotLocked(), domain.ErrInvalidInput
	}
	// The selection stays highlighted until advance.
	s.answers = append(s.answers, s.selected)
	s.explained = true
	return s.broadcastLocked(), nil
}

func (s *Session) advance() (domain.SessionState, *completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed || !s.explained {
		return s.snapshotLocked(), nil, domain.ErrInvalidInput
	}

	if s.index < len(s.quiz.Questions)-1 {
		s.index++
		s.hasSelected = false
		s.selected = 0
		s.explained = false
		return s.broadcastLocked(), nil, nil
	}

	// Answers were appended on validate, so the final answer is already scored here.
	s.correct = domain.CountCorrect(s.quiz, s.answers)
	s.score = domain.Score(s.correct, len(s.quiz.Questions))
	s.completed = true
	s.completedAt = s.now()

	answers := make([]int, len(s.answers))
	copy(answers, s.answers)
	done := &completion{
		attempt: s.attempt,
		record: domain.ProgressRecord{
			ModuleID:    s.moduleID,
			QuizID:      s.quiz.ID,
			Score:       s.score,
			CompletedAt: s.completedAt,
			Answers:     answers,
		},
	}
	return s.snapshotLocked(), done, nil
}

func (s *Session) retry() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempt++
	s.index = 0
	s.selected = 0
	s.hasSelected = false
	s.answers = s.answers[:0]
	s.explained = false
	s.completed = false
	s.score = 0
	s.correct = 0
	s.completedAt = time.Time{}
	s.saved = false
	s.mint = domain.MintNone
	s.receipt = ""
	return s.broadcastLocked()
}

// markSaved records the outcome of the progress write for the given attempt.
func (s *Session) markSaved(attempt int, saved bool) domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt == s.attempt {
		s.saved = saved
	}
	return s.broadcastLocked()
}

// setMint updates the mint status unless the session was discarded or retried
// since the mint was requested. It reports whether the update was applied.
func (s *Session) setMint(attempt int, status domain.MintStatus, receipt string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || attempt != s.attempt {
		return false
	}
	s.mint = status
	s.receipt = receipt
	s.broadcastLocked()
	return true
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) subscribe() (<-chan domain.SessionState, func()) {
	ch := make(chan domain.SessionState, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

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

func (s *Session) broadcastLocked() domain.SessionState {
	state := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- state:
		default:
			// Slow subscriber: drop its stale state in favour of the newest one.
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
	return state
}

func (s *Session) snapshotLocked() domain.SessionState {
	answers := make([]int, len(s.answers))
	copy(answers, s.answers)

	state := domain.SessionState{
		SessionID:     s.id,
		ModuleID:      s.moduleID,
		QuizID:        s.quiz.ID,
		Phase:         s.phaseLocked(),
		Index:         s.index,
		Total:         len(s.quiz.Questions),
		Answers:       answers,
		Completed:     s.completed,
		ProgressSaved: s.saved,
		Mint:          s.mint,
		MintReceipt:   s.receipt,
	}
	if s.hasSelected {
		selected := s.selected
		state.Selected = &selected
	}
	if s.completed {
		state.Score = s.score
		state.CorrectCount = s.correct
		state.Tier = domain.TierFor(s.score)
		return state
	}

	q := s.quiz.Questions[s.index]
	view := &domain.QuestionView{
		ID:         q.ID,
		Prompt:     q.Prompt,
		Options:    append([]string(nil), q.Options...),
		Difficulty: q.Difficulty,
	}
	if s.explained {
		correct := q.CorrectAnswer
		view.CorrectAnswer = &correct
		view.Explanation = q.Explanation
	}
	state.Question = view
	return state
}

func (s *Session) phaseLocked() domain.Phase {
	switch {
	case s.completed:
		return domain.PhaseCompleted
	case s.explained:
		return domain.PhaseExplained
	case s.hasSelected:
		return domain.PhaseAnsweredPending
	default:
		return domain.PhaseInProgress
	}
}
