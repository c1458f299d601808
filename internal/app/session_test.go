package app

import (
	"errors"
	"testing"
	"time"

	"casper-learning/internal/domain"
)

// threeQuestionQuiz has correct answers at indices [1, 0, 2].
func threeQuestionQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-3",
		Title: "Three",
		Questions: []domain.Question{
			{ID: "q1", Prompt: "one", Options: []string{"a", "b", "c"}, CorrectAnswer: 1, Explanation: "b"},
			{ID: "q2", Prompt: "two", Options: []string{"a", "b", "c"}, CorrectAnswer: 0, Explanation: "a"},
			{ID: "q3", Prompt: "three", Options: []string{"a", "b", "c"}, CorrectAnswer: 2, Explanation: "c"},
		},
	}
}

func playAll(t *testing.T, s *Session, answers []int) (domain.SessionState, *completion) {
	t.Helper()
	var (
		state domain.SessionState
		done  *completion
		err   error
	)
	for _, a := range answers {
		if _, err = s.selectAnswer(a); err != nil {
			t.Fatalf("select %d: %v", a, err)
		}
		if _, err = s.validateAnswer(); err != nil {
			t.Fatalf("validate: %v", err)
		}
		if state, done, err = s.advance(); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	return state, done
}

func TestSessionScoring(t *testing.T) {
	tests := []struct {
		name    string
		answers []int
		score   int
		correct int
	}{
		{"all correct", []int{1, 0, 2}, 100, 3},
		{"two of three", []int{1, 1, 2}, 67, 2},
		{"one of three", []int{1, 1, 1}, 33, 1},
		{"none", []int{0, 2, 0}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession("s", "m", threeQuestionQuiz())
			state, done := playAll(t, s, tt.answers)
			if !state.Completed || state.Phase != domain.PhaseCompleted {
				t.Fatalf("expected completed, got %+v", state)
			}
			if state.Score != tt.score || state.CorrectCount != tt.correct {
				t.Fatalf("score=%d correct=%d, want %d/%d", state.Score, state.CorrectCount, tt.score, tt.correct)
			}
			if done == nil || done.record.Score != tt.score || len(done.record.Answers) != 3 {
				t.Fatalf("unexpected completion %+v", done)
			}
		})
	}
}

func TestSessionTransitions(t *testing.T) {
	s := NewSession("s", "m", threeQuestionQuiz())
	if got := s.Snapshot().Phase; got != domain.PhaseInProgress {
		t.Fatalf("initial phase %s", got)
	}

	state, _ := s.selectAnswer(2)
	if state.Phase != domain.PhaseAnsweredPending || *state.Selected != 2 {
		t.Fatalf("expected pending selection 2, got %+v", state)
	}
	if state.Question.CorrectAnswer != nil || state.Question.Explanation != "" {
		t.Fatalf("answer must stay hidden before validation")
	}

	// A new selection replaces the pending one.
	state, _ = s.selectAnswer(1)
	if *state.Selected != 1 {
		t.Fatalf("expected selection 1, got %d", *state.Selected)
	}

	state, _ = s.validateAnswer()
	if state.Phase != domain.PhaseExplained || state.Selected == nil || *state.Selected != 1 {
		t.Fatalf("selection should stay highlighted after validate, got %+v", state)
	}
	if *state.Question.CorrectAnswer != 1 || state.Question.Explanation != "b" {
		t.Fatalf("expected explanation revealed, got %+v", state.Question)
	}
	if len(state.Answers) != 1 || state.Answers[0] != 1 {
		t.Fatalf("expected answer appended on validate, got %v", state.Answers)
	}

	state, done, err := s.advance()
	if err != nil || done != nil {
		t.Fatalf("advance mid-quiz: done=%v err=%v", done, err)
	}
	if state.Index != 1 || state.Selected != nil || state.Phase != domain.PhaseInProgress {
		t.Fatalf("expected fresh question 2, got %+v", state)
	}
}

func TestSessionGuardedNoOps(t *testing.T) {
	s := NewSession("s", "m", threeQuestionQuiz())
	before := s.Snapshot()

	cases := []struct {
		name string
		run  func() (domain.SessionState, error)
	}{
		{"validate without selection", s.validateAnswer},
		{"select negative", func() (domain.SessionState, error) { return s.selectAnswer(-1) }},
		{"select past options", func() (domain.SessionState, error) { return s.selectAnswer(3) }},
		{"advance before validate", func() (domain.SessionState, error) {
			state, _, err := s.advance()
			return state, err
		}},
	}
	for _, c := range cases {
		state, err := c.run()
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", c.name, err)
		}
		if state.Phase != before.Phase || state.Selected != nil || len(state.Answers) != 0 || state.Index != 0 {
			t.Fatalf("%s: state changed: %+v", c.name, state)
		}
	}

	// Selecting after validation is rejected too.
	s.selectAnswer(0)
	s.validateAnswer()
	if _, err := s.selectAnswer(2); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected select after validate rejected, got %v", err)
	}
	if _, err := s.validateAnswer(); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected double validate rejected, got %v", err)
	}
	if got := s.Snapshot().Answers; len(got) != 1 {
		t.Fatalf("expected one confirmed answer, got %v", got)
	}
}

func TestSessionRetry(t *testing.T) {
	s := NewSessionWithClock("s", "m", threeQuestionQuiz(), func() time.Time { return time.Unix(1700000000, 0) })
	_, done := playAll(t, s, []int{1, 0, 2})
	if done.record.CompletedAt.Unix() != 1700000000 {
		t.Fatalf("expected clock timestamp, got %v", done.record.CompletedAt)
	}
	s.markSaved(done.attempt, true)
	s.setMint(done.attempt, domain.MintMinted, "receipt")

	state := s.retry()
	if state.Completed || state.Index != 0 || len(state.Answers) != 0 || state.Selected != nil {
		t.Fatalf("expected reset session, got %+v", state)
	}
	if state.Mint != domain.MintNone || state.MintReceipt != "" || state.ProgressSaved {
		t.Fatalf("expected mint and saved flags cleared, got %+v", state)
	}

	// Results for the previous attempt are ignored.
	if s.setMint(done.attempt, domain.MintFailed, "") {
		t.Fatalf("expected stale mint result dropped")
	}

	// Retry mid-question also resets.
	s.selectAnswer(1)
	s.validateAnswer()
	if state := s.retry(); state.Phase != domain.PhaseInProgress || len(state.Answers) != 0 {
		t.Fatalf("expected reset from explained, got %+v", state)
	}
}

func TestSessionCloseDropsLateResults(t *testing.T) {
	s := NewSession("s", "m", threeQuestionQuiz())
	_, done := playAll(t, s, []int{1, 0, 2})
	ch, _ := s.subscribe()
	<-ch

	s.close()
	if _, ok := <-ch; ok {
		t.Fatalf("expected subscriber channel closed")
	}
	if s.setMint(done.attempt, domain.MintMinted, "r") {
		t.Fatalf("expected mint result ignored after close")
	}
	if !s.Closed() {
		t.Fatalf("expected closed")
	}
	// Subscribing to a closed session yields a closed channel.
	late, cancel := s.subscribe()
	defer cancel()
	if _, ok := <-late; ok {
		t.Fatalf("expected closed channel")
	}
}

func TestSessionSubscribeReceivesUpdates(t *testing.T) {
	s := NewSession("s", "m", threeQuestionQuiz())
	ch, cancel := s.subscribe()
	defer cancel()

	if initial := <-ch; initial.Phase != domain.PhaseInProgress {
		t.Fatalf("unexpected initial %+v", initial)
	}
	s.selectAnswer(0)
	select {
	case update := <-ch:
		if update.Phase != domain.PhaseAnsweredPending {
			t.Fatalf("unexpected update %+v", update)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for update")
	}
}
