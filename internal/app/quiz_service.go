package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"casper-learning/internal/domain"
	"github.com/google/uuid"
)

// defaultMintTimeout bounds a badge mint that outlives the request that triggered it.
const defaultMintTimeout = 30 * time.Second

// SessionRepository abstracts where active quiz sessions live (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// CatalogRepository loads the module catalog (from cache/backing store).
type CatalogRepository interface {
	Modules(ctx context.Context) ([]domain.Module, error)
}

// QuizService contains the quiz use cases: catalog lookups, session intents,
// progress persistence and the best-effort badge mint on completion.
type QuizService struct {
	sessions SessionRepository
	catalog  CatalogRepository
	progress *ProgressStore
	wallet   *WalletService

	newID       func() string
	mintTimeout time.Duration
	mints       sync.WaitGroup
}

// NewQuizService wires the service. wallet may be nil, which disables minting.
func NewQuizService(sessions SessionRepository, catalog CatalogRepository, progress *ProgressStore, wallet *WalletService) *QuizService {
	return &QuizService{
		sessions:    sessions,
		catalog:     catalog,
		progress:    progress,
		wallet:      wallet,
		newID:       uuid.NewString,
		mintTimeout: defaultMintTimeout,
	}
}

// Modules returns the catalog sorted by module order.
func (s *QuizService) Modules(ctx context.Context) ([]domain.Module, error) {
	modules, err := s.catalog.Modules(ctx)
	if err != nil {
		return nil, err
	}
	sorted := append([]domain.Module(nil), modules...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	return sorted, nil
}

// Module returns one module or ErrModuleNotFound.
func (s *QuizService) Module(ctx context.Context, moduleID string) (domain.Module, error) {
	modules, err := s.catalog.Modules(ctx)
	if err != nil {
		return domain.Module{}, err
	}
	for _, m := range modules {
		if m.ID == moduleID {
			return m, nil
		}
	}
	return domain.Module{}, fmt.Errorf("%w: %s", domain.ErrModuleNotFound, moduleID)
}

// Quiz returns one quiz of a module or a catalog not-found error.
func (s *QuizService) Quiz(ctx context.Context, moduleID, quizID string) (domain.Quiz, error) {
	m, err := s.Module(ctx, moduleID)
	if err != nil {
		return domain.Quiz{}, err
	}
	q, ok := m.Quiz(quizID)
	if !ok {
		return domain.Quiz{}, fmt.Errorf("%w: %s/%s", domain.ErrQuizNotFound, moduleID, quizID)
	}
	return q, nil
}

// Start opens a new session on a quiz.
func (s *QuizService) Start(ctx context.Context, moduleID, quizID string) (domain.SessionState, error) {
	quiz, err := s.Quiz(ctx, moduleID, quizID)
	if err != nil {
		return domain.SessionState{}, err
	}
	// Empty quizzes are rejected when the catalog loads; guard anyway since a
	// session cannot represent one.
	if len(quiz.Questions) == 0 {
		return domain.SessionState{}, fmt.Errorf("%w: quiz %s has no questions", domain.ErrInvalidCatalog, quizID)
	}

	session := NewSession(s.newID(), moduleID, quiz)
	s.sessions.Save(session)
	return session.Snapshot(), nil
}

// State returns the current snapshot of a session.
func (s *QuizService) State(_ context.Context, sessionID string) (domain.SessionState, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// SelectAnswer sets the pending selection. Invalid intents return the
// unchanged state together with ErrInvalidInput.
func (s *QuizService) SelectAnswer(_ context.Context, sessionID string, option int) (domain.SessionState, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	return session.selectAnswer(option)
}

// ValidateAnswer confirms the pending selection and reveals the explanation.
func (s *QuizService) ValidateAnswer(_ context.Context, sessionID string) (domain.SessionState, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	return session.validateAnswer()
}

// Advance moves to the next question, or completes the quiz. On completion
// the progress record is written before this returns; a badge mint, when
// earned and a wallet is connected, runs in the background afterwards.
func (s *QuizService) Advance(ctx context.Context, sessionID string) (domain.SessionState, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	state, done, err := session.advance()
	if err != nil || done == nil {
		return state, err
	}

	saved := true
	if err := s.progress.Upsert(ctx, done.record); err != nil {
		saved = false
		slog.Error("save progress failed, score kept in session only",
			"module_id", done.record.ModuleID, "quiz_id", done.record.QuizID, "score", done.record.Score, "error", err)
	}
	state = session.markSaved(done.attempt, saved)

	if !done.record.EarnsBadge() || s.wallet == nil {
		return state, nil
	}
	identity := s.wallet.Identity()
	if !identity.Connected {
		return state, nil
	}
	if session.setMint(done.attempt, domain.MintPending, "") {
		state = session.Snapshot()
		s.mints.Add(1)
		go s.mint(session, done, identity.PublicKey)
	}
	return state, nil
}

func (s *QuizService) mint(session *Session, done *completion, publicKey string) {
	defer s.mints.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.mintTimeout)
	defer cancel()

	subject := done.record.ModuleID + "/" + done.record.QuizID
	receipt, err := s.wallet.MintBadge(ctx, publicKey, subject, done.record.Score)
	status := domain.MintMinted
	if err != nil {
		status = domain.MintFailed
		slog.Warn("badge not minted", "subject", subject, "score", done.record.Score, "error", err)
	}
	if !session.setMint(done.attempt, status, receipt) {
		slog.Debug("ignoring mint result for discarded or retried session", "session_id", session.ID(), "status", status)
	}
}

// Retry resets the session to the first question. Saved progress is untouched.
func (s *QuizService) Retry(_ context.Context, sessionID string) (domain.SessionState, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	return session.retry(), nil
}

// Subscribe returns a channel that receives session state updates.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan domain.SessionState, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Discard drops the session; late mint results for it are ignored.
func (s *QuizService) Discard(_ context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.close()
	s.sessions.Delete(sessionID)
}

// Wait blocks until background mints have finished.
func (s *QuizService) Wait() {
	s.mints.Wait()
}

// Progress returns every saved record.
func (s *QuizService) Progress(ctx context.Context) []domain.ProgressRecord {
	return s.progress.GetAll(ctx)
}

// QuizProgress returns the saved record of a quiz, if any.
func (s *QuizService) QuizProgress(ctx context.Context, moduleID, quizID string) (domain.ProgressRecord, bool) {
	return s.progress.GetByQuiz(ctx, moduleID, quizID)
}

// Stats summarizes saved progress against the catalog.
func (s *QuizService) Stats(ctx context.Context) (domain.UserStats, error) {
	modules, err := s.catalog.Modules(ctx)
	if err != nil {
		return domain.UserStats{}, err
	}
	return domain.ComputeStats(modules, s.progress.GetAll(ctx)), nil
}

// Badges derives the earned badges from saved progress.
func (s *QuizService) Badges(ctx context.Context) ([]domain.Badge, error) {
	modules, err := s.catalog.Modules(ctx)
	if err != nil {
		return nil, err
	}
	return domain.DeriveBadges(modules, s.progress.GetAll(ctx)), nil
}
