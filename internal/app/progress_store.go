package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"casper-learning/internal/domain"
)

// Keys of the namespaced local store.
const (
	ProgressKey = "casper-learning-progress"
	WalletKey   = "casper-wallet-state"
	LanguageKey = "casper-learning-language"
)

// MintedBadgesKey is where the mint receipts of one account are kept.
func MintedBadgesKey(accountHash string) string {
	return "badges-" + accountHash
}

// KeyValueStore abstracts the local persistence backend (SQLite file, Redis, in-memory).
// Get reports found=false for a missing key; that is not an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// ProgressStore keeps one ProgressRecord per (moduleID, quizID) as a JSON
// array under ProgressKey. Unreadable or corrupted data reads as empty.
type ProgressStore struct {
	kv KeyValueStore
	mu sync.Mutex
}

func NewProgressStore(kv KeyValueStore) *ProgressStore {
	return &ProgressStore{kv: kv}
}

// Upsert replaces the record for the same (moduleID, quizID) or appends it.
// A failed read aborts the write so the stored history is never replaced by
// a partial one.
func (s *ProgressStore) Upsert(ctx context.Context, record domain.ProgressRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.Answers = append([]int(nil), record.Answers...)
	records, err := s.loadForWriteLocked(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range records {
		if records[i].ModuleID == record.ModuleID && records[i].QuizID == record.QuizID {
			records[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, record)
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if err := s.kv.Set(ctx, ProgressKey, string(data)); err != nil {
		return fmt.Errorf("%w: save progress: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// GetByQuiz returns the record for the pair, or found=false.
func (s *ProgressStore) GetByQuiz(ctx context.Context, moduleID, quizID string) (domain.ProgressRecord, bool) {
	for _, r := range s.GetAll(ctx) {
		if r.ModuleID == moduleID && r.QuizID == quizID {
			return r, true
		}
	}
	return domain.ProgressRecord{}, false
}

// GetAll returns every record in insertion order.
func (s *ProgressStore) GetAll(ctx context.Context) []domain.ProgressRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *ProgressStore) loadForWriteLocked(ctx context.Context) ([]domain.ProgressRecord, error) {
	raw, found, err := s.kv.Get(ctx, ProgressKey)
	if err != nil {
		return nil, fmt.Errorf("%w: load progress: %v", domain.ErrStorageUnavailable, err)
	}
	if !found || raw == "" {
		return nil, nil
	}
	var records []domain.ProgressRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		slog.Warn("progress data corrupted, overwriting", "error", err)
		return nil, nil
	}
	return records, nil
}

func (s *ProgressStore) loadLocked(ctx context.Context) []domain.ProgressRecord {
	raw, found, err := s.kv.Get(ctx, ProgressKey)
	if err != nil {
		slog.Warn("progress store unavailable, treating history as empty", "error", err)
		return []domain.ProgressRecord{}
	}
	if !found || raw == "" {
		return []domain.ProgressRecord{}
	}
	var records []domain.ProgressRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		slog.Warn("progress data corrupted, treating history as empty", "error", err)
		return []domain.ProgressRecord{}
	}
	if records == nil {
		records = []domain.ProgressRecord{}
	}
	return records
}
