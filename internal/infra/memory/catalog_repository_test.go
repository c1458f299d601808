package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"casper-learning/internal/domain"
)

func TestCatalogRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		CatalogLoader: NewStaticCatalogLoader(sampleCatalog()),
	}
	repo := NewCatalogRepository(loader, time.Minute)

	if _, err := repo.Modules(context.Background()); err != nil {
		t.Fatalf("modules: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	modules, err := repo.Modules(context.Background())
	if err != nil {
		t.Fatalf("modules 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if len(modules) != 1 || modules[0].ID != "casper-basics" {
		t.Fatalf("unexpected modules %+v", modules)
	}
}

func TestCatalogRepositoryExpires(t *testing.T) {
	loader := &countingLoader{CatalogLoader: NewStaticCatalogLoader(sampleCatalog())}
	repo := NewCatalogRepository(loader, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.Modules(context.Background())
	now = now.Add(2 * time.Minute)
	_, _ = repo.Modules(context.Background())
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", loader.calls)
	}
}

func TestCatalogRepositoryDoesNotCacheErrors(t *testing.T) {
	loader := &failingLoader{err: errors.New("boom")}
	repo := NewCatalogRepository(loader, time.Minute)

	if _, err := repo.Modules(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := repo.Modules(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if loader.calls != 2 {
		t.Fatalf("expected loader retried, calls %d", loader.calls)
	}
}

type countingLoader struct {
	CatalogLoader
	calls int
}

func (l *countingLoader) LoadCatalog(ctx context.Context) ([]domain.Module, error) {
	l.calls++
	return l.CatalogLoader.LoadCatalog(ctx)
}

type failingLoader struct {
	err   error
	calls int
}

func (l *failingLoader) LoadCatalog(context.Context) ([]domain.Module, error) {
	l.calls++
	return nil, l.err
}

func sampleCatalog() []domain.Module {
	return []domain.Module{
		{
			ID:    "casper-basics",
			Title: "Casper Basics",
			Quizzes: []domain.Quiz{
				{
					ID:         "intro-casper",
					Title:      "Intro",
					Difficulty: domain.DifficultyBeginner,
					Questions: []domain.Question{
						{
							ID:            "q1",
							Prompt:        "What is the native token of Casper?",
							Options:       []string{"ETH", "CSPR"},
							CorrectAnswer: 1,
							Difficulty:    domain.DifficultyBeginner,
						},
					},
				},
			},
		},
	}
}
