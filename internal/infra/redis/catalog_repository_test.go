package redis

import (
	"context"
	"testing"
	"time"

	"casper-learning/internal/domain"
	"casper-learning/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestCatalogRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		CatalogLoader: memory.NewStaticCatalogLoader(sampleCatalog()),
	}
	repo := NewCatalogRepository(client, loader, "test:", time.Minute)

	modules, err := repo.Modules(context.Background())
	if err != nil {
		t.Fatalf("modules: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("test:catalog:modules") {
		t.Fatalf("expected catalog cached in redis")
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.Modules(context.Background())
	if err != nil {
		t.Fatalf("cached modules: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if len(cached) != len(modules) || cached[0].Quizzes[0].Questions[0].CorrectAnswer != 1 {
		t.Fatalf("cached catalog differs: %+v", cached)
	}
}

func TestCatalogRepositoryReloadsCorruptCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	_ = mr.Set("test:catalog:modules", "{not json")
	loader := &countingLoader{CatalogLoader: memory.NewStaticCatalogLoader(sampleCatalog())}
	repo := NewCatalogRepository(newClient(mr), loader, "test:", time.Minute)

	if _, err := repo.Modules(context.Background()); err != nil {
		t.Fatalf("modules: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected reload from loader, calls=%d", loader.calls)
	}
}

type countingLoader struct {
	memory.CatalogLoader
	calls int
}

func (l *countingLoader) LoadCatalog(ctx context.Context) ([]domain.Module, error) {
	l.calls++
	return l.CatalogLoader.LoadCatalog(ctx)
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

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
