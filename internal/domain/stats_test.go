package domain

import (
	"testing"
	"time"
)

func sampleModules() []Module {
	return []Module{
		{
			ID:    "casper-basics",
			Title: "Casper Basics",
			Quizzes: []Quiz{
				{ID: "intro-casper", Title: "Intro", BadgeIcon: "🌟", EstimatedTime: 5},
				{ID: "accounts-keys", Title: "Accounts", EstimatedTime: 10},
			},
		},
		{
			ID:      "staking",
			Title:   "Staking",
			Quizzes: []Quiz{{ID: "staking-basics", Title: "Staking Basics"}},
		},
	}
}

func TestScoreRounding(t *testing.T) {
	tests := []struct {
		correct, total, want int
	}{
		{3, 3, 100},
		{2, 3, 67},
		{1, 3, 33},
		{4, 5, 80},
		{0, 4, 0},
		{1, 8, 13}, // 12.5 rounds half up
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := Score(tt.correct, tt.total); got != tt.want {
			t.Errorf("Score(%d, %d) = %d, want %d", tt.correct, tt.total, got, tt.want)
		}
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		score int
		want  ResultTier
	}{
		{100, TierExcellent},
		{80, TierExcellent},
		{79, TierGood},
		{60, TierGood},
		{59, TierKeepLearning},
		{0, TierKeepLearning},
	}
	for _, tt := range tests {
		if got := TierFor(tt.score); got != tt.want {
			t.Errorf("TierFor(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestDeriveBadges(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	records := []ProgressRecord{
		{ModuleID: "casper-basics", QuizID: "intro-casper", Score: 100, CompletedAt: now},
		{ModuleID: "casper-basics", QuizID: "accounts-keys", Score: 80, CompletedAt: now},
		{ModuleID: "staking", QuizID: "staking-basics", Score: 79, CompletedAt: now},
		{ModuleID: "gone", QuizID: "gone-quiz", Score: 90, CompletedAt: now},
	}

	badges := DeriveBadges(sampleModules(), records)
	if len(badges) != 3 {
		t.Fatalf("expected 3 badges, got %d", len(badges))
	}
	if badges[0].Icon != "🌟" || badges[0].Name != "Intro" || badges[0].ModuleTitle != "Casper Basics" {
		t.Fatalf("unexpected first badge %+v", badges[0])
	}
	if badges[1].Icon != DefaultBadgeIcon {
		t.Fatalf("expected default icon, got %q", badges[1].Icon)
	}
	if badges[2].Name != "Quiz" || badges[2].ModuleTitle != "Module" {
		t.Fatalf("expected placeholder names for unknown quiz, got %+v", badges[2])
	}
}

func TestComputeStats(t *testing.T) {
	records := []ProgressRecord{
		{ModuleID: "casper-basics", QuizID: "intro-casper", Score: 100},
		{ModuleID: "staking", QuizID: "staking-basics", Score: 67},
		{ModuleID: "gone", QuizID: "gone-quiz", Score: 10},
	}

	stats := ComputeStats(sampleModules(), records)
	if stats.TotalQuizzes != 3 {
		t.Fatalf("expected 3 quizzes, got %d", stats.TotalQuizzes)
	}
	if stats.CompletedQuizzes != 2 {
		t.Fatalf("expected 2 completed, got %d", stats.CompletedQuizzes)
	}
	if stats.AverageScore != 84 {
		t.Fatalf("expected average 84, got %d", stats.AverageScore)
	}
	if len(stats.Badges) != 1 {
		t.Fatalf("expected 1 badge, got %d", len(stats.Badges))
	}

	empty := ComputeStats(sampleModules(), nil)
	if empty.AverageScore != 0 || empty.CompletedQuizzes != 0 || len(empty.Badges) != 0 {
		t.Fatalf("expected zero stats, got %+v", empty)
	}
}

func TestModuleEstimatedTime(t *testing.T) {
	if got := sampleModules()[0].EstimatedTime(); got != 15 {
		t.Fatalf("expected 15 minutes, got %d", got)
	}
}
