package domain

import "math"

// DeriveBadges lists a badge for every record at or above the threshold,
// resolving names and icons against the catalog. Records whose quiz is no
// longer in the catalog keep a badge with placeholder names.
func DeriveBadges(modules []Module, records []ProgressRecord) []Badge {
	badges := make([]Badge, 0, len(records))
	for _, r := range records {
		if !r.EarnsBadge() {
			continue
		}
		badge := Badge{
			ModuleID:    r.ModuleID,
			QuizID:      r.QuizID,
			Name:        "Quiz",
			ModuleTitle: "Module",
			Icon:        DefaultBadgeIcon,
			Score:       r.Score,
			EarnedAt:    r.CompletedAt,
		}
		if m, ok := findModule(modules, r.ModuleID); ok {
			badge.ModuleTitle = m.Title
			if q, ok := m.Quiz(r.QuizID); ok {
				badge.Name = q.Title
				badge.Icon = q.Icon()
			}
		}
		badges = append(badges, badge)
	}
	return badges
}

// ComputeStats summarizes records against the catalog. Only records that
// match a catalog quiz count towards completion and the average.
func ComputeStats(modules []Module, records []ProgressRecord) UserStats {
	stats := UserStats{Badges: DeriveBadges(modules, records)}
	for _, m := range modules {
		stats.TotalQuizzes += len(m.Quizzes)
	}

	sum := 0
	for _, r := range records {
		m, ok := findModule(modules, r.ModuleID)
		if !ok {
			continue
		}
		if _, ok := m.Quiz(r.QuizID); !ok {
			continue
		}
		stats.CompletedQuizzes++
		sum += r.Score
	}
	if stats.CompletedQuizzes > 0 {
		stats.AverageScore = int(math.Round(float64(sum) / float64(stats.CompletedQuizzes)))
	}
	return stats
}

func findModule(modules []Module, id string) (Module, bool) {
	for _, m := range modules {
		if m.ID == id {
			return m, true
		}
	}
	return Module{}, false
}
