package domain

import "time"

// BadgeThreshold is the minimum score (inclusive) that earns a badge.
const BadgeThreshold = 80

// DefaultBadgeIcon is rendered for quizzes that do not define their own glyph.
const DefaultBadgeIcon = "🏆"

// Difficulty tags questions and quizzes.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID            string     `json:"id" yaml:"id" validate:"required"`
	Prompt        string     `json:"question" yaml:"question" validate:"required"`
	Options       []string   `json:"options" yaml:"options" validate:"min=2,dive,required"`
	CorrectAnswer int        `json:"correctAnswer" yaml:"correctAnswer" validate:"gte=0"`
	Explanation   string     `json:"explanation" yaml:"explanation"`
	Difficulty    Difficulty `json:"difficulty" yaml:"difficulty" validate:"oneof=beginner intermediate advanced"`
}

// IsCorrect reports whether option is the correct answer.
func (q Question) IsCorrect(option int) bool {
	return option == q.CorrectAnswer
}

// Quiz is an ordered, non-empty collection of questions.
type Quiz struct {
	ID            string     `json:"id" yaml:"id" validate:"required"`
	Title         string     `json:"title" yaml:"title" validate:"required"`
	Description   string     `json:"description" yaml:"description"`
	Questions     []Question `json:"questions" yaml:"questions" validate:"min=1,dive"`
	Category      string     `json:"category" yaml:"category"`
	Difficulty    Difficulty `json:"difficulty" yaml:"difficulty" validate:"oneof=beginner intermediate advanced"`
	EstimatedTime int        `json:"estimatedTime" yaml:"estimatedTime" validate:"gte=0"` // minutes
	BadgeIcon     string     `json:"badgeIcon,omitempty" yaml:"badgeIcon,omitempty"`
}

// Icon returns the badge glyph for the quiz.
func (q Quiz) Icon() string {
	if q.BadgeIcon == "" {
		return DefaultBadgeIcon
	}
	return q.BadgeIcon
}

// Module groups quizzes by theme.
type Module struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	Title       string `json:"title" yaml:"title" validate:"required"`
	Description string `json:"description" yaml:"description"`
	Icon        string `json:"icon" yaml:"icon"`
	Quizzes     []Quiz `json:"quizzes" yaml:"quizzes" validate:"dive"`
	Order       int    `json:"order" yaml:"order"`
}

// Quiz looks up a quiz of the module by id.
func (m Module) Quiz(quizID string) (Quiz, bool) {
	for _, q := range m.Quizzes {
		if q.ID == quizID {
			return q, true
		}
	}
	return Quiz{}, false
}

// EstimatedTime sums the estimated minutes of every quiz in the module.
func (m Module) EstimatedTime() int {
	total := 0
	for _, q := range m.Quizzes {
		total += q.EstimatedTime
	}
	return total
}

// ProgressRecord is the persisted outcome of the latest completed attempt of a quiz.
type ProgressRecord struct {
	ModuleID    string    `json:"moduleId"`
	QuizID      string    `json:"quizId"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completedAt"`
	Answers     []int     `json:"answers"`
}

// EarnsBadge reports whether the record qualifies for a badge.
func (r ProgressRecord) EarnsBadge() bool {
	return r.Score >= BadgeThreshold
}

// WalletIdentity is the connected wallet snapshot.
type WalletIdentity struct {
	Connected   bool   `json:"connected"`
	PublicKey   string `json:"publicKey,omitempty"`
	AccountHash string `json:"accountHash,omitempty"`
}

// Badge is derived from a ProgressRecord that reached the threshold.
type Badge struct {
	ModuleID    string    `json:"moduleId"`
	QuizID      string    `json:"quizId"`
	Name        string    `json:"name"`
	ModuleTitle string    `json:"moduleTitle"`
	Icon        string    `json:"icon"`
	Score       int       `json:"score"`
	EarnedAt    time.Time `json:"earnedAt"`
}

// MintedBadge is the receipt of a completed badge mint, kept per account.
type MintedBadge struct {
	SubjectID string    `json:"subjectId"`
	Score     int       `json:"score"`
	Receipt   string    `json:"receipt"`
	MintedAt  time.Time `json:"mintedAt"`
}

// UserStats summarizes the learner's progress across the catalog.
type UserStats struct {
	TotalQuizzes     int     `json:"totalQuizzes"`
	CompletedQuizzes int     `json:"completedQuizzes"`
	AverageScore     int     `json:"averageScore"`
	Badges           []Badge `json:"badges"`
}

// DefaultLanguage is used until the learner picks another supported language.
const DefaultLanguage = "en"

// SupportedLanguages lists the UI languages with string tables.
var SupportedLanguages = []string{"en", "fr"}

// IsSupportedLanguage reports whether lang has a string table.
func IsSupportedLanguage(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}
