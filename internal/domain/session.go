package domain

import "math"

// Phase is the state of a quiz session.
type Phase string

const (
	PhaseInProgress      Phase = "in_progress"
	PhaseAnsweredPending Phase = "answered_pending"
	PhaseExplained       Phase = "explained"
	PhaseCompleted       Phase = "completed"
)

// MintStatus tracks the best-effort badge mint that may follow a completion.
type MintStatus string

const (
	MintNone    MintStatus = "none"
	MintPending MintStatus = "pending"
	MintMinted  MintStatus = "minted"
	MintFailed  MintStatus = "failed"
)

// ResultTier buckets a final score for the completion screen.
type ResultTier string

const (
	TierExcellent    ResultTier = "excellent"
	TierGood         ResultTier = "good"
	TierKeepLearning ResultTier = "keep_learning"
)

// TierFor returns the result tier of a score.
func TierFor(score int) ResultTier {
	switch {
	case score >= BadgeThreshold:
		return TierExcellent
	case score >= 60:
		return TierGood
	default:
		return TierKeepLearning
	}
}

// QuestionView is the current question as shown to the learner.
// CorrectAnswer and Explanation are only set once the answer was validated.
type QuestionView struct {
	ID            string     `json:"id"`
	Prompt        string     `json:"question"`
	Options       []string   `json:"options"`
	Difficulty    Difficulty `json:"difficulty"`
	CorrectAnswer *int       `json:"correctAnswer,omitempty"`
	Explanation   string     `json:"explanation,omitempty"`
}

// SessionState is a read-only snapshot of a quiz session.
type SessionState struct {
	SessionID     string        `json:"sessionId"`
	ModuleID      string        `json:"moduleId"`
	QuizID        string        `json:"quizId"`
	Phase         Phase         `json:"phase"`
	Index         int           `json:"index"`
	Total         int           `json:"total"`
	Question      *QuestionView `json:"question,omitempty"`
	Selected      *int          `json:"selected,omitempty"`
	Answers       []int         `json:"answers"`
	Completed     bool          `json:"completed"`
	Score         int           `json:"score"`
	CorrectCount  int           `json:"correctCount"`
	Tier          ResultTier    `json:"tier,omitempty"`
	ProgressSaved bool          `json:"progressSaved"`
	Mint          MintStatus    `json:"mint"`
	MintReceipt   string        `json:"mintReceipt,omitempty"`
}

// CountCorrect counts positions where answers match the quiz's correct options.
func CountCorrect(quiz Quiz, answers []int) int {
	correct := 0
	for i, a := range answers {
		if i < len(quiz.Questions) && quiz.Questions[i].IsCorrect(a) {
			correct++
		}
	}
	return correct
}

// Score computes round(100 * correct / total), rounding half away from zero.
func Score(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}
