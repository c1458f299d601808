package http

import (
	"context"
	"errors"
	"net/http"

	"casper-learning/internal/domain"
	"casper-learning/internal/i18n"
)

var errUnsupportedMessage = errors.New("unsupported message type")

// errorBody is the payload of REST errors and websocket "error" frames. Back
// points to a screen that is known to exist.
type errorBody struct {
	Error string `json:"error"`
	Back  string `json:"back,omitempty"`
}

// errorFor maps a service error to a localized body. moduleID, when known to
// exist, makes a missing quiz link back to its module.
func errorFor(ctx context.Context, err error, moduleID string) errorBody {
	var langErr *domain.UnsupportedLanguageError
	switch {
	case errors.As(err, &langErr):
		return errorBody{Error: i18n.Td(ctx, "UnsupportedLanguage", map[string]any{"Lang": langErr.Lang})}
	case errors.Is(err, domain.ErrModuleNotFound):
		return errorBody{Error: i18n.T(ctx, "ModuleNotFound"), Back: "/"}
	case errors.Is(err, domain.ErrQuizNotFound):
		return errorBody{Error: i18n.T(ctx, "QuizNotFound"), Back: "/modules/" + moduleID}
	case errors.Is(err, domain.ErrSessionNotFound):
		return errorBody{Error: i18n.T(ctx, "SessionNotFound"), Back: "/"}
	case errors.Is(err, domain.ErrWalletUnavailable):
		return errorBody{Error: i18n.T(ctx, "WalletUnavailable")}
	case errors.Is(err, domain.ErrConnectionRejected):
		return errorBody{Error: i18n.T(ctx, "ConnectionRejected")}
	case errors.Is(err, domain.ErrStorageUnavailable):
		return errorBody{Error: i18n.T(ctx, "StorageUnavailable")}
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, errUnsupportedMessage):
		return errorBody{Error: i18n.T(ctx, "InvalidRequest")}
	case errors.Is(err, domain.ErrAssistantUnavailable):
		return errorBody{Error: i18n.T(ctx, "AssistantUnavailable")}
	case errors.Is(err, domain.ErrAssistantFailed):
		return errorBody{Error: i18n.T(ctx, "AssistantFailed")}
	default:
		return errorBody{Error: i18n.T(ctx, "InternalError"), Back: "/"}
	}
}

func statusFor(err error) int {
	switch {
	case domain.IsCatalogNotFound(err), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnsupportedLanguage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrWalletUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrConnectionRejected):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrStorageUnavailable), errors.Is(err, domain.ErrAssistantUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrAssistantFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// stateView is a session snapshot plus the localized strings of its screen.
type stateView struct {
	domain.SessionState
	Heading     string `json:"heading,omitempty"`
	Result      string `json:"result,omitempty"`
	Correct     string `json:"correct,omitempty"`
	MintMessage string `json:"mintMessage,omitempty"`
}

func newStateView(ctx context.Context, s domain.SessionState) stateView {
	v := stateView{SessionState: s}
	if !s.Completed {
		v.Heading = i18n.Td(ctx, "QuestionOf", map[string]any{"Index": s.Index + 1, "Total": s.Total})
		return v
	}
	v.Heading = i18n.T(ctx, "ResultsTitle")
	v.Correct = i18n.Tp(ctx, "CorrectAnswers", s.CorrectCount)
	switch s.Tier {
	case domain.TierExcellent:
		v.Result = i18n.T(ctx, "TierExcellent")
	case domain.TierGood:
		v.Result = i18n.T(ctx, "TierGood")
	default:
		v.Result = i18n.T(ctx, "TierKeepLearning")
	}
	switch s.Mint {
	case domain.MintPending:
		v.MintMessage = i18n.T(ctx, "MintPending")
	case domain.MintMinted:
		v.MintMessage = i18n.T(ctx, "MintMinted")
	case domain.MintFailed:
		v.MintMessage = i18n.T(ctx, "MintFailed")
	}
	return v
}

// moduleSummary is a module on the home screen.
type moduleSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Icon          string `json:"icon"`
	Order         int    `json:"order"`
	QuizCount     int    `json:"quizCount"`
	QuizLabel     string `json:"quizLabel"`
	Completed     int    `json:"completed"`
	EstimatedTime int    `json:"estimatedTime"`
}

// quizSummary describes a quiz without its answers.
type quizSummary struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Category      string            `json:"category"`
	Difficulty    domain.Difficulty `json:"difficulty"`
	EstimatedTime int               `json:"estimatedTime"`
	BadgeIcon     string            `json:"badgeIcon"`
	QuestionCount int               `json:"questionCount"`
	SavedScore    *int              `json:"savedScore,omitempty"`
}

type moduleDetail struct {
	moduleSummary
	Quizzes []quizSummary `json:"quizzes"`
}

func summarizeQuiz(q domain.Quiz, record domain.ProgressRecord, found bool) quizSummary {
	s := quizSummary{
		ID:            q.ID,
		Title:         q.Title,
		Description:   q.Description,
		Category:      q.Category,
		Difficulty:    q.Difficulty,
		EstimatedTime: q.EstimatedTime,
		BadgeIcon:     q.Icon(),
		QuestionCount: len(q.Questions),
	}
	if found {
		score := record.Score
		s.SavedScore = &score
	}
	return s
}

type walletView struct {
	domain.WalletIdentity
	Balance string `json:"balance"`
}

type languageView struct {
	Language  string   `json:"language"`
	Supported []string `json:"supported"`
}
