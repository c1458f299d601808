package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"casper-learning/internal/app"
	"casper-learning/internal/assistant"
	"casper-learning/internal/domain"
	"casper-learning/internal/i18n"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// API serves the read models and wallet/language actions of the learning app.
type API struct {
	quizzes   *app.QuizService
	wallet    *app.WalletService
	prefs     *app.Preferences
	assistant *assistant.Service
}

func NewAPI(quizzes *app.QuizService, wallet *app.WalletService, prefs *app.Preferences, assistant *assistant.Service) *API {
	return &API{quizzes: quizzes, wallet: wallet, prefs: prefs, assistant: assistant}
}

// NewRouter mounts the REST API under /api, the session socket at /ws and /healthz.
func NewRouter(api *API, ws *WSHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(i18n.Middleware(api.prefs, domain.IsSupportedLanguage))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)
	r.Route("/api", api.Routes)
	return r
}

func (a *API) Routes(r chi.Router) {
	r.Get("/modules", a.handleModules)
	r.Get("/modules/{moduleID}", a.handleModule)
	r.Get("/modules/{moduleID}/quizzes/{quizID}", a.handleQuiz)
	r.Get("/progress", a.handleProgress)
	r.Get("/stats", a.handleStats)
	r.Get("/badges", a.handleBadges)
	r.Get("/wallet", a.handleWallet)
	r.Post("/wallet/connect", a.handleWalletConnect)
	r.Post("/wallet/disconnect", a.handleWalletDisconnect)
	r.Get("/wallet/balance", a.handleWalletBalance)
	r.Get("/wallet/badges", a.handleWalletBadges)
	r.Get("/language", a.handleLanguage)
	r.Put("/language", a.handleSetLanguage)
	r.Post("/assistant/ask", a.handleAsk)
	r.Post("/assistant/search", a.handleSearch)
	r.Get("/assistant/stats", a.handleAssistantStats)
}

func (a *API) handleModules(w http.ResponseWriter, r *http.Request) {
	modules, err := a.quizzes.Modules(r.Context())
	if err != nil {
		a.writeError(w, r, err, "")
		return
	}
	progress := a.quizzes.Progress(r.Context())
	out := make([]moduleSummary, 0, len(modules))
	for _, m := range modules {
		out = append(out, a.summarizeModule(r, m, progress))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleModule(w http.ResponseWriter, r *http.Request) {
	moduleID := chi.URLParam(r, "moduleID")
	m, err := a.quizzes.Module(r.Context(), moduleID)
	if err != nil {
		a.writeError(w, r, err, moduleID)
		return
	}
	detail := moduleDetail{
		moduleSummary: a.summarizeModule(r, m, a.quizzes.Progress(r.Context())),
		Quizzes:       make([]quizSummary, 0, len(m.Quizzes)),
	}
	for _, q := range m.Quizzes {
		record, found := a.quizzes.QuizProgress(r.Context(), m.ID, q.ID)
		detail.Quizzes = append(detail.Quizzes, summarizeQuiz(q, record, found))
	}
	writeJSON(w, http.StatusOK, detail)
}

func (a *API) handleQuiz(w http.ResponseWriter, r *http.Request) {
	moduleID := chi.URLParam(r, "moduleID")
	quizID := chi.URLParam(r, "quizID")
	q, err := a.quizzes.Quiz(r.Context(), moduleID, quizID)
	if err != nil {
		a.writeError(w, r, err, moduleID)
		return
	}
	record, found := a.quizzes.QuizProgress(r.Context(), moduleID, quizID)
	writeJSON(w, http.StatusOK, summarizeQuiz(q, record, found))
}

func (a *API) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.quizzes.Progress(r.Context()))
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.quizzes.Stats(r.Context())
	if err != nil {
		a.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := a.quizzes.Badges(r.Context())
	if err != nil {
		a.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, badges)
}

func (a *API) handleWallet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, walletView{WalletIdentity: a.wallet.Identity(), Balance: a.wallet.CachedBalance()})
}

func (a *API) handleWalletConnect(w http.ResponseWriter, r *http.Request) {
	identity, err := a.wallet.Connect(r.Context())
	if err != nil {
		a.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, walletView{WalletIdentity: identity, Balance: a.wallet.CachedBalance()})
}

func (a *API) handleWalletDisconnect(w http.ResponseWriter, r *http.Request) {
	a.wallet.Disconnect(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleWalletBalance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"balance": a.wallet.RefreshBalance(r.Context())})
}

func (a *API) handleWalletBadges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.wallet.MintedBadges(r.Context()))
}

func (a *API) handleLanguage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, languageView{Language: a.prefs.Language(r.Context()), Supported: domain.SupportedLanguages})
}

func (a *API) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.writeError(w, r, domain.ErrInvalidInput, "")
		return
	}
	if err := a.prefs.SetLanguage(r.Context(), body.Language); err != nil {
		a.writeError(w, r, err, "")
		return
	}
	// Answer in the newly selected language.
	lang := a.prefs.Language(r.Context())
	ctx := i18n.WithLocalizer(r.Context(), i18n.NewLocalizer(lang))
	writeJSON(w, http.StatusOK, map[string]any{
		"language":  lang,
		"supported": domain.SupportedLanguages,
		"title":     i18n.T(ctx, "AppSubtitle"),
	})
}

func (a *API) summarizeModule(r *http.Request, m domain.Module, progress []domain.ProgressRecord) moduleSummary {
	completed := 0
	for _, rec := range progress {
		if rec.ModuleID != m.ID {
			continue
		}
		if _, ok := m.Quiz(rec.QuizID); ok {
			completed++
		}
	}
	return moduleSummary{
		ID:            m.ID,
		Title:         m.Title,
		Description:   m.Description,
		Icon:          m.Icon,
		Order:         m.Order,
		QuizCount:     len(m.Quizzes),
		QuizLabel:     i18n.Tp(r.Context(), "QuizCount", len(m.Quizzes)),
		Completed:     completed,
		EstimatedTime: m.EstimatedTime(),
	}
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error, moduleID string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("api request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorFor(r.Context(), err, moduleID))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response", "error", err)
	}
}
