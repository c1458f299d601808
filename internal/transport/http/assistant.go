package http

import (
	"encoding/json"
	"net/http"

	"casper-learning/internal/assistant"
	"casper-learning/internal/domain"
	"casper-learning/internal/i18n"
)

type searchView struct {
	Results []assistant.Passage `json:"results"`
	Total   int                 `json:"total"`
}

// handleAsk answers in the request language.
func (a *API) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req assistant.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, r, domain.ErrInvalidInput, "")
		return
	}
	answer, err := a.assistant.Ask(r.Context(), req, i18n.Language(r.Context()))
	if err != nil {
		a.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req assistant.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, r, domain.ErrInvalidInput, "")
		return
	}
	results, err := a.assistant.Search(r.Context(), req)
	if err != nil {
		a.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, searchView{Results: results, Total: len(results)})
}

func (a *API) handleAssistantStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.assistant.Stats(r.Context())
	if err != nil {
		a.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
