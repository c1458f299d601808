// Package assistant answers learner questions with a language model grounded
// on passages retrieved from the learning catalog.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"casper-learning/internal/domain"
	"github.com/go-playground/validator/v10"
)

const (
	defaultContextSize = 5
	defaultResultSize  = 5
)

// Completer sends one system and user prompt pair to a language model.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Model() string
}

// CatalogSource supplies the modules the index is built from.
type CatalogSource interface {
	Modules(ctx context.Context) ([]domain.Module, error)
}

type AskRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
	NContext int    `json:"nContext" validate:"omitempty,min=1,max=10"`
}

type SearchRequest struct {
	Query    string `json:"query" validate:"required,max=500"`
	NResults int    `json:"nResults" validate:"omitempty,min=1,max=20"`
}

type Source struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Relevance float64 `json:"relevance"`
}

type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

type Stats struct {
	Enabled   bool   `json:"enabled"`
	Documents int    `json:"documents"`
	Model     string `json:"model,omitempty"`
}

// Service is disabled, but still searchable, when no Completer is configured.
type Service struct {
	catalog CatalogSource
	llm     Completer
}

func New(catalog CatalogSource, llm Completer) *Service {
	return &Service{catalog: catalog, llm: llm}
}

func (s *Service) Enabled() bool { return s.llm != nil }

// Search returns the catalog passages most relevant to the query.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]Passage, error) {
	req.Query = strings.TrimSpace(req.Query)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.NResults == 0 {
		req.NResults = defaultResultSize
	}
	idx, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Search(req.Query, req.NResults), nil
}

// Ask retrieves context for the question and asks the model to answer in lang.
func (s *Service) Ask(ctx context.Context, req AskRequest, lang string) (Answer, error) {
	if s.llm == nil {
		return Answer{}, domain.ErrAssistantUnavailable
	}
	req.Question = strings.TrimSpace(req.Question)
	if err := validateRequest(req); err != nil {
		return Answer{}, err
	}
	if req.NContext == 0 {
		req.NContext = defaultContextSize
	}
	idx, err := s.index(ctx)
	if err != nil {
		return Answer{}, err
	}
	passages := idx.Search(req.Question, req.NContext)

	text, err := s.llm.Complete(ctx, systemPrompt, buildPrompt(lang, req.Question, passages))
	if err != nil {
		slog.Error("assistant answer failed", "lang", lang, "contexts", len(passages), "error", err)
		return Answer{}, fmt.Errorf("%w: %v", domain.ErrAssistantFailed, err)
	}

	sources := make([]Source, 0, len(passages))
	for _, p := range passages {
		sources = append(sources, Source{Title: p.Title, URL: p.URL, Relevance: p.Relevance})
	}
	return Answer{Answer: text, Sources: sources}, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	idx, err := s.index(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Enabled: s.Enabled(), Documents: idx.Len()}
	if s.llm != nil {
		stats.Model = s.llm.Model()
	}
	return stats, nil
}

// index is rebuilt per call; the catalog repository already caches modules.
func (s *Service) index(ctx context.Context) (*Index, error) {
	modules, err := s.catalog.Modules(ctx)
	if err != nil {
		return nil, err
	}
	return NewIndex(modules), nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validateRequest(req any) error {
	validateOnce.Do(func() { validate = validator.New() })
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		problems := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			problems = append(problems, fe.Field()+" "+fe.Tag())
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, ", "))
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}
