package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"casper-learning/internal/domain"
)

// Preferences persists the selected UI language under LanguageKey.
type Preferences struct {
	kv KeyValueStore
}

func NewPreferences(kv KeyValueStore) *Preferences {
	return &Preferences{kv: kv}
}

// Language returns the stored language, or the default when nothing valid is stored.
func (p *Preferences) Language(ctx context.Context) string {
	lang, found, err := p.kv.Get(ctx, LanguageKey)
	if err != nil {
		slog.Warn("read language preference", "error", err)
		return domain.DefaultLanguage
	}
	if !found || !domain.IsSupportedLanguage(lang) {
		return domain.DefaultLanguage
	}
	return lang
}

// SetLanguage stores lang if it is supported.
func (p *Preferences) SetLanguage(ctx context.Context, lang string) error {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !domain.IsSupportedLanguage(lang) {
		return &domain.UnsupportedLanguageError{Lang: lang}
	}
	if err := p.kv.Set(ctx, LanguageKey, lang); err != nil {
		return fmt.Errorf("%w: save language: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}
