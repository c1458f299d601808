package domain

import "errors"

var (
	// ErrInvalidInput marks an intent that is not valid in the current session state.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSessionNotFound is returned when a quiz session has not been started or was discarded.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrModuleNotFound indicates the requested module is absent from the catalog.
	ErrModuleNotFound = errors.New("module not found")
	// ErrQuizNotFound indicates the requested quiz is absent from its module.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidCatalog is returned when catalog content fails load-time validation.
	ErrInvalidCatalog = errors.New("invalid catalog")
	// ErrStorageUnavailable wraps failures of the underlying key-value store.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrWalletUnavailable means no wallet capability is installed.
	ErrWalletUnavailable = errors.New("wallet unavailable")
	// ErrConnectionRejected means the wallet declined the connection request.
	ErrConnectionRejected = errors.New("wallet connection rejected")
	// ErrMintFailed wraps any failure of the badge mint request.
	ErrMintFailed = errors.New("badge mint failed")
	// ErrUnsupportedLanguage is returned for language tags outside the supported set.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrAssistantUnavailable means no language model is configured.
	ErrAssistantUnavailable = errors.New("assistant unavailable")
	// ErrAssistantFailed wraps a failed language model call.
	ErrAssistantFailed = errors.New("assistant request failed")
)

// UnsupportedLanguageError carries the rejected tag; it matches ErrUnsupportedLanguage.
type UnsupportedLanguageError struct {
	Lang string
}

func (e *UnsupportedLanguageError) Error() string {
	return ErrUnsupportedLanguage.Error() + ": " + e.Lang
}

func (e *UnsupportedLanguageError) Is(target error) bool {
	return target == ErrUnsupportedLanguage
}

// IsCatalogNotFound reports whether err means a module or quiz is missing from the catalog.
func IsCatalogNotFound(err error) bool {
	return errors.Is(err, ErrModuleNotFound) || errors.Is(err, ErrQuizNotFound)
}
