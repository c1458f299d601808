package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"casper-learning/internal/casper"
	"casper-learning/internal/domain"
)

// zeroBalance is shown whenever a balance cannot be determined.
const zeroBalance = "0"

// WalletProvider is the injected wallet capability. An absent wallet is a
// provider whose Installed reports false.
type WalletProvider interface {
	Installed() bool
	RequestConnection(ctx context.Context) error
	IsConnected(ctx context.Context) (bool, error)
	ActivePublicKey(ctx context.Context) (string, error)
	Disconnect(ctx context.Context) error
}

// Ledger looks up account balances in motes.
type Ledger interface {
	Balance(ctx context.Context, publicKey string) (*big.Int, error)
}

// BadgeMinter issues proof-of-completion tokens and returns a receipt.
type BadgeMinter interface {
	MintBadge(ctx context.Context, publicKey, subjectID string, score int) (string, error)
}

// WalletService wraps the provider, the ledger and the minter, and persists
// the connection snapshot under WalletKey.
type WalletService struct {
	provider WalletProvider
	ledger   Ledger
	minter   BadgeMinter
	kv       KeyValueStore

	mu       sync.RWMutex
	identity domain.WalletIdentity
	balance  string

	badgesMu sync.Mutex
	now      func() time.Time
}

func NewWalletService(provider WalletProvider, ledger Ledger, minter BadgeMinter, kv KeyValueStore) *WalletService {
	if provider == nil {
		provider = casper.NoProvider{}
	}
	return &WalletService{
		provider: provider,
		ledger:   ledger,
		minter:   minter,
		kv:       kv,
		balance:  zeroBalance,
		now:      time.Now,
	}
}

// Restore loads the saved connection snapshot and refreshes the balance when connected.
func (w *WalletService) Restore(ctx context.Context) domain.WalletIdentity {
	raw, found, err := w.kv.Get(ctx, WalletKey)
	if err != nil {
		slog.Warn("read wallet snapshot", "error", err)
		return domain.WalletIdentity{}
	}
	if !found {
		return domain.WalletIdentity{}
	}
	var identity domain.WalletIdentity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		slog.Warn("wallet snapshot corrupted, ignoring", "error", err)
		return domain.WalletIdentity{}
	}
	if !identity.Connected || identity.PublicKey == "" {
		return domain.WalletIdentity{}
	}

	w.mu.Lock()
	w.identity = identity
	w.mu.Unlock()

	w.RefreshBalance(ctx)
	return identity
}

// Connect asks the provider for a connection and records the active identity.
func (w *WalletService) Connect(ctx context.Context) (domain.WalletIdentity, error) {
	if !w.provider.Installed() {
		return domain.WalletIdentity{}, domain.ErrWalletUnavailable
	}
	if err := w.provider.RequestConnection(ctx); err != nil {
		if errors.Is(err, domain.ErrWalletUnavailable) || errors.Is(err, domain.ErrConnectionRejected) {
			return domain.WalletIdentity{}, err
		}
		return domain.WalletIdentity{}, fmt.Errorf("%w: %v", domain.ErrConnectionRejected, err)
	}
	connected, err := w.provider.IsConnected(ctx)
	if err != nil || !connected {
		return domain.WalletIdentity{}, fmt.Errorf("%w: provider reports not connected", domain.ErrConnectionRejected)
	}
	publicKey, err := w.provider.ActivePublicKey(ctx)
	if err != nil {
		return domain.WalletIdentity{}, fmt.Errorf("%w: active key: %v", domain.ErrConnectionRejected, err)
	}
	accountHash, err := casper.AccountHash(publicKey)
	if err != nil {
		return domain.WalletIdentity{}, fmt.Errorf("%w: %v", domain.ErrConnectionRejected, err)
	}

	identity := domain.WalletIdentity{
		Connected:   true,
		PublicKey:   publicKey,
		AccountHash: accountHash,
	}
	w.mu.Lock()
	w.identity = identity
	w.mu.Unlock()

	if data, err := json.Marshal(identity); err == nil {
		if err := w.kv.Set(ctx, WalletKey, string(data)); err != nil {
			slog.Warn("save wallet snapshot", "error", err)
		}
	}

	w.RefreshBalance(ctx)
	slog.Info("wallet connected", "account_hash", accountHash)
	return identity, nil
}

// Disconnect always clears the local identity; the remote disconnect is best-effort.
func (w *WalletService) Disconnect(ctx context.Context) {
	if w.provider.Installed() {
		if err := w.provider.Disconnect(ctx); err != nil {
			slog.Warn("wallet disconnect", "error", err)
		}
	}
	w.mu.Lock()
	w.identity = domain.WalletIdentity{}
	w.balance = zeroBalance
	w.mu.Unlock()

	if err := w.kv.Delete(ctx, WalletKey); err != nil {
		slog.Warn("clear wallet snapshot", "error", err)
	}
}

// Identity returns the current wallet identity.
func (w *WalletService) Identity() domain.WalletIdentity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.identity
}

// Balance returns the CSPR balance of publicKey, or "0" on any failure.
func (w *WalletService) Balance(ctx context.Context, publicKey string) string {
	if w.ledger == nil || publicKey == "" {
		return zeroBalance
	}
	motes, err := w.ledger.Balance(ctx, publicKey)
	if err != nil {
		slog.Warn("fetch balance", "error", err)
		return zeroBalance
	}
	return casper.FormatCSPR(motes)
}

// RefreshBalance fetches the balance of the connected account and caches it.
func (w *WalletService) RefreshBalance(ctx context.Context) string {
	identity := w.Identity()
	if !identity.Connected {
		return zeroBalance
	}
	balance := w.Balance(ctx, identity.PublicKey)

	w.mu.Lock()
	// The wallet may have been disconnected or switched while the lookup ran.
	if w.identity.PublicKey == identity.PublicKey {
		w.balance = balance
	}
	w.mu.Unlock()
	return balance
}

// CachedBalance returns the last fetched balance.
func (w *WalletService) CachedBalance() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.balance
}

// MintBadge requests a badge; every failure is reported as ErrMintFailed.
// A successful receipt is appended to the account's minted badges.
func (w *WalletService) MintBadge(ctx context.Context, publicKey, subjectID string, score int) (string, error) {
	if w.minter == nil {
		return "", fmt.Errorf("%w: no minter configured", domain.ErrMintFailed)
	}
	receipt, err := w.minter.MintBadge(ctx, publicKey, subjectID, score)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMintFailed, err)
	}
	w.recordMint(ctx, publicKey, domain.MintedBadge{
		SubjectID: subjectID,
		Score:     score,
		Receipt:   receipt,
		MintedAt:  w.now().UTC(),
	})
	return receipt, nil
}

// MintedBadges returns the receipts kept for the connected account, oldest first.
func (w *WalletService) MintedBadges(ctx context.Context) []domain.MintedBadge {
	identity := w.Identity()
	if !identity.Connected {
		return []domain.MintedBadge{}
	}
	w.badgesMu.Lock()
	defer w.badgesMu.Unlock()
	badges, err := w.loadBadgesLocked(ctx, identity.AccountHash)
	if err != nil {
		slog.Warn("read minted badges", "error", err)
		return []domain.MintedBadge{}
	}
	return badges
}

func (w *WalletService) recordMint(ctx context.Context, publicKey string, badge domain.MintedBadge) {
	accountHash, err := casper.AccountHash(publicKey)
	if err != nil {
		slog.Warn("minted badge not recorded", "receipt", badge.Receipt, "error", err)
		return
	}
	w.badgesMu.Lock()
	defer w.badgesMu.Unlock()

	badges, err := w.loadBadgesLocked(ctx, accountHash)
	if err != nil {
		// Writing now would replace receipts that could not be read.
		slog.Warn("minted badge not recorded", "receipt", badge.Receipt, "error", err)
		return
	}
	data, err := json.Marshal(append(badges, badge))
	if err != nil {
		slog.Warn("encode minted badges", "error", err)
		return
	}
	if err := w.kv.Set(ctx, MintedBadgesKey(accountHash), string(data)); err != nil {
		slog.Warn("minted badge not recorded", "receipt", badge.Receipt, "error", err)
	}
}

func (w *WalletService) loadBadgesLocked(ctx context.Context, accountHash string) ([]domain.MintedBadge, error) {
	raw, found, err := w.kv.Get(ctx, MintedBadgesKey(accountHash))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	badges := []domain.MintedBadge{}
	if !found || raw == "" {
		return badges, nil
	}
	if err := json.Unmarshal([]byte(raw), &badges); err != nil {
		slog.Warn("minted badges corrupted, starting over", "account_hash", accountHash, "error", err)
		return []domain.MintedBadge{}, nil
	}
	if badges == nil {
		badges = []domain.MintedBadge{}
	}
	return badges, nil
}
