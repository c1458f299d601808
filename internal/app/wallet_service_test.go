package app_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"casper-learning/internal/app"
	"casper-learning/internal/casper"
	"casper-learning/internal/domain"
	"casper-learning/internal/infra/memory"
)

type stubLedger struct {
	motes *big.Int
	err   error
}

func (l stubLedger) Balance(context.Context, string) (*big.Int, error) { return l.motes, l.err }

type rejectingProvider struct{ casper.NoProvider }

func (rejectingProvider) Installed() bool { return true }

func (rejectingProvider) RequestConnection(context.Context) error {
	return errors.New("user closed the popup")
}

func TestWalletConnectPersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVStore()
	ledger := stubLedger{motes: big.NewInt(1_234_560_000_000)}
	wallet := app.NewWalletService(casper.NewStaticProvider(testKey), ledger, nil, kv)

	identity, err := wallet.Connect(ctx)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	want, _ := casper.AccountHash(testKey)
	if !identity.Connected || identity.AccountHash != want {
		t.Fatalf("unexpected identity %+v", identity)
	}
	if got := wallet.CachedBalance(); got != "1234.56" {
		t.Fatalf("expected 1234.56, got %q", got)
	}
	if _, found, _ := kv.Get(ctx, app.WalletKey); !found {
		t.Fatalf("expected wallet snapshot persisted")
	}

	restored := app.NewWalletService(nil, ledger, nil, kv)
	if got := restored.Restore(ctx); got != identity {
		t.Fatalf("restore: got %+v, want %+v", got, identity)
	}
	if restored.CachedBalance() != "1234.56" {
		t.Fatalf("expected balance refreshed on restore")
	}

	wallet.Disconnect(ctx)
	if wallet.Identity().Connected || wallet.CachedBalance() != "0" {
		t.Fatalf("expected cleared identity")
	}
	if _, found, _ := kv.Get(ctx, app.WalletKey); found {
		t.Fatalf("expected wallet snapshot removed")
	}
}

func TestWalletConnectErrors(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVStore()

	if _, err := app.NewWalletService(nil, nil, nil, kv).Connect(ctx); !errors.Is(err, domain.ErrWalletUnavailable) {
		t.Fatalf("expected ErrWalletUnavailable, got %v", err)
	}
	if _, err := app.NewWalletService(rejectingProvider{}, nil, nil, kv).Connect(ctx); !errors.Is(err, domain.ErrConnectionRejected) {
		t.Fatalf("expected ErrConnectionRejected, got %v", err)
	}
	if _, err := app.NewWalletService(casper.NewStaticProvider("01zz"), nil, nil, kv).Connect(ctx); !errors.Is(err, domain.ErrConnectionRejected) {
		t.Fatalf("expected ErrConnectionRejected for a bad key, got %v", err)
	}
}

func TestWalletBalanceDefaultsToZero(t *testing.T) {
	ctx := context.Background()
	wallet := app.NewWalletService(nil, stubLedger{err: errors.New("node down")}, nil, memory.NewKVStore())
	if got := wallet.Balance(ctx, testKey); got != "0" {
		t.Fatalf("expected 0 on ledger failure, got %q", got)
	}
	if got := app.NewWalletService(nil, nil, nil, memory.NewKVStore()).Balance(ctx, testKey); got != "0" {
		t.Fatalf("expected 0 without ledger, got %q", got)
	}
}

func TestWalletRestoreIgnoresCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVStore()
	_ = kv.Set(ctx, app.WalletKey, "{broken")
	if got := app.NewWalletService(nil, nil, nil, kv).Restore(ctx); got.Connected {
		t.Fatalf("expected disconnected identity, got %+v", got)
	}
}

func TestWalletMintWrapsFailures(t *testing.T) {
	ctx := context.Background()
	wallet := app.NewWalletService(nil, nil, &recordingMinter{fail: true}, memory.NewKVStore())
	if _, err := wallet.MintBadge(ctx, testKey, "m/q", 90); !errors.Is(err, domain.ErrMintFailed) {
		t.Fatalf("expected ErrMintFailed, got %v", err)
	}
	if _, err := app.NewWalletService(nil, nil, nil, memory.NewKVStore()).MintBadge(ctx, testKey, "m/q", 90); !errors.Is(err, domain.ErrMintFailed) {
		t.Fatalf("expected ErrMintFailed without minter, got %v", err)
	}
}

func TestWalletKeepsMintedBadgesPerAccount(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVStore()
	wallet := app.NewWalletService(casper.NewStaticProvider(testKey), nil, &recordingMinter{}, kv)

	if got := wallet.MintedBadges(ctx); len(got) != 0 {
		t.Fatalf("expected no badges while disconnected, got %+v", got)
	}
	if _, err := wallet.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	for _, subject := range []string{"m/q1", "m/q2"} {
		if _, err := wallet.MintBadge(ctx, testKey, subject, 90); err != nil {
			t.Fatalf("mint %s: %v", subject, err)
		}
	}

	got := wallet.MintedBadges(ctx)
	if len(got) != 2 || got[0].SubjectID != "m/q1" || got[1].SubjectID != "m/q2" || got[1].Receipt != "receipt-1" {
		t.Fatalf("unexpected minted badges %+v", got)
	}
	accountHash, _ := casper.AccountHash(testKey)
	if _, found, _ := kv.Get(ctx, app.MintedBadgesKey(accountHash)); !found {
		t.Fatalf("expected receipts stored under the account hash")
	}

	// Receipts outlive the connection.
	wallet.Disconnect(ctx)
	if _, err := wallet.Connect(ctx); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if got := wallet.MintedBadges(ctx); len(got) != 2 {
		t.Fatalf("expected receipts after reconnect, got %+v", got)
	}
}

func TestWalletFailedMintRecordsNothing(t *testing.T) {
	ctx := context.Background()
	wallet := app.NewWalletService(casper.NewStaticProvider(testKey), nil, &recordingMinter{fail: true}, memory.NewKVStore())
	if _, err := wallet.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := wallet.MintBadge(ctx, testKey, "m/q", 90); err == nil {
		t.Fatalf("expected mint failure")
	}
	if got := wallet.MintedBadges(ctx); len(got) != 0 {
		t.Fatalf("expected no receipts, got %+v", got)
	}
}
