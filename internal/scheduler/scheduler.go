// Package scheduler runs periodic background jobs of the learning server.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"casper-learning/internal/domain"
	"github.com/go-co-op/gocron"
)

// Wallet is the part of the wallet service the refresher needs.
type Wallet interface {
	Identity() domain.WalletIdentity
	RefreshBalance(ctx context.Context) string
}

// BalanceRefresher re-reads the connected account balance on an interval so
// the cached balance follows the chain.
type BalanceRefresher struct {
	scheduler *gocron.Scheduler
	wallet    Wallet
	interval  time.Duration
	timeout   time.Duration
}

func New(wallet Wallet, interval time.Duration) *BalanceRefresher {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &BalanceRefresher{
		scheduler: s,
		wallet:    wallet,
		interval:  interval,
		timeout:   15 * time.Second,
	}
}

// Start schedules the refresh job and runs the scheduler in the background.
// A non-positive interval disables refreshing.
func (r *BalanceRefresher) Start() error {
	if r.interval <= 0 {
		slog.Info("balance refresh disabled")
		return nil
	}
	if _, err := r.scheduler.Every(r.interval).WaitForSchedule().Do(r.refresh); err != nil {
		return err
	}
	r.scheduler.StartAsync()
	slog.Info("balance refresh scheduled", "interval", r.interval)
	return nil
}

// Stop terminates the scheduler.
func (r *BalanceRefresher) Stop() {
	r.scheduler.Stop()
}

func (r *BalanceRefresher) refresh() {
	if !r.wallet.Identity().Connected {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	balance := r.wallet.RefreshBalance(ctx)
	slog.Debug("balance refreshed", "balance", balance)
}
