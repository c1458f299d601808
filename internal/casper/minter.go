package casper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// SimulatedMinter issues badge receipts without writing to the ledger.
type SimulatedMinter struct {
	now func() time.Time
}

func NewSimulatedMinter() *SimulatedMinter {
	return &SimulatedMinter{now: time.Now}
}

// NewSimulatedMinterWithClock is test-only for deterministic receipts.
func NewSimulatedMinterWithClock(now func() time.Time) *SimulatedMinter {
	return &SimulatedMinter{now: now}
}

// MintBadge returns a receipt of the form badge-<subject>-<unix millis>.
func (m *SimulatedMinter) MintBadge(ctx context.Context, publicKeyHex, subjectID string, score int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := ParsePublicKey(publicKeyHex); err != nil {
		return "", err
	}
	receipt := fmt.Sprintf("badge-%s-%d", strings.ReplaceAll(subjectID, "/", "-"), m.now().UnixMilli())
	slog.Info("minted badge", "subject", subjectID, "score", score, "receipt", receipt)
	return receipt, nil
}
