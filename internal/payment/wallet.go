package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/kirinyoku/showbook/internal/domain"
)

// Wallet debits in-process per-user balances. A user seen for the first time
// starts with the initial balance.
type Wallet struct {
	mu       sync.Mutex
	initial  int64
	balances map[uuid.UUID]int64
}

func NewWallet(initial int64) *Wallet {
	return &Wallet{
		initial:  initial,
		balances: make(map[uuid.UUID]int64),
	}
}

func (w *Wallet) Charge(ctx context.Context, ch domain.Charge) error {
	const op = "payment.Wallet.Charge"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	balance := w.balanceLocked(ch.UserID)
	if balance < ch.Amount {
		return fmt.Errorf("%s: balance %d below %d: %w", op, balance, ch.Amount, ErrDeclined)
	}

	w.balances[ch.UserID] = balance - ch.Amount

	return nil
}

// TopUp adds amount to the user's balance.
func (w *Wallet) TopUp(userID uuid.UUID, amount int64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.balances[userID] = w.balanceLocked(userID) + amount
}

func (w *Wallet) Balance(userID uuid.UUID) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.balanceLocked(userID)
}

func (w *Wallet) balanceLocked(userID uuid.UUID) int64 {
	b, ok := w.balances[userID]
	if !ok {
		return w.initial
	}
	return b
}
