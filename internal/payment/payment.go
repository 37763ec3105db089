// Package payment provides the gateways a booking is charged through.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirinyoku/showbook/internal/domain"
)

// ErrDeclined is returned when the payment provider refuses a charge.
var ErrDeclined = errors.New("payment declined")

const (
	MethodCash   = "cash"
	MethodWallet = "wallet"
	MethodStripe = "stripe"
)

type Gateway interface {
	Charge(ctx context.Context, c domain.Charge) error
}

type Config struct {
	Method               string
	WalletInitialBalance int64
	StripeSecretKey      string
	StripePaymentMethod  string
}

// New returns the gateway selected by cfg.Method.
func New(cfg Config, log *slog.Logger) (Gateway, error) {
	const op = "payment.New"

	switch cfg.Method {
	case "", MethodCash:
		return NewCash(log), nil
	case MethodWallet:
		return NewWallet(cfg.WalletInitialBalance), nil
	case MethodStripe:
		if cfg.StripeSecretKey == "" {
			return nil, fmt.Errorf("%s: stripe secret key is required", op)
		}
		return NewStripe(cfg.StripeSecretKey, cfg.StripePaymentMethod), nil
	default:
		return nil, fmt.Errorf("%s: unknown payment method %q", op, cfg.Method)
	}
}
