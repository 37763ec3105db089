package payment

import (
	"context"
	"log/slog"

	"github.com/kirinyoku/showbook/internal/domain"
)

// Cash accepts every charge; the amount is settled at the box office.
type Cash struct {
	log *slog.Logger
}

func NewCash(log *slog.Logger) *Cash {
	if log == nil {
		log = slog.Default()
	}
	return &Cash{log: log}
}

func (c *Cash) Charge(ctx context.Context, ch domain.Charge) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.log.InfoContext(ctx, "cash payment accepted",
		slog.String("reference", ch.Reference.String()),
		slog.String("user_id", ch.UserID.String()),
		slog.Int64("amount", ch.Amount),
	)

	return nil
}
