package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirinyoku/showbook/internal/domain"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// Stripe charges through a PaymentIntent created and confirmed server-side
// against a saved payment method.
type Stripe struct {
	paymentMethod string
	newIntent     func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

func NewStripe(secretKey, paymentMethod string) *Stripe {
	client := paymentintent.Client{
		B:   stripe.GetBackend(stripe.APIBackend),
		Key: secretKey,
	}

	return &Stripe{
		paymentMethod: paymentMethod,
		newIntent:     client.New,
	}
}

// Charge creates a confirmed INR payment intent for the charge amount. The
// charge reference is used as the Stripe idempotency key.
//
// Returns:
//   - error: payment.ErrDeclined if the card is declined or the intent does
//     not succeed.
func (s *Stripe) Charge(ctx context.Context, ch domain.Charge) error {
	const op = "payment.Stripe.Charge"

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(ch.Amount * 100),
		Currency:      stripe.String(string(stripe.CurrencyINR)),
		PaymentMethod: stripe.String(s.paymentMethod),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(ch.Reference.String())
	params.AddMetadata("user_id", ch.UserID.String())
	params.AddMetadata("show_id", ch.ShowID.String())

	pi, err := s.newIntent(params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.Type == stripe.ErrorTypeCard {
			return fmt.Errorf("%s: %s: %w", op, se.Code, ErrDeclined)
		}
		return fmt.Errorf("%s:%w", op, err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("%s: intent %s is %s: %w", op, pi.ID, pi.Status, ErrDeclined)
	}

	return nil
}
