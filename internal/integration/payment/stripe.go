// Package payment opens deposit payment intentions.
package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/estatehub/service-scheduling/internal/application"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// StripeGateway creates Stripe PaymentIntents for booking deposits.
type StripeGateway struct {
	api    *client.API
	logger *zap.Logger
}

// NewStripeGateway creates a gateway authenticated with secretKey.
func NewStripeGateway(secretKey string, logger *zap.Logger) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, logger: logger}
}

// CreateDepositIntent opens a PaymentIntent for the deposit. The booking id
// is the idempotency key, so a retried request returns the same intent.
func (g *StripeGateway) CreateDepositIntent(ctx context.Context, req application.DepositRequest) (*application.PaymentIntention, error) {
	pi, err := g.api.PaymentIntents.New(depositParams(ctx, req))
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	g.logger.Info("deposit payment intent created",
		zap.String("booking_id", req.BookingID.String()),
		zap.String("payment_intent", pi.ID),
		zap.Int64("amount_cents", req.AmountCents),
	)
	return &application.PaymentIntention{
		Gateway:      "stripe",
		Reference:    pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     strings.ToUpper(string(pi.Currency)),
	}, nil
}

func depositParams(ctx context.Context, req application.DepositRequest) *stripe.PaymentIntentParams {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.AmountCents),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Description: stripe.String(req.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey("deposit-" + req.BookingID.String())
	params.AddMetadata("booking_id", req.BookingID.String())
	params.AddMetadata("booking_number", req.BookingNumber)
	return params
}

// ManualGateway records deposits to be collected offline. Used when no
// Stripe key is configured; the payment outcome still arrives on the
// payment events topic.
type ManualGateway struct{}

// CreateDepositIntent returns a reference derived from the booking number.
func (ManualGateway) CreateDepositIntent(_ context.Context, req application.DepositRequest) (*application.PaymentIntention, error) {
	return &application.PaymentIntention{
		Gateway:     "manual",
		Reference:   "manual_" + req.BookingNumber,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
	}, nil
}
