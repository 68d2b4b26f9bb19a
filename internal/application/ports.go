package application

import (
	"context"
	"time"

	"github.com/estatehub/service-scheduling/internal/dispatch"
	"github.com/estatehub/service-scheduling/internal/platform/kafka"
	"github.com/google/uuid"
)

// EventProducer publishes CloudEvents. *kafka.Producer satisfies it.
type EventProducer interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// TaskQueue accepts side-effect tasks for out-of-band execution.
type TaskQueue = dispatch.Queue

// DepositRequest asks the payment gateway for a deposit intention.
type DepositRequest struct {
	BookingID     uuid.UUID
	BookingNumber string
	AmountCents   int64
	Currency      string
	Description   string
}

// PaymentIntention is what the caller needs to complete a deposit payment.
type PaymentIntention struct {
	Gateway      string `json:"gateway"`
	Reference    string `json:"reference"`
	ClientSecret string `json:"client_secret,omitempty"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
}

// PaymentGateway creates deposit payment intentions.
type PaymentGateway interface {
	CreateDepositIntent(ctx context.Context, req DepositRequest) (*PaymentIntention, error)
}

// Clock returns the current time.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }
