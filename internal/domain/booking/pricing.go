package booking

import (
	"fmt"

	"github.com/estatehub/service-scheduling/internal/domain/provider"
	"github.com/estatehub/service-scheduling/internal/platform/domain"
)

// Quote is the priced outcome of a booking request, in minor units.
type Quote struct {
	EstimatedCents int64
	DepositCents   int64
	Currency       string
}

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	// Calculate returns the quote for the given parameters.
	Calculate(params PricingParams) (Quote, error)
}

// PricingParams holds the inputs for price calculation.
type PricingParams struct {
	ProviderKind    provider.Kind
	HourlyRateCents int64
	DurationMinutes int
}

// StandardPricingStrategy implements the default marketplace tariff.
type StandardPricingStrategy struct{}

// NewStandardPricingStrategy creates a new StandardPricingStrategy.
func NewStandardPricingStrategy() *StandardPricingStrategy {
	return &StandardPricingStrategy{}
}

// appraisalDepositPercent is the share of an appraisal paid up front.
const appraisalDepositPercent = 25

// Calculate computes the quote in piasters (EGP minor units).
//
// Pricing formula:
//   - Call-out fee: EGP 500 for photography, EGP 1,500 for appraisal
//   - Time: the provider's hourly rate, prorated per minute
//   - Deposit: 25% of the estimate for appraisals, none for photography
func (s *StandardPricingStrategy) Calculate(params PricingParams) (Quote, error) {
	if params.DurationMinutes <= 0 {
		return Quote{}, fmt.Errorf("duration must be positive")
	}
	if params.HourlyRateCents < 0 {
		return Quote{}, fmt.Errorf("hourly rate cannot be negative")
	}

	base, err := callOutFee(params.ProviderKind)
	if err != nil {
		return Quote{}, err
	}
	total := base + params.HourlyRateCents*int64(params.DurationMinutes)/60

	q := Quote{EstimatedCents: total, Currency: domain.CurrencyEGP}
	if params.ProviderKind == provider.KindAppraiser {
		q.DepositCents = total * appraisalDepositPercent / 100
	}
	return q, nil
}

func callOutFee(kind provider.Kind) (int64, error) {
	switch kind {
	case provider.KindPhotographer:
		return 50000, nil // EGP 500
	case provider.KindAppraiser:
		return 150000, nil // EGP 1,500
	default:
		return 0, fmt.Errorf("unknown provider kind for pricing: %s", kind)
	}
}
