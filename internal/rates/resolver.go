package rates

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
)

// Fixed rates used when every service fails.
const (
	FallbackVES = 169.98
	FallbackCOP = 4000.0
)

// fallbackDays is how many days before the reference Friday are tried
// (Thursday back to Monday).
const fallbackDays = 4

// Origin tells which step of the cascade produced the primary rate.
type Origin string

const (
	OriginHistorical Origin = "historical"
	OriginCurrent    Origin = "current"
	OriginFallback   Origin = "fallback"
)

// Rate is the primary conversion rate of a run.
type Rate struct {
	Currency string
	Value    float64
	Date     civil.Date
	Origin   Origin
}

// Resolver selects the run's primary rate per local currency.
type Resolver struct {
	sources   map[string]Source
	fallbacks map[string]float64
}

// NewResolver creates a resolver for VES (bcv) and COP (trm). Either source
// may be nil, in which case that currency resolves to its fixed fallback.
func NewResolver(bcv, trm Source) *Resolver {
	sources := make(map[string]Source)
	if bcv != nil {
		sources[domain.CurrencyVES] = bcv
	}
	if trm != nil {
		sources[domain.CurrencyCOP] = trm
	}
	return &Resolver{
		sources: sources,
		fallbacks: map[string]float64{
			domain.CurrencyVES: FallbackVES,
			domain.CurrencyCOP: FallbackCOP,
		},
	}
}

// PrimaryRate resolves the rate for currency relative to today. It asks the
// historical source for the reference Friday, then walks back one day at a
// time down to Monday, then asks for the current rate and finally uses the
// fixed fallback. Service errors are logged and never returned; the only
// error is an unsupported currency.
func (r *Resolver) PrimaryRate(ctx context.Context, currency string, today civil.Date) (Rate, error) {
	log := logger.FromContext(ctx)

	fallback, ok := r.fallbacks[currency]
	if !ok {
		return Rate{}, fmt.Errorf("PrimaryRate: unsupported currency %q", currency)
	}

	friday := fiscal.ReferenceFriday(today)
	log.Info().
		Str("currency", currency).
		Str("today", today.String()).
		Str("target_friday", friday.String()).
		Int("days_back", today.DaysSince(friday)).
		Msg("Resolving primary rate")

	source := r.sources[currency]
	if source != nil {
		for back := 0; back <= fallbackDays; back++ {
			day := friday.AddDays(-back)
			q, err := source.Historical(ctx, day)
			if err != nil {
				log.Warn().Err(err).Str("currency", currency).Str("date", day.String()).Msg("No historical rate for date")
				continue
			}
			log.Info().Str("currency", currency).Str("date", day.String()).Float64("rate", q.Rate).Msg("Historical rate found")
			return Rate{Currency: currency, Value: q.Rate, Date: q.Date, Origin: OriginHistorical}, nil
		}

		q, err := source.Current(ctx)
		if err == nil {
			log.Info().Str("currency", currency).Str("date", q.Date.String()).Float64("rate", q.Rate).Msg("Using current rate")
			return Rate{Currency: currency, Value: q.Rate, Date: q.Date, Origin: OriginCurrent}, nil
		}
		log.Warn().Err(err).Str("currency", currency).Msg("Current rate unavailable")
	}

	log.Warn().Str("currency", currency).Float64("rate", fallback).Msg("Using fixed fallback rate")
	return Rate{Currency: currency, Value: fallback, Date: today, Origin: OriginFallback}, nil
}
