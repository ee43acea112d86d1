// Package pricing computes reservation prices from a slot's base hourly
// rate and optional (hour-of-day, day-of-week) multiplier rules.
package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RuleSource looks up the multiplier rule for (slot, hour, dayOfWeek).
// Implementations must resolve duplicate rows deterministically (lowest
// rule id wins); duplicates are a data-integrity problem, not an error.
type RuleSource interface {
	MultiplierFor(ctx context.Context, slotID int64, hour, dayOfWeek int) (decimal.Decimal, bool, error)
}

// Resolve returns the multiplier for a reservation starting at start.
// Hour is the local start hour (0-23), day of week 0-6 with Sunday=0.
// No matching rule means 1.0.
func Resolve(ctx context.Context, rules RuleSource, slotID int64, start time.Time) (decimal.Decimal, error) {
	m, ok, err := rules.MultiplierFor(ctx, slotID, start.Hour(), int(start.Weekday()))
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !ok {
		return decimal.NewFromInt(1), nil
	}
	return m, nil
}

// Total prices the whole reservation uniformly at its start-hour
// multiplier: rate x wall-clock hours x multiplier, rounded half-up to
// two decimal places. A reservation spanning several priced hours is NOT
// integrated hour by hour.
func Total(hourlyRate decimal.Decimal, start, end time.Time, multiplier decimal.Decimal) decimal.Decimal {
	hours := decimal.NewFromFloat(end.Sub(start).Hours())
	return hourlyRate.Mul(hours).Mul(multiplier).Round(2)
}
