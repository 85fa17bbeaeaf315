package debts

import (
	"fmt"
	"time"

	"github.com/etnz/debts/date"
	"github.com/shopspring/decimal"
)

// PenaltyConfig holds the penalty rule shared by every debtor.
type PenaltyConfig struct {
	PenaltyDays   int             `json:"penaltyDays"`   // days of unpaid debt before a penalty is due
	PenaltyAmount decimal.Decimal `json:"penaltyAmount"` // flat amount charged per penalty
}

// DefaultConfig returns the configuration used when none has been saved.
func DefaultConfig() PenaltyConfig {
	return PenaltyConfig{PenaltyDays: 30, PenaltyAmount: decimal.NewFromInt(100)}
}

// Validate checks that days are at least one and the amount is not negative.
func (c PenaltyConfig) Validate() error {
	if c.PenaltyDays < 1 {
		return fmt.Errorf("%w: penalty days must be at least 1, got %d", ErrValidation, c.PenaltyDays)
	}
	if c.PenaltyAmount.IsNegative() {
		return fmt.Errorf("%w: penalty amount %v is negative", ErrValidation, c.PenaltyAmount)
	}
	return nil
}

// Equal reports whether both configurations are the same.
func (c PenaltyConfig) Equal(o PenaltyConfig) bool {
	return c.PenaltyDays == o.PenaltyDays && c.PenaltyAmount.Equal(o.PenaltyAmount)
}

// clockThreshold is the balance above which the penalty clock runs from the
// start date. At or below it the clock restarts at every evaluation, so a
// debt paid down to one unit never accrues penalties.
var clockThreshold = decimal.NewFromInt(1)

// penaltyClock returns the instant from which overdue days are counted.
func (d *Debtor) penaltyClock(now time.Time) time.Time {
	if !d.CurrentDebt.GreaterThan(clockThreshold) {
		return now
	}
	switch {
	case !d.StartDate.IsZero():
		return d.StartDate
	case !d.LastUpdate.IsZero():
		return d.LastUpdate
	}
	return now
}

// Evaluate decides whether a penalty is due for d at now. It returns the
// amount to charge and true, or false when nothing is due.
//
// At most one penalty is due per day: days missed between two evaluations
// are not caught up. A clock moving backward is simply "not due yet".
func Evaluate(d *Debtor, now time.Time, cfg PenaltyConfig) (decimal.Decimal, bool) {
	if !d.PenaltyEnabled || !d.CurrentDebt.IsPositive() {
		return decimal.Zero, false
	}
	start := d.penaltyClock(now)
	if date.Elapsed(start, now) < cfg.PenaltyDays {
		return decimal.Zero, false
	}
	last := d.LastPenaltyCheck
	if last.IsZero() {
		last = start
	}
	if date.Elapsed(last, now) < 1 {
		return decimal.Zero, false
	}
	return cfg.PenaltyAmount, true
}

// Overdue reports whether d is in its penalty period: penalties enabled, a
// balance above the clock threshold, and at least PenaltyDays since the
// start of the unpaid period.
func (d *Debtor) Overdue(now time.Time, cfg PenaltyConfig) bool {
	if !d.PenaltyEnabled || !d.CurrentDebt.GreaterThan(clockThreshold) {
		return false
	}
	return date.Elapsed(d.penaltyClock(now), now) >= cfg.PenaltyDays
}
