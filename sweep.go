package debts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Totals aggregates balances across debtors.
type Totals struct {
	Current  decimal.Decimal
	Historic decimal.Decimal
	Penalty  decimal.Decimal
}

// ComputeTotals sums the balances of every debtor.
func ComputeTotals(debtors []*Debtor) Totals {
	t := Totals{Current: decimal.Zero, Historic: decimal.Zero, Penalty: decimal.Zero}
	for _, d := range debtors {
		t.Current = t.Current.Add(d.CurrentDebt)
		t.Historic = t.Historic.Add(d.HistoricDebt)
		t.Penalty = t.Penalty.Add(d.TotalPenalty)
	}
	return t
}

// SweepResult is the outcome of a sweep.
type SweepResult struct {
	Debtors []*Debtor // every debtor after the sweep, in the input order
	Updated []*Debtor // debtors that received a penalty
	Totals  Totals
}

// Sweep evaluates the penalty policy for every debtor in order and applies
// the penalties due. The input debtors are never modified: penalized debtors
// are cloned and the clones are returned.
//
// Sweeping twice at the same instant changes nothing the second time.
func Sweep(debtors []*Debtor, now time.Time, cfg PenaltyConfig) SweepResult {
	res := SweepResult{Debtors: make([]*Debtor, 0, len(debtors))}
	for _, d := range debtors {
		if amount, due := Evaluate(d, now, cfg); due {
			d = d.Clone()
			d.applyPenalty(amount, now)
			res.Updated = append(res.Updated, d)
		}
		res.Debtors = append(res.Debtors, d)
	}
	res.Totals = ComputeTotals(res.Debtors)
	return res
}
