package debts

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType is a typed string identifying the kind of a Movement.
type MovementType string

// Constants for movement types
const (
	MoveInitial   MovementType = "initial"
	MoveIncrement MovementType = "increment"
	MovePayment   MovementType = "payment"
	MovePenalty   MovementType = "penalty"
)

// Valid reports whether t is one of the known movement types.
func (t MovementType) Valid() bool {
	switch t {
	case MoveInitial, MoveIncrement, MovePayment, MovePenalty:
		return true
	}
	return false
}

// Label returns a human readable name of the movement type.
func (t MovementType) Label() string {
	switch t {
	case MoveInitial:
		return "Initial debt"
	case MoveIncrement:
		return "Increment"
	case MovePayment:
		return "Payment"
	case MovePenalty:
		return "Penalty"
	}
	return string(t)
}

// UnmarshalJSON rejects unknown movement types.
func (t *MovementType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	mt := MovementType(s)
	if !mt.Valid() {
		return fmt.Errorf("%w: unknown movement type %q", ErrFormat, s)
	}
	*t = mt
	return nil
}

// Movement is a single recorded change of a debtor's balance. Movements are
// never modified once appended.
type Movement struct {
	Date    time.Time       `json:"date"`
	Amount  decimal.Decimal `json:"amount"`  // signed
	Type    MovementType    `json:"type"`
	Balance decimal.Decimal `json:"balance"` // current debt right after the movement
}

// Equal reports whether m and n describe the same movement.
func (m Movement) Equal(n Movement) bool {
	return m.Date.Equal(n.Date) && m.Amount.Equal(n.Amount) && m.Type == n.Type && m.Balance.Equal(n.Balance)
}

// Debtor is a named party owing money, with its balances and the full history
// of movements that produced them.
type Debtor struct {
	ID               string
	Name             string
	CurrentDebt      decimal.Decimal // outstanding balance, never negative
	HistoricDebt     decimal.Decimal // sum of every positive movement
	TotalPenalty     decimal.Decimal // sum of every penalty movement
	StartDate        time.Time       // anchor of the penalty clock
	LastUpdate       time.Time       // instant of the latest movement
	LastPenaltyCheck time.Time       // instant of the latest applied penalty, zero if never
	PenaltyEnabled   bool
	History          []Movement // chronological
}

// NewDebtor creates a debtor owing initialDebt, with penalties enabled and a
// single initial movement.
func NewDebtor(id, name string, initialDebt decimal.Decimal, now time.Time) (*Debtor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: debtor name is empty", ErrValidation)
	}
	if initialDebt.IsNegative() {
		return nil, fmt.Errorf("%w: initial debt %v is negative", ErrValidation, initialDebt)
	}
	return &Debtor{
		ID:               id,
		Name:             name,
		CurrentDebt:      initialDebt,
		HistoricDebt:     initialDebt,
		TotalPenalty:     decimal.Zero,
		StartDate:        now,
		LastUpdate:       now,
		LastPenaltyCheck: now,
		PenaltyEnabled:   true,
		History: []Movement{{
			Date:    now,
			Amount:  initialDebt,
			Type:    MoveInitial,
			Balance: initialDebt,
		}},
	}, nil
}

// ApplyMovement records a signed change of the debt: positive amounts are
// increments, negative amounts are payments. The debtor is left untouched
// when an error is returned.
func (d *Debtor) ApplyMovement(amount decimal.Decimal, now time.Time) error {
	if amount.IsZero() {
		return fmt.Errorf("%w: movement amount is zero", ErrValidation)
	}
	balance := d.CurrentDebt.Add(amount)
	if balance.IsNegative() {
		return fmt.Errorf("%w: %s owes %v, cannot apply %v", ErrNegativeBalance, d.Name, d.CurrentDebt, amount)
	}

	typ := MovePayment
	if amount.IsPositive() {
		typ = MoveIncrement
		d.HistoricDebt = d.HistoricDebt.Add(amount)
		if d.CurrentDebt.IsZero() {
			// a fully paid debtor starts a new unpaid period.
			d.StartDate = now
		}
	}
	d.CurrentDebt = balance
	d.LastUpdate = now
	d.History = append(d.History, Movement{Date: now, Amount: amount, Type: typ, Balance: balance})
	return nil
}

// applyPenalty adds a penalty movement unconditionally.
func (d *Debtor) applyPenalty(amount decimal.Decimal, now time.Time) {
	d.CurrentDebt = d.CurrentDebt.Add(amount)
	d.HistoricDebt = d.HistoricDebt.Add(amount)
	d.TotalPenalty = d.TotalPenalty.Add(amount)
	d.LastPenaltyCheck = now
	d.LastUpdate = now
	d.History = append(d.History, Movement{Date: now, Amount: amount, Type: MovePenalty, Balance: d.CurrentDebt})
}

// SetPenaltyEnabled changes the penalty flag. No movement is recorded.
func (d *Debtor) SetPenaltyEnabled(enabled bool) { d.PenaltyEnabled = enabled }

// Clone returns a deep copy of d.
func (d *Debtor) Clone() *Debtor {
	c := *d
	c.History = slices.Clone(d.History)
	return &c
}

// Equal reports whether d and e hold the same values. Amounts and instants
// are compared by value, not by representation.
func (d *Debtor) Equal(e *Debtor) bool {
	if d == nil || e == nil {
		return d == e
	}
	return d.ID == e.ID &&
		d.Name == e.Name &&
		d.CurrentDebt.Equal(e.CurrentDebt) &&
		d.HistoricDebt.Equal(e.HistoricDebt) &&
		d.TotalPenalty.Equal(e.TotalPenalty) &&
		d.StartDate.Equal(e.StartDate) &&
		d.LastUpdate.Equal(e.LastUpdate) &&
		d.LastPenaltyCheck.Equal(e.LastPenaltyCheck) &&
		d.PenaltyEnabled == e.PenaltyEnabled &&
		slices.EqualFunc(d.History, e.History, Movement.Equal)
}

// Check verifies the balance invariants of the debtor.
func (d *Debtor) Check() error {
	if len(d.History) == 0 {
		return fmt.Errorf("%w: %s has no history", ErrValidation, d.Name)
	}
	if last := d.History[len(d.History)-1].Balance; !last.Equal(d.CurrentDebt) {
		return fmt.Errorf("%w: %s last movement balance %v differs from current debt %v", ErrValidation, d.Name, last, d.CurrentDebt)
	}
	if d.CurrentDebt.IsNegative() {
		return fmt.Errorf("%w: %s current debt %v is negative", ErrValidation, d.Name, d.CurrentDebt)
	}
	if d.HistoricDebt.LessThan(d.CurrentDebt) {
		return fmt.Errorf("%w: %s historic debt %v is lower than current debt %v", ErrValidation, d.Name, d.HistoricDebt, d.CurrentDebt)
	}
	if d.TotalPenalty.GreaterThan(d.HistoricDebt) {
		return fmt.Errorf("%w: %s total penalty %v exceeds historic debt %v", ErrValidation, d.Name, d.TotalPenalty, d.HistoricDebt)
	}
	return nil
}

// HistoryNewestFirst returns a copy of the history, most recent movement first.
func (d *Debtor) HistoryNewestFirst() []Movement {
	h := slices.Clone(d.History)
	slices.Reverse(h)
	slices.SortStableFunc(h, func(a, b Movement) int { return b.Date.Compare(a.Date) })
	return h
}
