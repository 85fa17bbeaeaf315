package debts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// field is a key of the debtor wire form with its value.
type field struct {
	key   string
	value any
}

// instant is the field of an instant, omitted when unset.
func instant(key string, t time.Time) field {
	if t.IsZero() {
		return field{key: key}
	}
	return field{key, t}
}

// marshalFields writes an object with the fields in order. Fields without
// value are skipped.
func marshalFields(fields ...field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		v, err := json.Marshal(f.value)
		if err != nil {
			return nil, fmt.Errorf("cannot encode %q: %w", f.key, err)
		}
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:", f.key)
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON writes the debtor fields in a stable order. Unset instants are
// omitted.
func (d Debtor) MarshalJSON() ([]byte, error) {
	history := d.History
	if history == nil {
		history = []Movement{}
	}
	return marshalFields(
		field{"id", d.ID},
		field{"name", d.Name},
		field{"currentDebt", d.CurrentDebt},
		field{"historicDebt", d.HistoricDebt},
		instant("startDate", d.StartDate),
		instant("lastUpdate", d.LastUpdate),
		instant("lastPenaltyCheck", d.LastPenaltyCheck),
		field{"totalPenalty", d.TotalPenalty},
		field{"penaltyEnabled", d.PenaltyEnabled},
		field{"history", history},
	)
}

// jdebtor is the wire form of a Debtor, pointers tell missing fields apart.
type jdebtor struct {
	ID               *string          `json:"id"`
	Name             *string          `json:"name"`
	CurrentDebt      *decimal.Decimal `json:"currentDebt"`
	HistoricDebt     *decimal.Decimal `json:"historicDebt"`
	StartDate        *time.Time       `json:"startDate"`
	LastUpdate       *time.Time       `json:"lastUpdate"`
	LastPenaltyCheck *time.Time       `json:"lastPenaltyCheck"`
	TotalPenalty     *decimal.Decimal `json:"totalPenalty"`
	PenaltyEnabled   *bool            `json:"penaltyEnabled"`
	History          []Movement       `json:"history"`
}

// UnmarshalJSON decodes a debtor, defaulting missing balances and flags.
// Missing balances are derived from the history when there is one: the
// current debt is the last balance, the historic debt the sum of the
// movements adding debt, the total penalty the sum of the penalties.
// Missing identity and instants are left empty, see fill.
func (d *Debtor) UnmarshalJSON(data []byte) error {
	var j jdebtor
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	x := Debtor{
		CurrentDebt:    decimal.Zero,
		TotalPenalty:   decimal.Zero,
		PenaltyEnabled: true,
		History:        j.History,
	}
	if j.ID != nil {
		x.ID = *j.ID
	}
	if j.Name != nil {
		x.Name = *j.Name
	}
	added, penalties := decimal.Zero, decimal.Zero
	for _, m := range x.History {
		if m.Amount.IsPositive() {
			added = added.Add(m.Amount)
		}
		if m.Type == MovePenalty {
			penalties = penalties.Add(m.Amount)
		}
	}

	switch {
	case j.CurrentDebt != nil:
		x.CurrentDebt = *j.CurrentDebt
	case len(x.History) > 0:
		x.CurrentDebt = x.History[len(x.History)-1].Balance
	}
	if x.CurrentDebt.IsNegative() {
		return fmt.Errorf("%w: debtor %q has a negative current debt %v", ErrFormat, x.Name, x.CurrentDebt)
	}
	switch {
	case j.HistoricDebt != nil:
		x.HistoricDebt = *j.HistoricDebt
	case len(x.History) > 0:
		x.HistoricDebt = added
	}
	if x.HistoricDebt.LessThan(x.CurrentDebt) {
		x.HistoricDebt = x.CurrentDebt
	}
	switch {
	case j.TotalPenalty != nil:
		x.TotalPenalty = *j.TotalPenalty
	case len(x.History) > 0:
		x.TotalPenalty = penalties
	}
	if j.StartDate != nil {
		x.StartDate = *j.StartDate
	}
	if j.LastUpdate != nil {
		x.LastUpdate = *j.LastUpdate
	}
	if j.LastPenaltyCheck != nil {
		x.LastPenaltyCheck = *j.LastPenaltyCheck
	}
	if j.PenaltyEnabled != nil {
		x.PenaltyEnabled = *j.PenaltyEnabled
	}
	for i, m := range x.History {
		if !m.Type.Valid() {
			return fmt.Errorf("%w: debtor %q movement #%d has unknown type %q", ErrFormat, x.Name, i, m.Type)
		}
	}
	*d = x
	return nil
}

// fill defaults the identity and instants a decoded debtor may lack.
func (d *Debtor) fill(now time.Time, newID func() string) {
	if d.ID == "" {
		d.ID = newID()
	}
	if d.Name == "" {
		d.Name = d.ID
	}
	if d.StartDate.IsZero() {
		d.StartDate = d.LastUpdate
	}
	if d.StartDate.IsZero() {
		d.StartDate = now
	}
	if d.LastUpdate.IsZero() {
		d.LastUpdate = d.StartDate
	}
	if len(d.History) == 0 {
		d.History = []Movement{{Date: d.StartDate, Amount: d.CurrentDebt, Type: MoveInitial, Balance: d.CurrentDebt}}
	}
}

// EncodeDebtors writes debtors as JSONL, one debtor per line.
func EncodeDebtors(w io.Writer, debtors []*Debtor) error {
	enc := json.NewEncoder(w)
	for _, d := range debtors {
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("could not encode debtor %q: %w", d.ID, err)
		}
	}
	return nil
}

// DecodeDebtors reads a JSONL stream of debtors, as written by EncodeDebtors.
func DecodeDebtors(r io.Reader) ([]*Debtor, error) {
	dec := json.NewDecoder(r)
	var debtors []*Debtor
	for {
		d := new(Debtor)
		err := dec.Decode(d)
		if errors.Is(err, io.EOF) {
			return debtors, nil
		}
		if err != nil {
			return nil, fmt.Errorf("could not decode debtor #%d: %w", len(debtors), err)
		}
		debtors = append(debtors, d)
	}
}
