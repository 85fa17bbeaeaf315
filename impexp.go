package debts

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/debts/date"
	"github.com/shopspring/decimal"
)

// this file contains functions to handle the import/export formats.
// They should remain human readable and accept files produced by earlier versions.

// Archive is the content of a full export: every debtor and the configuration.
type Archive struct {
	Debtors []*Debtor      `json:"debtors"`
	Config  *PenaltyConfig `json:"config,omitempty"`
}

// JSONFilename returns the name of the JSON export file for the given day.
func JSONFilename(day date.Date) string { return "deudas_" + day.Short() + ".json" }

// SimpleFilename returns the name of the plain-text export file for the given day.
func SimpleFilename(day date.Date) string { return "deudas_simple_" + day.Short() + ".txt" }

// EncodeArchive writes a as an indented JSON document.
func EncodeArchive(w io.Writer, a Archive) error {
	if a.Debtors == nil {
		a.Debtors = []*Debtor{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("could not encode archive: %w", err)
	}
	return nil
}

// EncodeSimpleList writes the "Nombre:Deuda" list: a header line then one
// "name: currentDebt" line per debtor.
func EncodeSimpleList(w io.Writer, debtors []*Debtor) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "Nombre:Deuda")
	for _, d := range debtors {
		fmt.Fprintf(bw, "%s: %s\n", d.Name, d.CurrentDebt)
	}
	return bw.Flush()
}

// DecodeArchive reads a JSON export.
//
// The document must hold a "debtors" array, otherwise ErrFormat is returned.
// Missing debtor fields are defaulted: a new ID from newID, the ID as name,
// penalties enabled, balances derived from the history, the start date from
// the last update or now, and a single initial movement as history. The
// optional configuration is validated.
func DecodeArchive(r io.Reader, now time.Time, newID func() string) (Archive, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Archive{}, fmt.Errorf("could not read archive: %w", err)
	}

	var jobj any
	if err := json.Unmarshal(data, &jobj); err != nil {
		return Archive{}, fmt.Errorf("%w: not a JSON document: %w", ErrFormat, err)
	}
	jval, err := jsonpath.Get("$.debtors", jobj)
	if err != nil {
		return Archive{}, fmt.Errorf("%w: missing debtors: %w", ErrFormat, err)
	}
	if _, ok := jval.([]any); !ok {
		return Archive{}, fmt.Errorf("%w: debtors is not a list", ErrFormat)
	}

	var temp struct {
		Debtors []*Debtor `json:"debtors"`
		Config  *struct {
			PenaltyDays   *int             `json:"penaltyDays"`
			PenaltyAmount *decimal.Decimal `json:"penaltyAmount"`
		} `json:"config"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return Archive{}, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	a := Archive{Debtors: make([]*Debtor, 0, len(temp.Debtors))}
	ids := make(map[string]bool)
	for i, d := range temp.Debtors {
		if d == nil {
			return Archive{}, fmt.Errorf("%w: debtor #%d is null", ErrFormat, i)
		}
		d.fill(now, newID)
		if ids[d.ID] {
			return Archive{}, fmt.Errorf("%w: duplicate debtor id %q", ErrFormat, d.ID)
		}
		ids[d.ID] = true
		if err := d.Check(); err != nil {
			return Archive{}, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		a.Debtors = append(a.Debtors, d)
	}

	if temp.Config != nil {
		cfg := DefaultConfig()
		if temp.Config.PenaltyDays != nil {
			cfg.PenaltyDays = *temp.Config.PenaltyDays
		}
		if temp.Config.PenaltyAmount != nil {
			cfg.PenaltyAmount = *temp.Config.PenaltyAmount
		}
		if err := cfg.Validate(); err != nil {
			return Archive{}, fmt.Errorf("%w: config: %w", ErrFormat, err)
		}
		a.Config = &cfg
	}
	return a, nil
}
