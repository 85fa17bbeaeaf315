// Package sheet exports the ledger as an xlsx spreadsheet.
package sheet

import (
	"fmt"
	"io"
	"time"

	"github.com/etnz/debts"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the workbook.
const (
	DebtorsSheet = "Debtors"
	HistorySheet = "History"
)

type column[T any] struct {
	Header string
	Value  func(T) any
}

func day(t time.Time) any {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

var debtorColumns = []column[*debts.Debtor]{
	{"Name", func(d *debts.Debtor) any { return d.Name }},
	{"Current debt", func(d *debts.Debtor) any { return d.CurrentDebt.InexactFloat64() }},
	{"Historic debt", func(d *debts.Debtor) any { return d.HistoricDebt.InexactFloat64() }},
	{"Total penalty", func(d *debts.Debtor) any { return d.TotalPenalty.InexactFloat64() }},
	{"Start date", func(d *debts.Debtor) any { return day(d.StartDate) }},
	{"Last update", func(d *debts.Debtor) any { return day(d.LastUpdate) }},
	{"Penalties", func(d *debts.Debtor) any { return d.PenaltyEnabled }},
	{"ID", func(d *debts.Debtor) any { return d.ID }},
}

// entry is a movement with the name of its debtor.
type entry struct {
	Name string
	debts.Movement
}

var historyColumns = []column[entry]{
	{"Name", func(e entry) any { return e.Name }},
	{"Date", func(e entry) any { return day(e.Date) }},
	{"Type", func(e entry) any { return e.Type.Label() }},
	{"Amount", func(e entry) any { return e.Amount.InexactFloat64() }},
	{"Balance", func(e entry) any { return e.Balance.InexactFloat64() }},
}

// writeRows writes a header row then one row per item.
func writeRows[T any](f *excelize.File, sheet string, cols []column[T], items []T) error {
	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col.Header); err != nil {
			return err
		}
	}
	for rowIdx, item := range items {
		for colIdx, col := range cols {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, col.Value(item)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Export writes a workbook with a Debtors sheet, one row per debtor and a
// totals row, and a History sheet, one row per movement.
func Export(w io.Writer, debtors []*debts.Debtor) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), DebtorsSheet); err != nil {
		return fmt.Errorf("cannot name sheet: %w", err)
	}
	_ = f.SetDocProps(&excelize.DocProperties{Creator: "dm", Title: "Debts"})

	if err := writeRows(f, DebtorsSheet, debtorColumns, debtors); err != nil {
		return fmt.Errorf("cannot write debtors: %w", err)
	}
	t := debts.ComputeTotals(debtors)
	totals := []any{"Total", t.Current.InexactFloat64(), t.Historic.InexactFloat64(), t.Penalty.InexactFloat64()}
	cell, _ := excelize.CoordinatesToCellName(1, len(debtors)+2)
	if err := f.SetSheetRow(DebtorsSheet, cell, &totals); err != nil {
		return fmt.Errorf("cannot write totals: %w", err)
	}

	if _, err := f.NewSheet(HistorySheet); err != nil {
		return fmt.Errorf("cannot create history sheet: %w", err)
	}
	var entries []entry
	for _, d := range debtors {
		for _, m := range d.History {
			entries = append(entries, entry{Name: d.Name, Movement: m})
		}
	}
	if err := writeRows(f, HistorySheet, historyColumns, entries); err != nil {
		return fmt.Errorf("cannot write history: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("cannot write workbook: %w", err)
	}
	return nil
}
