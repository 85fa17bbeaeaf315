package renderer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/etnz/debts"
	"github.com/etnz/debts/date"
	md "github.com/nao1215/markdown"
)

// Options holds the context of a rendering.
type Options struct {
	Currency string              // ISO code used to format amounts, plain numbers if empty
	Now      time.Time           // instant the penalty status is computed at
	Config   debts.PenaltyConfig // penalty rule the status is computed with
}

// status returns the penalty status of the debtor, as shown in the list.
func (o Options) status(d *debts.Debtor) string {
	if d.Overdue(o.Now, o.Config) {
		return "Penalties: " + debts.FormatAmount(d.TotalPenalty, o.Currency)
	}
	return "Not penalized"
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// DebtorsMarkdown renders the list of debtors followed by the totals.
func DebtorsMarkdown(debtors []*debts.Debtor, opts Options) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Debtors")
	if len(debtors) == 0 {
		doc.PlainText("No debtors registered.")
		return doc.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignLeft,
			md.AlignLeft,
			md.AlignLeft,
		},
		Header: []string{"Name", "Current", "Historic", "Last update", "Penalty", "Status"},
		Rows:   [][]string{},
	}
	for _, d := range debtors {
		table.Rows = append(table.Rows, []string{
			d.Name,
			debts.FormatAmount(d.CurrentDebt, opts.Currency),
			debts.FormatAmount(d.HistoricDebt, opts.Currency),
			date.Of(d.LastUpdate).String(),
			onOff(d.PenaltyEnabled),
			opts.status(d),
		})
	}
	doc.Table(table)

	totalsMarkdown(doc, debts.ComputeTotals(debtors), opts)
	return doc.String()
}

// TotalsMarkdown renders the totals of the debtors.
func TotalsMarkdown(t debts.Totals, opts Options) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	totalsMarkdown(doc, t, opts)
	return doc.String()
}

func totalsMarkdown(doc *md.Markdown, t debts.Totals, opts Options) {
	doc.H2("Totals")
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Total", "Amount"},
		Rows: [][]string{
			{"Current debt", debts.FormatAmount(t.Current, opts.Currency)},
			{"Historic debt", debts.FormatAmount(t.Historic, opts.Currency)},
			{"Penalties", debts.FormatAmount(t.Penalty, opts.Currency)},
		},
	})
}

// HistoryMarkdown renders the movements of a debtor, most recent first.
func HistoryMarkdown(d *debts.Debtor, opts Options) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("History for %s", d.Name))
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Date", "Type", "Amount", "Balance"},
		Rows:   [][]string{},
	}
	for _, m := range d.HistoryNewestFirst() {
		amount := debts.FormatAmount(m.Amount, opts.Currency)
		if !m.Amount.IsNegative() {
			amount = "+" + amount
		}
		table.Rows = append(table.Rows, []string{
			date.Of(m.Date).String(),
			m.Type.Label(),
			amount,
			debts.FormatAmount(m.Balance, opts.Currency),
		})
	}
	doc.Table(table)

	return doc.String()
}

// SweepMarkdown renders the outcome of a sweep: the penalized debtors and the totals.
func SweepMarkdown(res debts.SweepResult, opts Options) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Penalty sweep")
	if len(res.Updated) == 0 {
		doc.PlainText("No penalty due.")
	} else {
		items := make([]string, 0, len(res.Updated))
		for _, d := range res.Updated {
			items = append(items, fmt.Sprintf("%s: %s, now owes %s", d.Name,
				debts.FormatSigned(d.History[len(d.History)-1].Amount, opts.Currency),
				debts.FormatAmount(d.CurrentDebt, opts.Currency)))
		}
		doc.BulletList(items...)
	}
	totalsMarkdown(doc, res.Totals, opts)
	return doc.String()
}
