package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/debts"
	"github.com/etnz/debts/renderer"
	"github.com/etnz/debts/sheet"
	"github.com/google/subcommands"
)

// formats are the export formats, in the order they are documented.
var formats = []string{"json", "simple", "xlsx", "md", "html"}

type exportCmd struct {
	format string
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the ledger to a file" }
func (*exportCmd) Usage() string {
	return `dm export [-format json|simple|xlsx|md|html] [-o <file>]

  Writes the ledger in one of the formats:

    json    every debtor and the penalty rule, readable by import
    simple  one "name: debt" line per debtor
    xlsx    a spreadsheet with the debtors and their movements
    md      a markdown report
    html    an HTML report

  json, simple and xlsx are written to a file named after the current day
  (e.g. deudas_5-3-2025.json), md and html to the standard output.
  Use -o to choose the file, "-" for the standard output.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "json", "export format: "+strings.Join(formats, ", "))
	f.StringVar(&c.output, "o", "", "output file, \"-\" for the standard output")
}

// defaultOutput returns the file the format is written to when -o is not set.
func (c *exportCmd) defaultOutput() string {
	day := today()
	switch c.format {
	case "json":
		return debts.JSONFilename(day)
	case "simple":
		return debts.SimpleFilename(day)
	case "xlsx":
		return strings.TrimSuffix(debts.JSONFilename(day), ".json") + ".xlsx"
	}
	return "-"
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "Error: export takes no arguments.")
		return subcommands.ExitUsageError
	}
	b, closeBook, err := OpenBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeBook()

	var buf bytes.Buffer
	switch c.format {
	case "json":
		err = b.Export(&buf)
	case "simple":
		err = b.ExportSimple(&buf)
	case "xlsx":
		err = sheet.Export(&buf, b.Debtors())
	case "md":
		buf.WriteString(report(b))
	case "html":
		var fragment string
		if fragment, err = renderer.HTML(report(b)); err == nil {
			buf.WriteString(renderer.HTMLPage("Debtors", fragment))
		}
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q, want one of %s.\n", c.format, strings.Join(formats, ", "))
		return subcommands.ExitUsageError
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	output := c.output
	if output == "" {
		output = c.defaultOutput()
	}
	if output == "-" {
		if _, err := io.Copy(stdout, &buf); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing export: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing export: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "✅ Successfully exported %d debtors to %s\n", len(b.Debtors()), output)
	return subcommands.ExitSuccess
}

// report returns the markdown report of the whole ledger: the list of
// debtors followed by the history of each.
func report(b *debts.Book) string {
	opts := options(b)
	var sb strings.Builder
	sb.WriteString(renderer.DebtorsMarkdown(b.Debtors(), opts))
	for _, d := range b.Debtors() {
		sb.WriteString("\n")
		sb.WriteString(renderer.HistoryMarkdown(d, opts))
	}
	return sb.String()
}

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replace the ledger with a JSON export" }
func (*importCmd) Usage() string {
	return `dm import <file>

  Replaces every debtor, and the penalty rule when the file holds one, with
  the content of a JSON export. Use "-" to read the standard input.

  Missing fields are given their default value. A file that cannot be
  read leaves the ledger unchanged.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: import expects a file.")
		return subcommands.ExitUsageError
	}
	var r io.Reader = os.Stdin
	if name := f.Arg(0); name != "-" {
		file, err := os.Open(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening %q: %v\n", name, err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		r = file
	}

	b, closeBook, err := OpenBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeBook()

	a, err := b.Import(ctx, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing %q: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "✅ Successfully imported %d debtors\n", len(a.Debtors))
	if a.Config != nil {
		fmt.Fprintf(stdout, "Penalty of %s every %d days\n", debts.FormatAmount(a.Config.PenaltyAmount, *currency), a.Config.PenaltyDays)
	}
	return subcommands.ExitSuccess
}
