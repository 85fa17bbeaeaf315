package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/debts"
	"github.com/etnz/debts/renderer"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type listCmd struct{}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "display every debtor and the totals" }
func (*listCmd) Usage() string {
	return `dm list

  Displays every debtor with its current and historic debt, the penalties
  accrued, and whether it is currently penalized, followed by the totals.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {}

func (c *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	b, closeBook, err := OpenBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeBook()

	printMarkdown(renderer.DebtorsMarkdown(b.Debtors(), options(b)))
	return subcommands.ExitSuccess
}

type historyCmd struct{}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display the movements of a debtor" }
func (*historyCmd) Usage() string {
	return `dm history <debtor>

  Displays the movements of <debtor> (name or ID), newest first.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: history expects a debtor.")
		return subcommands.ExitUsageError
	}
	b, closeBook, err := OpenBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeBook()

	d, status := findDebtor(b, f.Arg(0))
	if d == nil {
		return status
	}
	printMarkdown(renderer.HistoryMarkdown(d, options(b)))
	return subcommands.ExitSuccess
}

type configCmd struct {
	days   int
	amount string
}

func (*configCmd) Name() string     { return "config" }
func (*configCmd) Synopsis() string { return "display or change the penalty rule" }
func (*configCmd) Usage() string {
	return `dm config [-days <n>] [-amount <penalty>]

  Without flags, displays the penalty rule: a debtor owing more than 1 for
  at least <days> days is charged <penalty>.

  With flags, changes the rule and immediately applies the penalties it
  makes due.
`
}

func (c *configCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.days, "days", 0, "days a debt can stay unchanged before a penalty")
	f.StringVar(&c.amount, "amount", "", "amount added to the debt at each penalty")
}

func (c *configCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "Error: config takes no arguments.")
		return subcommands.ExitUsageError
	}
	b, closeBook, err := OpenBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeBook()

	cfg := b.Config()
	set := make(map[string]bool)
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	if len(set) == 0 {
		fmt.Fprintf(stdout, "Penalty of %s every %d days\n", debts.FormatAmount(cfg.PenaltyAmount, *currency), cfg.PenaltyDays)
		return subcommands.ExitSuccess
	}

	if set["days"] {
		cfg.PenaltyDays = c.days
	}
	if set["amount"] {
		if cfg.PenaltyAmount, err = decimal.NewFromString(c.amount); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid amount %q: %v\n", c.amount, err)
			return subcommands.ExitUsageError
		}
	}
	res, err := b.SetConfig(ctx, cfg)
	if errors.Is(err, debts.ErrValidation) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		printMarkdown(renderer.SweepMarkdown(res, options(b)))
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "✅ Successfully set a penalty of %s every %d days\n", debts.FormatAmount(cfg.PenaltyAmount, *currency), cfg.PenaltyDays)
	printMarkdown(renderer.SweepMarkdown(res, options(b)))
	return subcommands.ExitSuccess
}

type sweepCmd struct{}

func (*sweepCmd) Name() string     { return "sweep" }
func (*sweepCmd) Synopsis() string { return "apply the penalties due now" }
func (*sweepCmd) Usage() string {
	return `dm sweep

  Charges a penalty to every debtor whose debt has stayed unchanged for
  too long, then displays the debtors penalized. Running it twice at the
  same instant charges nothing the second time.

  Combine -now with list to see who would be penalized at another date
  without charging anything:

    dm -now 2025-12-31 list
`
}

func (c *sweepCmd) SetFlags(f *flag.FlagSet) {}

func (c *sweepCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	b, closeBook, err := OpenBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeBook()

	res, err := b.Sweep(ctx)
	printMarkdown(renderer.SweepMarkdown(res, options(b)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error applying penalties: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
