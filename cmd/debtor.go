package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/debts"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type addCmd struct{}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "register a new debtor" }
func (*addCmd) Usage() string {
	return `dm add <name> [<initial debt>]

  Registers a new debtor owing the initial debt (0 by default), with
  penalties enabled.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 || f.NArg() > 2 {
		fmt.Fprintln(os.Stderr, "Error: add expects a name and an optional initial debt.")
		return subcommands.ExitUsageError
	}
	initial := decimal.Zero
	if f.NArg() == 2 {
		var err error
		if initial, err = decimal.NewFromString(f.Arg(1)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid initial debt %q: %v\n", f.Arg(1), err)
			return subcommands.ExitUsageError
		}
	}

	b, closeBook, err := OpenBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeBook()

	d, err := b.AddDebtor(ctx, f.Arg(0), initial)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding debtor: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "✅ Successfully added %s owing %s\n", d.Name, debts.FormatAmount(d.CurrentDebt, *currency))
	return subcommands.ExitSuccess
}

type moveCmd struct {
	pay bool
}

func (*moveCmd) Name() string     { return "move" }
func (*moveCmd) Synopsis() string { return "record an increment or a payment of a debt" }
func (*moveCmd) Usage() string {
	return `dm move [-pay] <debtor> <amount>

  Records a movement of the debt of <debtor> (name or ID). Positive amounts
  increase the debt, negative amounts are payments. Use -pay to record a
  payment with a positive amount, or "--" before a negative amount.

  A payment larger than the current debt is rejected.
`
}

func (c *moveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.pay, "pay", false, "record the amount as a payment")
}

func (c *moveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Error: move expects a debtor and an amount.")
		return subcommands.ExitUsageError
	}
	amount, err := decimal.NewFromString(f.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid amount %q: %v\n", f.Arg(1), err)
		return subcommands.ExitUsageError
	}
	if c.pay {
		amount = amount.Abs().Neg()
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
	d, err = b.ApplyMovement(ctx, d.ID, amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error recording movement: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "✅ Successfully recorded %s for %s, now owing %s\n",
		debts.FormatSigned(amount, *currency), d.Name, debts.FormatAmount(d.CurrentDebt, *currency))
	return subcommands.ExitSuccess
}

type penaltyCmd struct{}

func (*penaltyCmd) Name() string     { return "penalty" }
func (*penaltyCmd) Synopsis() string { return "enable, disable or toggle penalties of a debtor" }
func (*penaltyCmd) Usage() string {
	return `dm penalty <debtor> [on|off|toggle]

  Changes whether late-payment penalties accrue for <debtor>. Without a
  state, the current one is toggled.
`
}

func (c *penaltyCmd) SetFlags(f *flag.FlagSet) {}

func (c *penaltyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 || f.NArg() > 2 {
		fmt.Fprintln(os.Stderr, "Error: penalty expects a debtor and an optional state.")
		return subcommands.ExitUsageError
	}
	state := "toggle"
	if f.NArg() == 2 {
		state = f.Arg(1)
	}
	if state != "on" && state != "off" && state != "toggle" {
		fmt.Fprintf(os.Stderr, "Error: unknown state %q, want on, off or toggle.\n", state)
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
	switch state {
	case "toggle":
		d, err = b.TogglePenalty(ctx, d.ID)
	default:
		d, err = b.SetPenaltyEnabled(ctx, d.ID, state == "on")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error changing penalties: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "✅ Successfully turned penalties %s for %s\n", onOff(d.PenaltyEnabled), d.Name)
	return subcommands.ExitSuccess
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

type deleteCmd struct {
	yes bool
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "remove a debtor and its history" }
func (*deleteCmd) Usage() string {
	return `dm delete -yes <debtor>

  Removes <debtor> and its whole history. This cannot be undone, -yes is
  required to confirm.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "confirm the deletion")
}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: delete expects a debtor.")
		return subcommands.ExitUsageError
	}
	if !c.yes {
		fmt.Fprintf(os.Stderr, "Error: deleting %q cannot be undone, confirm with -yes.\n", f.Arg(0))
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
	if err := b.DeleteDebtor(ctx, d.ID); err != nil {
		fmt.Fprintf(os.Stderr, "Error deleting debtor: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "✅ Successfully deleted %s\n", d.Name)
	return subcommands.ExitSuccess
}
