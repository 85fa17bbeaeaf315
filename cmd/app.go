// Package cmd implements the dm command line tool to manage debts.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/debts"
	"github.com/etnz/debts/config"
	"github.com/etnz/debts/date"
	"github.com/etnz/debts/renderer"
	"github.com/etnz/debts/store"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander, cfg *config.Config) {
	for _, cmd := range Commands(cfg) {
		c.Register(cmd, group(cmd.Name()))
	}
}

// Commands returns every subcommand of the tool, configured with cfg.
func Commands(cfg *config.Config) []subcommands.Command {
	return []subcommands.Command{
		&addCmd{},
		&moveCmd{},
		&penaltyCmd{},
		&deleteCmd{},
		&listCmd{},
		&historyCmd{},
		&configCmd{},
		&sweepCmd{},
		&exportCmd{},
		&importCmd{},
		&watchCmd{interval: cfg.SweepInterval, delay: cfg.SweepDelay},
		&topicCmd{},
	}
}

func group(name string) string {
	switch name {
	case "add", "move", "penalty", "delete":
		return "debtors"
	case "list", "history":
		return "reports"
	case "export", "import":
		return "files"
	case "topic":
		return "help"
	}
	return "penalties"
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var storeKind = flag.String("store", "sqlite", "Kind of store: sqlite, folder or memory")
var storePath = flag.String("path", "debts.db", "Path to the sqlite database file, or to the folder store")
var currency = flag.String("currency", "", "ISO 4217 code used to display amounts (e.g. EUR)")
var nowFlag = flag.String("now", "", "Run as if the current instant was this one (RFC 3339 or YYYY-MM-DD)")
var Verbose = flag.Bool("v", false, "Verbose logging")

// stdout is where commands print their results.
var stdout io.Writer = os.Stdout

// ApplyConfig makes the configuration the value of the global flags, before
// the command line is parsed: flags win over the environment.
func ApplyConfig(cfg *config.Config) {
	*storeKind = cfg.Store
	*storePath = cfg.Path
	*currency = cfg.Currency
	*Verbose = cfg.Verbose
}

// logger returns the logger of the tool.
func logger() *zap.SugaredLogger { return config.NewLogger(*Verbose) }

// clock returns the source of the current instant, honoring -now.
func clock() (func() time.Time, error) {
	if *nowFlag == "" {
		return time.Now, nil
	}
	now, err := date.ParseTime(*nowFlag)
	if err != nil {
		return nil, err
	}
	return func() time.Time { return now }, nil
}

// today returns the current day, honoring -now.
func today() date.Date {
	now, err := clock()
	if err != nil {
		return date.Today()
	}
	return date.Of(now())
}

// OpenBook opens the store selected by the global flags and loads the ledger.
// The returned function closes the store.
func OpenBook(ctx context.Context) (*debts.Book, func(), error) {
	now, err := clock()
	if err != nil {
		return nil, nil, err
	}
	s, err := store.Open(*storeKind, *storePath)
	if err != nil {
		return nil, nil, err
	}
	b, err := debts.Open(ctx, s, debts.WithClock(now), debts.WithLogger(logger()))
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return b, func() { s.Close() }, nil
}

// options returns the rendering options of the reports.
func options(b *debts.Book) renderer.Options {
	now, err := clock()
	if err != nil {
		now = time.Now
	}
	return renderer.Options{Currency: *currency, Now: now(), Config: b.Config()}
}

// printMarkdown renders markdown for the terminal.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		out = md
	}
	fmt.Fprint(stdout, out)
}

// findDebtor resolves a debtor by name or ID.
func findDebtor(b *debts.Book, nameOrID string) (*debts.Debtor, subcommands.ExitStatus) {
	d, err := b.FindByName(nameOrID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	return d, subcommands.ExitSuccess
}
