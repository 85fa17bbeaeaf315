package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/etnz/debts/renderer"
	"github.com/etnz/debts/scheduler"
	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"
)

type watchCmd struct {
	interval time.Duration
	delay    time.Duration
	duration time.Duration
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "apply penalties periodically" }
func (*watchCmd) Usage() string {
	return `dm watch [-delay <d>] [-interval <d>] [-for <d>]

  Keeps running, applies the penalties due shortly after starting and then
  once per interval. Sending SIGHUP applies them immediately, unless a
  sweep is already running.

  Stops on interrupt, or after the -for duration when set.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	if c.interval <= 0 {
		c.interval = scheduler.DefaultInterval
	}
	if c.delay < 0 {
		c.delay = scheduler.DefaultDelay
	}
	f.DurationVar(&c.delay, "delay", c.delay, "delay before the first sweep")
	f.DurationVar(&c.interval, "interval", c.interval, "period between sweeps")
	f.DurationVar(&c.duration, "for", 0, "stop after this duration, 0 to run until interrupted")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "Error: watch takes no arguments.")
		return subcommands.ExitUsageError
	}
	if c.interval <= 0 || c.delay < 0 {
		fmt.Fprintln(os.Stderr, "Error: -interval must be positive and -delay not negative.")
		return subcommands.ExitUsageError
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if c.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.duration)
		defer cancel()
	}

	now, err := clock()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid -now: %v\n", err)
		return subcommands.ExitUsageError
	}
	b, closeBook, err := OpenBook(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeBook()

	log := logger()
	s := scheduler.New(func(ctx context.Context, at time.Time) error {
		res, err := b.SweepAt(ctx, at)
		if len(res.Updated) > 0 {
			printMarkdown(renderer.SweepMarkdown(res, options(b)))
		}
		return err
	},
		scheduler.WithDelay(c.delay),
		scheduler.WithInterval(c.interval),
		scheduler.WithClock(now),
		scheduler.WithLogger(log),
	)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Start(gctx) })
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				if gctx.Err() != nil {
					return nil
				}
				log.Infow("sweep requested")
				s.Trigger(gctx)
			}
		}
	})
	err = g.Wait()
	s.Wait()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error watching ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Stopped after %d sweeps\n", s.Runs())
	return subcommands.ExitSuccess
}
