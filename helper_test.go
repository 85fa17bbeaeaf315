package debts

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var errDisk = errors.New("disk full")

// t0 is the reference instant of the tests.
var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// dec parses a decimal, panicking on error.
func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// days returns t0 advanced by n days.
func days(n int) time.Time { return t0.Add(time.Duration(n) * 24 * time.Hour) }

// fakeClock is a settable clock.
type fakeClock struct{ t time.Time }

func newClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time  { return c.t }
func (c *fakeClock) Set(t time.Time) { c.t = t }
func (c *fakeClock) Advance(n int)   { c.t = c.t.Add(time.Duration(n) * 24 * time.Hour) }

// seqIDs returns a generator of predictable ids: id-1, id-2, ...
func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// fakeGateway is an in-memory Gateway with failure injection.
type fakeGateway struct {
	debtors []*Debtor
	cfg     *PenaltyConfig

	loadErr    error
	saveErr    error           // fails every SaveDebtor
	failNames  map[string]bool // fails SaveDebtor for these debtor names
	deleteErr  error
	configErr  error
	replaceErr error
	replaces   int
}

func (g *fakeGateway) LoadAllDebtors(context.Context) ([]*Debtor, error) {
	if g.loadErr != nil {
		return nil, g.loadErr
	}
	return cloneAll(g.debtors), nil
}

func (g *fakeGateway) LoadConfig(context.Context) (PenaltyConfig, bool, error) {
	if g.cfg == nil {
		return PenaltyConfig{}, false, nil
	}
	return *g.cfg, true, nil
}

func (g *fakeGateway) SaveDebtor(_ context.Context, d *Debtor) error {
	if g.saveErr != nil {
		return g.saveErr
	}
	if g.failNames[d.Name] {
		return errDisk
	}
	i := slices.IndexFunc(g.debtors, func(e *Debtor) bool { return e.ID == d.ID })
	if i < 0 {
		g.debtors = append(g.debtors, d.Clone())
	} else {
		g.debtors[i] = d.Clone()
	}
	return nil
}

func (g *fakeGateway) DeleteDebtor(_ context.Context, id string) error {
	if g.deleteErr != nil {
		return g.deleteErr
	}
	g.debtors = slices.DeleteFunc(g.debtors, func(e *Debtor) bool { return e.ID == id })
	return nil
}

func (g *fakeGateway) SaveConfig(_ context.Context, cfg PenaltyConfig) error {
	if g.configErr != nil {
		return g.configErr
	}
	g.cfg = &cfg
	return nil
}

func (g *fakeGateway) ReplaceAllDebtors(_ context.Context, debtors []*Debtor) error {
	g.replaces++
	if g.replaceErr != nil {
		return g.replaceErr
	}
	g.debtors = cloneAll(debtors)
	return nil
}

// stored returns the debtor id as stored in the gateway.
func (g *fakeGateway) stored(t *testing.T, id string) *Debtor {
	t.Helper()
	i := slices.IndexFunc(g.debtors, func(e *Debtor) bool { return e.ID == id })
	require.GreaterOrEqual(t, i, 0, "debtor %q not stored", id)
	return g.debtors[i]
}

// openBook opens a Book on gw with a controlled clock and sequential ids.
func openBook(t *testing.T, gw *fakeGateway, clock *fakeClock) *Book {
	t.Helper()
	b, err := Open(context.Background(), gw, WithClock(clock.Now), WithIDGenerator(seqIDs()))
	require.NoError(t, err)
	return b
}

// requireInvariants checks the balance invariants of every debtor.
func requireInvariants(t *testing.T, debtors ...*Debtor) {
	t.Helper()
	for _, d := range debtors {
		require.NoError(t, d.Check())
	}
}
