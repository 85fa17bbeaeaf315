package debts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Book is the ledger engine. It owns the debtors, in insertion order, and the
// penalty configuration, and keeps them in step with a Gateway.
//
// Every mutation works on a copy of the debtor, persists it, and only then
// replaces the in-memory debtor: memory and storage either both change or
// neither does. Book methods are safe to call from several goroutines, they
// are serialized.
type Book struct {
	mu      sync.Mutex
	gw      Gateway
	debtors []*Debtor
	cfg     PenaltyConfig

	clock func() time.Time
	newID func() string
	log   *zap.SugaredLogger
}

// Option configures a Book.
type Option func(*Book)

// WithClock sets the source of the current instant.
func WithClock(clock func() time.Time) Option { return func(b *Book) { b.clock = clock } }

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) Option { return func(b *Book) { b.log = log } }

// WithIDGenerator sets the generator of new debtor IDs.
func WithIDGenerator(newID func() string) Option { return func(b *Book) { b.newID = newID } }

// Open loads the debtors and the configuration from gw. When no configuration
// was ever saved, DefaultConfig is used.
func Open(ctx context.Context, gw Gateway, opts ...Option) (*Book, error) {
	b := &Book{
		gw:    gw,
		clock: time.Now,
		newID: uuid.NewString,
		log:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(b)
	}

	debtors, err := gw.LoadAllDebtors(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loading debtors: %w", ErrPersistence, err)
	}
	cfg, found, err := gw.LoadConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loading config: %w", ErrPersistence, err)
	}
	if !found {
		cfg = DefaultConfig()
	}
	b.debtors, b.cfg = debtors, cfg
	b.log.Infow("ledger opened", "debtors", len(debtors), "penaltyDays", cfg.PenaltyDays, "penaltyAmount", cfg.PenaltyAmount)
	return b, nil
}

// now returns the current instant without monotonic reading.
func (b *Book) now() time.Time { return b.clock().Round(0) }

// index returns the position of the debtor id, or -1.
func (b *Book) index(id string) int {
	for i, d := range b.debtors {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// AddDebtor creates and stores a new debtor.
func (b *Book) AddDebtor(ctx context.Context, name string, initialDebt decimal.Decimal) (*Debtor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	d, err := NewDebtor(b.newID(), name, initialDebt, b.now())
	if err != nil {
		return nil, err
	}
	if err := b.gw.SaveDebtor(ctx, d); err != nil {
		return nil, fmt.Errorf("%w: saving debtor %q: %w", ErrPersistence, d.Name, err)
	}
	b.debtors = append(b.debtors, d)
	b.log.Infow("debtor added", "debtor", d.Name, "amount", initialDebt)
	return d.Clone(), nil
}

// update applies fn to a copy of the debtor id, persists the copy and swaps it in.
func (b *Book) update(ctx context.Context, id string, fn func(d *Debtor) error) (*Debtor, error) {
	i := b.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	d := b.debtors[i].Clone()
	if err := fn(d); err != nil {
		return nil, err
	}
	if err := b.gw.SaveDebtor(ctx, d); err != nil {
		return nil, fmt.Errorf("%w: saving debtor %q: %w", ErrPersistence, d.Name, err)
	}
	b.debtors[i] = d
	return d.Clone(), nil
}

// ApplyMovement records a signed movement for the debtor id: positive amounts
// increase the debt, negative amounts are payments.
func (b *Book) ApplyMovement(ctx context.Context, id string, amount decimal.Decimal) (*Debtor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	d, err := b.update(ctx, id, func(d *Debtor) error { return d.ApplyMovement(amount, b.now()) })
	if err != nil {
		return nil, err
	}
	b.log.Infow("movement applied", "debtor", d.Name, "amount", amount, "balance", d.CurrentDebt)
	return d, nil
}

// SetPenaltyEnabled enables or disables penalties for the debtor id.
func (b *Book) SetPenaltyEnabled(ctx context.Context, id string, enabled bool) (*Debtor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.update(ctx, id, func(d *Debtor) error {
		d.SetPenaltyEnabled(enabled)
		return nil
	})
}

// TogglePenalty flips the penalty flag of the debtor id.
func (b *Book) TogglePenalty(ctx context.Context, id string) (*Debtor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.update(ctx, id, func(d *Debtor) error {
		d.SetPenaltyEnabled(!d.PenaltyEnabled)
		return nil
	})
}

// DeleteDebtor removes the debtor id from the ledger and the storage.
func (b *Book) DeleteDebtor(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err := b.gw.DeleteDebtor(ctx, id); err != nil {
		return fmt.Errorf("%w: deleting debtor %q: %w", ErrPersistence, b.debtors[i].Name, err)
	}
	b.log.Infow("debtor deleted", "debtor", b.debtors[i].Name)
	b.debtors = append(b.debtors[:i:i], b.debtors[i+1:]...)
	return nil
}

// Config returns the current penalty configuration.
func (b *Book) Config() PenaltyConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg
}

// SetConfig validates and saves the configuration, then sweeps the ledger
// with it.
func (b *Book) SetConfig(ctx context.Context, cfg PenaltyConfig) (SweepResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := cfg.Validate(); err != nil {
		return SweepResult{}, err
	}
	if err := b.gw.SaveConfig(ctx, cfg); err != nil {
		return SweepResult{}, fmt.Errorf("%w: saving config: %w", ErrPersistence, err)
	}
	b.cfg = cfg
	return b.sweep(ctx, b.now())
}

// Sweep applies every penalty due now and persists the penalized debtors.
//
// A debtor whose save fails keeps its previous state, the others are still
// committed. Failures are reported as a joined ErrPersistence.
func (b *Book) Sweep(ctx context.Context) (SweepResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sweep(ctx, b.now())
}

// SweepAt is like Sweep at the given instant, the one of a scheduler run.
func (b *Book) SweepAt(ctx context.Context, now time.Time) (SweepResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sweep(ctx, now.Round(0))
}

func (b *Book) sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	res := Sweep(b.debtors, now, b.cfg)

	var errs []error
	committed := make([]*Debtor, 0, len(res.Updated))
	for _, d := range res.Updated {
		if err := b.gw.SaveDebtor(ctx, d); err != nil {
			b.log.Warnw("penalty not saved", "debtor", d.Name, "error", err)
			errs = append(errs, fmt.Errorf("saving debtor %q: %w", d.Name, err))
			continue
		}
		b.debtors[b.index(d.ID)] = d
		committed = append(committed, d.Clone())
		b.log.Infow("penalty applied", "debtor", d.Name, "amount", b.cfg.PenaltyAmount, "balance", d.CurrentDebt)
	}

	res = SweepResult{Debtors: cloneAll(b.debtors), Updated: committed, Totals: ComputeTotals(b.debtors)}
	if len(errs) > 0 {
		return res, fmt.Errorf("%w: %w", ErrPersistence, errors.Join(errs...))
	}
	return res, nil
}

func cloneAll(debtors []*Debtor) []*Debtor {
	c := make([]*Debtor, len(debtors))
	for i, d := range debtors {
		c[i] = d.Clone()
	}
	return c
}

// Debtors returns a copy of every debtor in insertion order.
func (b *Book) Debtors() []*Debtor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneAll(b.debtors)
}

// Debtor returns a copy of the debtor id.
func (b *Book) Debtor(id string) (*Debtor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return b.debtors[i].Clone(), nil
}

// FindByName returns a copy of the debtor whose ID is name, or else of the
// only debtor whose name matches, ignoring case. A name shared by several
// debtors is ErrAmbiguous, the error lists their IDs.
func (b *Book) FindByName(name string) (*Debtor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	name = strings.TrimSpace(name)
	if i := b.index(name); i >= 0 {
		return b.debtors[i].Clone(), nil
	}
	var found []*Debtor
	for _, d := range b.debtors {
		if strings.EqualFold(d.Name, name) {
			found = append(found, d)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	case 1:
		return found[0].Clone(), nil
	}
	ids := make([]string, len(found))
	for i, d := range found {
		ids[i] = d.ID
	}
	return nil, fmt.Errorf("%w: %q is the name of %s, use an ID", ErrAmbiguous, name, strings.Join(ids, ", "))
}

// Totals returns the balances summed over every debtor.
func (b *Book) Totals() Totals {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ComputeTotals(b.debtors)
}

// Export writes every debtor and the configuration as a JSON archive.
func (b *Book) Export(w io.Writer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cfg := b.cfg
	return EncodeArchive(w, Archive{Debtors: b.debtors, Config: &cfg})
}

// ExportSimple writes the plain-text list of debtors and their current debt.
func (b *Book) ExportSimple(w io.Writer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return EncodeSimpleList(w, b.debtors)
}

// Import replaces every debtor, and the configuration when the archive holds
// one, with the content of a JSON archive. Either everything is replaced or
// nothing is.
func (b *Book) Import(ctx context.Context, r io.Reader) (Archive, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, err := DecodeArchive(r, b.now(), b.newID)
	if err != nil {
		return Archive{}, err
	}
	if err := b.gw.ReplaceAllDebtors(ctx, a.Debtors); err != nil {
		return Archive{}, fmt.Errorf("%w: replacing debtors: %w", ErrPersistence, err)
	}
	cfg := b.cfg
	if a.Config != nil {
		if err := b.gw.SaveConfig(ctx, *a.Config); err != nil {
			err = fmt.Errorf("saving config: %w", err)
			if rerr := b.gw.ReplaceAllDebtors(ctx, b.debtors); rerr != nil {
				err = errors.Join(err, fmt.Errorf("restoring debtors: %w", rerr))
			}
			return Archive{}, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		cfg = *a.Config
	}
	b.debtors, b.cfg = a.Debtors, cfg
	b.log.Infow("ledger imported", "debtors", len(a.Debtors))
	return Archive{Debtors: cloneAll(a.Debtors), Config: a.Config}, nil
}
