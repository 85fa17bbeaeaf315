package store

import (
	"context"
	"slices"
	"sync"

	"github.com/etnz/debts"
)

// Memory is a Store keeping everything in memory. Values are copied in and
// out so callers never share state with it.
type Memory struct {
	mu      sync.Mutex
	debtors []*debts.Debtor
	cfg     *debts.PenaltyConfig
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) LoadAllDebtors(context.Context) ([]*debts.Debtor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(m.debtors), nil
}

func (m *Memory) LoadConfig(context.Context) (debts.PenaltyConfig, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg == nil {
		return debts.PenaltyConfig{}, false, nil
	}
	return *m.cfg, true, nil
}

func (m *Memory) SaveDebtor(_ context.Context, d *debts.Debtor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debtors = upsert(m.debtors, d.Clone())
	return nil
}

func (m *Memory) DeleteDebtor(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debtors = remove(m.debtors, id)
	return nil
}

func (m *Memory) SaveConfig(_ context.Context, cfg debts.PenaltyConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = &cfg
	return nil
}

func (m *Memory) ReplaceAllDebtors(_ context.Context, debtors []*debts.Debtor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debtors = cloneAll(debtors)
	return nil
}

func (m *Memory) Close() error { return nil }

func cloneAll(debtors []*debts.Debtor) []*debts.Debtor {
	c := make([]*debts.Debtor, len(debtors))
	for i, d := range debtors {
		c[i] = d.Clone()
	}
	return c
}

// upsert replaces the debtor with the same ID or appends d.
func upsert(debtors []*debts.Debtor, d *debts.Debtor) []*debts.Debtor {
	if i := slices.IndexFunc(debtors, func(e *debts.Debtor) bool { return e.ID == d.ID }); i >= 0 {
		debtors[i] = d
		return debtors
	}
	return append(debtors, d)
}

func remove(debtors []*debts.Debtor, id string) []*debts.Debtor {
	return slices.DeleteFunc(debtors, func(e *debts.Debtor) bool { return e.ID == id })
}
