package debts

import "context"

// Gateway is the persistence contract of the ledger. Implementations live in
// the store package.
//
// Every write is atomic: it either fully succeeds or leaves the stored state
// unchanged.
type Gateway interface {
	// LoadAllDebtors returns every stored debtor in insertion order.
	LoadAllDebtors(ctx context.Context) ([]*Debtor, error)
	// LoadConfig returns the stored configuration. found is false when none
	// was ever saved.
	LoadConfig(ctx context.Context) (cfg PenaltyConfig, found bool, err error)
	// SaveDebtor inserts or updates a debtor by ID. New debtors are appended.
	SaveDebtor(ctx context.Context, d *Debtor) error
	// DeleteDebtor removes a debtor. Deleting an unknown ID is not an error.
	DeleteDebtor(ctx context.Context, id string) error
	SaveConfig(ctx context.Context, cfg PenaltyConfig) error
	// ReplaceAllDebtors replaces the whole debtor set, keeping the given order.
	ReplaceAllDebtors(ctx context.Context, debtors []*Debtor) error
}
