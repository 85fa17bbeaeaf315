// Package debts provides the core of a local-first ledger of money owed by a
// small set of named debtors, with automatic late-payment penalties.
//
// The core functionalities include:
//   - Ledger Entry Model: a Debtor aggregates its balances and an append-only
//     history of Movements (initial debt, increments, payments, penalties).
//   - Penalty Policy: a pure function deciding whether a flat penalty is due
//     for a debtor at a given instant.
//   - Ledger Engine: the Book owns the debtor collection and the penalty
//     configuration, applies movements and sweeps, and keeps memory and
//     storage in step.
//   - Data Persistence: a Gateway contract implemented by the store package,
//     and JSON/plain-text import and export of the whole ledger.
//
// This package serves as the foundational logic for the `dm` command-line
// tool. Presentation lives in the renderer and sheet packages, scheduling of
// the daily sweep in the scheduler package.
package debts
