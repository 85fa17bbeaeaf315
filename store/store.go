// Package store implements the persistence gateways of the ledger: an
// embedded SQLite database, a folder of human readable files, and memory.
package store

import (
	"fmt"

	"github.com/etnz/debts"
)

// Store is a debts.Gateway holding resources until closed.
type Store interface {
	debts.Gateway
	Close() error
}

// Kinds of store.
const (
	KindSQLite = "sqlite"
	KindFolder = "folder"
	KindMemory = "memory"
)

// Kinds lists the supported kinds of store.
var Kinds = []string{KindSQLite, KindFolder, KindMemory}

// Open opens a store of the given kind. path is the database file for
// sqlite, the directory for folder, and is ignored for memory.
func Open(kind, path string) (Store, error) {
	switch kind {
	case KindSQLite:
		return OpenSQL(path)
	case KindFolder:
		return OpenFolder(path)
	case KindMemory:
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("%w: unknown store kind %q", debts.ErrPersistence, kind)
}
