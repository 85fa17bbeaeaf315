package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/etnz/debts"
)

const (
	debtorsFile = "debtors.jsonl"
	configFile  = "config.json"
)

// Folder is a Store keeping the ledger in a directory of human readable,
// version-controllable files:
//
//   - debtors.jsonl holds one debtor per line, in insertion order.
//   - config.json holds the penalty configuration.
//
// Files are rewritten through a temporary file and a rename, a failed write
// leaves the previous content in place.
type Folder struct {
	mu  sync.Mutex
	dir string
}

// OpenFolder opens the folder store in dir, creating the directory if needed.
func OpenFolder(dir string) (*Folder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: cannot create store folder: %w", debts.ErrPersistence, err)
	}
	return &Folder{dir: dir}, nil
}

// Dir returns the directory of the store.
func (f *Folder) Dir() string { return f.dir }

func (f *Folder) LoadAllDebtors(context.Context) ([]*debts.Debtor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readDebtors()
}

func (f *Folder) LoadConfig(context.Context) (debts.PenaltyConfig, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var cfg debts.PenaltyConfig
	data, err := os.ReadFile(filepath.Join(f.dir, configFile))
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, false, nil
	}
	if err != nil {
		return cfg, false, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, false, fmt.Errorf("cannot parse %s: %w", configFile, err)
	}
	return cfg, true, nil
}

func (f *Folder) SaveDebtor(ctx context.Context, d *debts.Debtor) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	debtors, err := f.readDebtors()
	if err != nil {
		return err
	}
	return f.writeDebtors(ctx, upsert(debtors, d))
}

func (f *Folder) DeleteDebtor(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	debtors, err := f.readDebtors()
	if err != nil {
		return err
	}
	return f.writeDebtors(ctx, remove(debtors, id))
}

func (f *Folder) SaveConfig(ctx context.Context, cfg debts.PenaltyConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.writeFile(ctx, configFile, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	})
}

func (f *Folder) ReplaceAllDebtors(ctx context.Context, debtors []*debts.Debtor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeDebtors(ctx, debtors)
}

func (f *Folder) Close() error { return nil }

// readDebtors reads the debtors file, a missing file is an empty ledger.
func (f *Folder) readDebtors() ([]*debts.Debtor, error) {
	file, err := os.Open(filepath.Join(f.dir, debtorsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	debtors, err := debts.DecodeDebtors(file)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", debtorsFile, err)
	}
	return debtors, nil
}

func (f *Folder) writeDebtors(ctx context.Context, debtors []*debts.Debtor) error {
	return f.writeFile(ctx, debtorsFile, func(w io.Writer) error {
		return debts.EncodeDebtors(w, debtors)
	})
}

// writeFile atomically replaces the file name with the content written by write.
func (f *Folder) writeFile(ctx context.Context, name string, write func(io.Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("cannot create temporary file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(f.dir, name)); err != nil {
		return fmt.Errorf("cannot replace %s: %w", name, err)
	}
	return nil
}
