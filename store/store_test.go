package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/etnz/debts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// newDebtor creates a debtor with a couple of movements.
func newDebtor(t *testing.T, id, name string, initial int64) *debts.Debtor {
	t.Helper()
	d, err := debts.NewDebtor(id, name, decimal.NewFromInt(initial), t0)
	require.NoError(t, err)
	require.NoError(t, d.ApplyMovement(decimal.RequireFromString("12.34"), t0.Add(24*time.Hour)))
	return d
}

// opener opens, or reopens, the same store.
type opener func(t *testing.T) Store

// stores returns an opener of a fresh store of each kind.
func stores(t *testing.T) map[string]opener {
	t.Helper()
	dir := t.TempDir()
	mem := NewMemory()
	open := func(kind, path string) opener {
		return func(t *testing.T) Store {
			s, err := Open(kind, path)
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		}
	}
	return map[string]opener{
		KindSQLite: open(KindSQLite, filepath.Join(dir, "debts.db")),
		KindFolder: open(KindFolder, filepath.Join(dir, "folder")),
		KindMemory: func(*testing.T) Store { return mem },
	}
}

// requireSame checks that got holds the same debtors as want, in order.
func requireSame(t *testing.T, want, got []*debts.Debtor) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.True(t, want[i].Equal(got[i]), "debtor %d differs:\nwant %+v\ngot  %+v", i, want[i], got[i])
	}
}

func TestGatewayContract(t *testing.T) {
	ctx := context.Background()
	for kind, open := range stores(t) {
		t.Run(kind, func(t *testing.T) {
			s := open(t)

			debtors, err := s.LoadAllDebtors(ctx)
			require.NoError(t, err)
			assert.Empty(t, debtors)
			_, found, err := s.LoadConfig(ctx)
			require.NoError(t, err)
			assert.False(t, found)

			ana := newDebtor(t, "a", "Ana", 500)
			bob := newDebtor(t, "b", "Bob", 20)
			cid := newDebtor(t, "c", "Cid", 0)
			for _, d := range []*debts.Debtor{ana, bob, cid} {
				require.NoError(t, s.SaveDebtor(ctx, d))
			}

			// updates keep the insertion order.
			require.NoError(t, ana.ApplyMovement(decimal.NewFromInt(-100), t0.Add(48*time.Hour)))
			ana.SetPenaltyEnabled(false)
			require.NoError(t, s.SaveDebtor(ctx, ana))

			debtors, err = s.LoadAllDebtors(ctx)
			require.NoError(t, err)
			requireSame(t, []*debts.Debtor{ana, bob, cid}, debtors)

			require.NoError(t, s.DeleteDebtor(ctx, "b"))
			require.NoError(t, s.DeleteDebtor(ctx, "unknown"))
			debtors, err = s.LoadAllDebtors(ctx)
			require.NoError(t, err)
			requireSame(t, []*debts.Debtor{ana, cid}, debtors)

			// a debtor saved after a deletion goes last.
			dan := newDebtor(t, "d", "Dan", 7)
			require.NoError(t, s.SaveDebtor(ctx, dan))
			debtors, err = s.LoadAllDebtors(ctx)
			require.NoError(t, err)
			requireSame(t, []*debts.Debtor{ana, cid, dan}, debtors)

			cfg := debts.PenaltyConfig{PenaltyDays: 10, PenaltyAmount: decimal.RequireFromString("2.5")}
			require.NoError(t, s.SaveConfig(ctx, cfg))
			cfg.PenaltyDays = 12
			require.NoError(t, s.SaveConfig(ctx, cfg))
			got, found, err := s.LoadConfig(ctx)
			require.NoError(t, err)
			assert.True(t, found)
			assert.True(t, cfg.Equal(got))

			eve := newDebtor(t, "e", "Eve", 1)
			require.NoError(t, s.ReplaceAllDebtors(ctx, []*debts.Debtor{eve, ana}))
			debtors, err = s.LoadAllDebtors(ctx)
			require.NoError(t, err)
			requireSame(t, []*debts.Debtor{eve, ana}, debtors)

			// everything survives a reopening.
			require.NoError(t, s.Close())
			s = open(t)
			debtors, err = s.LoadAllDebtors(ctx)
			require.NoError(t, err)
			requireSame(t, []*debts.Debtor{eve, ana}, debtors)
			got, found, err = s.LoadConfig(ctx)
			require.NoError(t, err)
			assert.True(t, found)
			assert.True(t, cfg.Equal(got))
		})
	}
}

func TestGatewayWithBook(t *testing.T) {
	ctx := context.Background()
	for kind, open := range stores(t) {
		t.Run(kind, func(t *testing.T) {
			now := t0
			clock := func() time.Time { return now }

			b, err := debts.Open(ctx, open(t), debts.WithClock(clock))
			require.NoError(t, err)
			ana, err := b.AddDebtor(ctx, "Ana", decimal.NewFromInt(500))
			require.NoError(t, err)
			now = now.Add(31 * 24 * time.Hour)
			res, err := b.Sweep(ctx)
			require.NoError(t, err)
			require.Len(t, res.Updated, 1)

			reopened, err := debts.Open(ctx, open(t), debts.WithClock(clock))
			require.NoError(t, err)
			got, err := reopened.Debtor(ana.ID)
			require.NoError(t, err)
			assert.True(t, got.CurrentDebt.Equal(decimal.NewFromInt(600)))
			assert.True(t, got.TotalPenalty.Equal(decimal.NewFromInt(100)))
			assert.Len(t, got.History, 2)
		})
	}
}

func TestFolderFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := OpenFolder(dir)
	require.NoError(t, err)

	require.NoError(t, s.SaveDebtor(ctx, newDebtor(t, "a", "Ana", 500)))
	require.NoError(t, s.SaveDebtor(ctx, newDebtor(t, "b", "Bob", 5)))
	require.NoError(t, s.SaveConfig(ctx, debts.DefaultConfig()))

	data, err := os.ReadFile(filepath.Join(dir, debtorsFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], `{"id":"a","name":"Ana","currentDebt":512.34,`), lines[0])

	data, err = os.ReadFile(filepath.Join(dir, configFile))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"penaltyDays\": 30,\n  \"penaltyAmount\": 100\n}\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary file is left behind")
}

func TestFolderCorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, debtorsFile), []byte("{not json\n"), 0644))
	s, err := OpenFolder(dir)
	require.NoError(t, err)

	_, err = s.LoadAllDebtors(context.Background())
	assert.Error(t, err)

	_, err = debts.Open(context.Background(), s)
	assert.ErrorIs(t, err, debts.ErrPersistence)
}

func TestOpenFailures(t *testing.T) {
	_, err := Open("cloud", "x")
	assert.ErrorIs(t, err, debts.ErrPersistence)

	_, err = OpenSQL(filepath.Join(t.TempDir(), "missing", "dir", "debts.db"))
	assert.ErrorIs(t, err, debts.ErrPersistence)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = OpenFolder(filepath.Join(file, "sub"))
	assert.ErrorIs(t, err, debts.ErrPersistence)
}

func TestMemoryCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	d := newDebtor(t, "a", "Ana", 1)
	require.NoError(t, m.SaveDebtor(ctx, d))
	d.Name = "changed"

	debtors, err := m.LoadAllDebtors(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ana", debtors[0].Name)
}
