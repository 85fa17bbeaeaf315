package debts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDebtor(t *testing.T) {
	d, err := NewDebtor("id-1", "  Ana ", dec("500"), t0)
	require.NoError(t, err)

	assert.Equal(t, "Ana", d.Name)
	assert.True(t, d.CurrentDebt.Equal(dec("500")))
	assert.True(t, d.HistoricDebt.Equal(dec("500")))
	assert.True(t, d.TotalPenalty.IsZero())
	assert.True(t, d.PenaltyEnabled)
	assert.Equal(t, t0, d.StartDate)
	assert.Equal(t, t0, d.LastUpdate)
	assert.Equal(t, t0, d.LastPenaltyCheck)
	require.Len(t, d.History, 1)
	assert.Equal(t, MoveInitial, d.History[0].Type)
	assert.True(t, d.History[0].Balance.Equal(dec("500")))
	requireInvariants(t, d)
}

func TestNewDebtorValidation(t *testing.T) {
	testCases := []struct {
		name    string
		debtor  string
		initial string
	}{
		{"empty name", "", "10"},
		{"blank name", "   ", "10"},
		{"negative debt", "Ana", "-1"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDebtor("id", tc.debtor, dec(tc.initial), t0)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestApplyMovementFullPayment(t *testing.T) {
	d, err := NewDebtor("id", "Ana", dec("500"), t0)
	require.NoError(t, err)

	require.NoError(t, d.ApplyMovement(dec("-500"), days(3)))

	assert.True(t, d.CurrentDebt.IsZero())
	assert.True(t, d.HistoricDebt.Equal(dec("500")), "payments never reduce the historic debt")
	last := d.History[len(d.History)-1]
	assert.Equal(t, MovePayment, last.Type)
	assert.True(t, last.Balance.IsZero())
	assert.Equal(t, days(3), d.LastUpdate)
	requireInvariants(t, d)
}

func TestApplyMovementRejected(t *testing.T) {
	testCases := []struct {
		name   string
		amount string
		want   error
	}{
		{"over payment", "-600", ErrNegativeBalance},
		{"zero amount", "0", ErrValidation},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := NewDebtor("id", "Ana", dec("500"), t0)
			require.NoError(t, err)
			before := d.Clone()

			err = d.ApplyMovement(dec(tc.amount), days(1))
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, before.Equal(d), "debtor must be unchanged after a rejected movement")
		})
	}
}

func TestApplyMovementIncrement(t *testing.T) {
	d, err := NewDebtor("id", "Ana", dec("100"), t0)
	require.NoError(t, err)

	require.NoError(t, d.ApplyMovement(dec("50.25"), days(2)))
	assert.True(t, d.CurrentDebt.Equal(dec("150.25")))
	assert.True(t, d.HistoricDebt.Equal(dec("150.25")))
	assert.Equal(t, MoveIncrement, d.History[1].Type)
	assert.Equal(t, t0, d.StartDate, "an increment on an unpaid debt keeps the penalty clock")
	requireInvariants(t, d)
}

func TestApplyMovementRestartsPaidDebt(t *testing.T) {
	d, err := NewDebtor("id", "Ana", dec("100"), t0)
	require.NoError(t, err)
	require.NoError(t, d.ApplyMovement(dec("-100"), days(5)))

	require.NoError(t, d.ApplyMovement(dec("300"), days(10)))
	assert.Equal(t, days(10), d.StartDate)
	assert.True(t, d.HistoricDebt.Equal(dec("400")))
}

func TestCloneIsIndependent(t *testing.T) {
	d, err := NewDebtor("id", "Ana", dec("100"), t0)
	require.NoError(t, err)

	c := d.Clone()
	require.NoError(t, c.ApplyMovement(dec("10"), days(1)))

	assert.Len(t, d.History, 1)
	assert.True(t, d.CurrentDebt.Equal(dec("100")))
	assert.False(t, d.Equal(c))
}

func TestCheck(t *testing.T) {
	d, err := NewDebtor("id", "Ana", dec("100"), t0)
	require.NoError(t, err)

	broken := d.Clone()
	broken.CurrentDebt = dec("90")
	assert.ErrorIs(t, broken.Check(), ErrValidation)

	broken = d.Clone()
	broken.History = nil
	assert.ErrorIs(t, broken.Check(), ErrValidation)

	broken = d.Clone()
	broken.TotalPenalty = dec("1000")
	assert.ErrorIs(t, broken.Check(), ErrValidation)
}

func TestHistoryNewestFirst(t *testing.T) {
	d, err := NewDebtor("id", "Ana", dec("100"), t0)
	require.NoError(t, err)
	require.NoError(t, d.ApplyMovement(dec("10"), days(1)))
	require.NoError(t, d.ApplyMovement(dec("-20"), days(2)))

	h := d.HistoryNewestFirst()
	require.Len(t, h, 3)
	assert.Equal(t, MovePayment, h[0].Type)
	assert.Equal(t, MoveIncrement, h[1].Type)
	assert.Equal(t, MoveInitial, h[2].Type)
	assert.Equal(t, MoveInitial, d.History[0].Type, "stored order is unchanged")
}

func TestMovementTypeLabel(t *testing.T) {
	assert.Equal(t, "Initial debt", MoveInitial.Label())
	assert.Equal(t, "Penalty", MovePenalty.Label())
	assert.False(t, MovementType("refund").Valid())
}
