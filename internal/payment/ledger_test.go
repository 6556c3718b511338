package payment

import (
	"self-checkout/internal/money"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_PayExact(t *testing.T) {
	l := NewLedger(nil)
	l.Start(money.MustParse("10.00"))

	for _, v := range []string{"5", "2.00", "2.00"} {
		require.NoError(t, l.Accept(money.MustParse(v)))
	}
	assert.Equal(t, money.MustParse("9.00"), l.Tendered())
	assert.Equal(t, money.MustParse("1.00"), l.RemainingDue())
	assert.False(t, l.IsSatisfied())

	_, err := l.Finish()
	assert.ErrorIs(t, err, ErrNotSatisfied)
	assert.Equal(t, money.MustParse("9.00"), l.Tendered(), "failed finish leaves ledger untouched")
	assert.True(t, l.Active())

	require.NoError(t, l.Accept(money.MustParse("1.00")))
	assert.True(t, l.IsSatisfied())
	change, err := l.Finish()
	require.NoError(t, err)
	assert.Zero(t, change)
}

func TestLedger_Change(t *testing.T) {
	l := NewLedger(nil)
	l.Start(money.MustParse("7.35"))
	require.NoError(t, l.Accept(money.MustParse("10")))
	assert.Zero(t, l.RemainingDue())
	change, err := l.Finish()
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("2.65"), change)
}

func TestLedger_InvalidDenomination(t *testing.T) {
	l := NewLedger(nil)
	l.Start(500)
	for _, v := range []money.Cents{1, 3, 50, 150, 100000} {
		assert.ErrorIs(t, l.Accept(v), ErrInvalidDenomination)
	}
	assert.Zero(t, l.Tendered())
}

func TestLedger_NotStarted(t *testing.T) {
	l := NewLedger(nil)
	assert.ErrorIs(t, l.Accept(100), ErrNotStarted)
	_, err := l.Finish()
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.False(t, l.IsSatisfied())
}

func TestLedger_UpdateKeepsTendered(t *testing.T) {
	l := NewLedger(nil)
	l.Start(1000)
	require.NoError(t, l.Accept(500))
	l.Update(1500)
	assert.Equal(t, money.Cents(500), l.Tendered())
	assert.Equal(t, money.Cents(1000), l.RemainingDue())

	l.Start(300)
	assert.Zero(t, l.Tendered(), "Start resets tendered")
}

func TestLedger_CustomDenominations(t *testing.T) {
	l := NewLedger([]money.Cents{100, 50})
	assert.Equal(t, []money.Cents{50, 100}, l.Denominations())
	l.Start(100)
	assert.NoError(t, l.Accept(50))
	assert.ErrorIs(t, l.Accept(5), ErrInvalidDenomination)
}
