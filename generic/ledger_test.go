package generic_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
	"github.com/donjoker0605/focep-collect-backend-sub002/generic/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestLedger() generic.Ledger {
	return generic.NewLedger(store.NewMemory())
}

func jan(day int) generic.TimePoint {
	return generic.NewTimePoint(2024, time.January, day)
}

func movement(id string, debit, credit generic.AccountID, amount int64, at generic.TimePoint) generic.Movement {
	return generic.Movement{
		ID:          generic.MovementID(id),
		Debit:       debit,
		Credit:      credit,
		Amount:      generic.FCFA(amount),
		Kind:        generic.MovementClientCommission,
		EffectiveAt: at,
	}
}

// =============================================================================
// MOVEMENT TESTS
// =============================================================================

func TestMovement_Entries_BalancedPair(t *testing.T) {
	// GIVEN: A 1500 FCFA movement from a client to the pool
	// WHEN: Expanding it into entries
	// THEN: One negative debit and one positive credit that sum to zero

	mv := movement("m1", generic.ClientAccount("cli-1"), generic.AccountCommissionPool, 1500, jan(31))
	entries := mv.Entries("batch:0")

	require.Len(t, entries, 2)
	assert.Equal(t, generic.SensDebit, entries[0].Sens)
	assert.Equal(t, generic.ClientAccount("cli-1"), entries[0].AccountID)
	assert.Equal(t, "batch:0:D", entries[0].IdempotencyKey)
	assert.Equal(t, generic.SensCredit, entries[1].Sens)
	assert.Equal(t, "batch:0:C", entries[1].IdempotencyKey)
	assert.True(t, entries[0].Delta.Add(entries[1].Delta).IsZero())
}

func TestMovement_Reverse_SwapsAccounts(t *testing.T) {
	mv := movement("m1", generic.ClientAccount("cli-1"), generic.AccountCommissionPool, 1500, jan(31))

	rev := mv.Reverse("m1-rev", "correction")

	assert.Equal(t, generic.AccountCommissionPool, rev.Debit)
	assert.Equal(t, generic.ClientAccount("cli-1"), rev.Credit)
	assert.Equal(t, generic.MovementReversal, rev.Kind)
	assert.Equal(t, "m1", rev.ReferenceID)
}

func TestStamp_PrefixesIDsWithReference(t *testing.T) {
	mvs := []generic.Movement{
		movement("0", "a", "b", 1, jan(1)),
		movement("1", "b", "c", 1, jan(1)),
	}

	stamped := generic.Stamp(mvs, "commission:h1")

	assert.Equal(t, generic.MovementID("commission:h1:0"), stamped[0].ID)
	assert.Equal(t, generic.MovementID("commission:h1:1"), stamped[1].ID)
	assert.Equal(t, "commission:h1", stamped[1].ReferenceID)
	assert.Equal(t, generic.MovementID("0"), mvs[0].ID, "input must not be modified")
}

// =============================================================================
// LEDGER TESTS
// =============================================================================

func TestLedger_Post_BalancesAcrossAccounts(t *testing.T) {
	// GIVEN: Two client commissions into the pool, then the pool paid out
	// WHEN: Computing balances
	// THEN: The pool nets to zero and the sum over all accounts is zero

	ctx := context.Background()
	ledger := newTestLedger()

	err := ledger.Post(ctx, "batch-1", []generic.Movement{
		movement("0", generic.ClientAccount("cli-1"), generic.AccountCommissionPool, 1000, jan(31)),
		movement("1", generic.ClientAccount("cli-2"), generic.AccountCommissionPool, 500, jan(31)),
		movement("2", generic.AccountCommissionPool, generic.CollecteurAccount("col-1"), 1050, jan(31)),
		movement("3", generic.AccountCommissionPool, generic.AccountEMF, 450, jan(31)),
	})
	require.NoError(t, err)

	accounts := []generic.AccountID{
		generic.ClientAccount("cli-1"), generic.ClientAccount("cli-2"),
		generic.AccountCommissionPool, generic.CollecteurAccount("col-1"), generic.AccountEMF,
	}
	total := generic.ZeroFCFA()
	for _, acc := range accounts {
		b, err := ledger.BalanceAt(ctx, acc, jan(31), generic.CurrencyFCFA)
		require.NoError(t, err)
		total = total.Add(b)
	}

	pool, err := ledger.BalanceAt(ctx, generic.AccountCommissionPool, jan(31), generic.CurrencyFCFA)
	require.NoError(t, err)
	assert.True(t, pool.IsZero())
	assert.True(t, total.IsZero())

	col, err := ledger.BalanceAt(ctx, generic.CollecteurAccount("col-1"), jan(31), generic.CurrencyFCFA)
	require.NoError(t, err)
	assert.True(t, col.Equal(generic.FCFA(1050)))
}

func TestLedger_Post_SamePrefixTwice_Rejected(t *testing.T) {
	// GIVEN: A batch posted under a key prefix
	// WHEN: Posting the same batch again
	// THEN: ErrDuplicateIdempotencyKey, and balances are unchanged

	ctx := context.Background()
	ledger := newTestLedger()
	batch := []generic.Movement{
		movement("0", generic.ClientAccount("cli-1"), generic.AccountCommissionPool, 1000, jan(31)),
	}

	require.NoError(t, ledger.Post(ctx, "commission:h1", batch))
	err := ledger.Post(ctx, "commission:h1", batch)

	assert.True(t, errors.Is(err, generic.ErrDuplicateIdempotencyKey))
	entries, err := ledger.Entries(ctx, generic.AccountCommissionPool)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLedger_Post_RejectsMalformedMovements(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger()

	err := ledger.Post(ctx, "", []generic.Movement{
		movement("0", generic.AccountEMF, generic.AccountEMF, 10, jan(1)),
	})
	assert.True(t, errors.Is(err, generic.ErrValidation))

	negative := movement("0", generic.AccountEMF, generic.AccountTaxes, 10, jan(1))
	negative.Amount = negative.Amount.Neg()
	err = ledger.Post(ctx, "", []generic.Movement{negative})
	assert.True(t, errors.Is(err, generic.ErrValidation))
}

func TestLedger_BalanceAt_IgnoresLaterEntries(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger()

	require.NoError(t, ledger.Post(ctx, "", []generic.Movement{
		movement("a", generic.AccountEMF, generic.AccountTaxes, 100, jan(10)),
		movement("b", generic.AccountEMF, generic.AccountTaxes, 200, jan(20)),
	}))

	mid, err := ledger.BalanceAt(ctx, generic.AccountTaxes, jan(15), generic.CurrencyFCFA)
	require.NoError(t, err)
	assert.True(t, mid.Equal(generic.FCFA(100)))

	inRange, err := ledger.EntriesInRange(ctx, generic.AccountTaxes, jan(15), jan(31))
	require.NoError(t, err)
	require.Len(t, inRange, 1)
	assert.Equal(t, generic.MovementID("b"), inRange[0].MovementID)
}

func TestReversal_CancelsPostedBatch(t *testing.T) {
	// GIVEN: A posted batch of two movements under "commission:h1"
	// WHEN: Posting its reversal under "reversal:h1", then again
	// THEN: Every touched account is back to zero and the repeat is rejected

	ctx := context.Background()
	ledger := newTestLedger()
	mvs := generic.Stamp([]generic.Movement{
		movement("", generic.ClientAccount("cli-1"), generic.AccountCommissionPool, 200, jan(31)),
		movement("", generic.AccountCommissionPool, generic.CollecteurAccount("col-1"), 140, jan(31)),
	}, "commission:h1")
	require.NoError(t, ledger.Post(ctx, "commission:h1", mvs))

	entries, err := ledger.EntriesByReference(ctx, "commission:h1")
	require.NoError(t, err)
	reversal := generic.Reversal(entries, "reversal:h1", "superseded")

	require.Len(t, reversal, 2)
	assert.Equal(t, generic.MovementID("reversal:h1:0"), reversal[0].ID)
	assert.Equal(t, generic.MovementReversal, reversal[1].Kind)
	require.NoError(t, ledger.Post(ctx, "reversal:h1", reversal))

	for _, acc := range []generic.AccountID{
		generic.ClientAccount("cli-1"), generic.AccountCommissionPool, generic.CollecteurAccount("col-1"),
	} {
		bal, err := ledger.BalanceAt(ctx, acc, jan(31), generic.CurrencyFCFA)
		require.NoError(t, err)
		assert.True(t, bal.IsZero(), "%s: %s", acc, bal)
	}
	assert.ErrorIs(t, ledger.Post(ctx, "reversal:h1", reversal), generic.ErrDuplicateIdempotencyKey)
	assert.Empty(t, generic.Reversal(nil, "reversal:h2", "superseded"))
}

func TestMemoryStore_AppendBatch_DuplicateInsideBatch(t *testing.T) {
	// GIVEN: A batch carrying the same idempotency key twice
	// WHEN: Appending it
	// THEN: Nothing is written

	ctx := context.Background()
	mem := store.NewMemory()
	e := generic.Entry{ID: "e1", AccountID: generic.AccountEMF, Delta: generic.FCFA(1), EffectiveAt: jan(1), IdempotencyKey: "k"}

	err := mem.AppendBatch(ctx, []generic.Entry{e, e})

	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)
	exists, err := mem.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStore_LoadByReference(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	ledger := generic.NewLedger(mem)

	mvs := generic.Stamp([]generic.Movement{
		movement("", generic.ClientAccount("cli-1"), generic.AccountCommissionPool, 100, jan(31)),
	}, "commission:h1")
	require.NoError(t, ledger.Post(ctx, "commission:h1", mvs))

	entries, err := mem.LoadByReference(ctx, "commission:h1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

// =============================================================================
// PERIOD AND TIME TESTS
// =============================================================================

func TestPeriod_Validate(t *testing.T) {
	_, err := generic.NewPeriod(jan(31), jan(1))
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)

	_, err = generic.NewPeriod(generic.TimePoint{}, jan(1))
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)

	p, err := generic.NewPeriod(jan(1), jan(1))
	require.NoError(t, err)
	assert.Equal(t, 1, p.Days())
}

func TestPeriod_OverlapsInclusiveBounds(t *testing.T) {
	a := generic.Period{Start: jan(1), End: jan(15)}
	b := generic.Period{Start: jan(15), End: jan(31)}
	c := generic.Period{Start: jan(16), End: jan(31)}

	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(c))
	assert.True(t, a.Contains(jan(15)))
	assert.Equal(t, "[2024-01-01, 2024-01-15]", a.String())
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		from, to string
		want     int
	}{
		{"2024-01-15", "2024-02-15", 1},
		{"2024-01-31", "2024-02-29", 0},
		{"2023-11-15", "2024-01-31", 2},
		{"2020-06-01", "2024-01-31", 43},
	}
	for _, tt := range tests {
		from, err := generic.ParseDate(tt.from)
		require.NoError(t, err)
		to, err := generic.ParseDate(tt.to)
		require.NoError(t, err)
		assert.Equal(t, tt.want, generic.MonthsBetween(from, to), "%s → %s", tt.from, tt.to)
	}
}

func TestAmount_RoundHalfUp(t *testing.T) {
	a := generic.NewAmount(generic.MustParseDecimal("10.005"), generic.CurrencyFCFA)
	assert.Equal(t, "10.01", a.Round().Value.StringFixed(generic.MoneyPlaces))

	b := generic.NewAmount(generic.MustParseDecimal("10.004"), generic.CurrencyFCFA)
	assert.Equal(t, "10.00", b.Round().Value.StringFixed(generic.MoneyPlaces))
}
