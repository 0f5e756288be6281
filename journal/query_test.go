package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/ledger"
)

func testFill(t *testing.T, id, symbol string, at time.Time) FillRecord {
	t.Helper()
	return FillRecord{
		FillID:     id,
		Symbol:     symbol,
		Side:       ledger.SideBuy,
		Price:      d(t, "50000"),
		Quantity:   d(t, "0.1"),
		Commission: d(t, "5"),
		OrderKind:  ledger.KindMarket,
		Strategy:   "test",
		ExecutedAt: at,
	}
}

func TestGetFill(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	at := time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)
	want := FillRecord{
		FillID:     "F123",
		Symbol:     "ETHUSDT",
		Side:       ledger.SideSell,
		Price:      d(t, "2801.33"),
		Quantity:   d(t, "0.7"),
		Commission: d(t, "1.960931"),
		OrderKind:  ledger.KindLimit,
		Strategy:   "grid",
		ExecutedAt: at,
	}
	require.NoError(t, j.RecordFill(want))

	got, err := j.GetFill("F123")
	require.NoError(t, err)

	assert.Equal(t, want.FillID, got.FillID)
	assert.Equal(t, want.Symbol, got.Symbol)
	assert.Equal(t, want.Side, got.Side)
	assert.Equal(t, want.OrderKind, got.OrderKind)
	assert.Equal(t, want.Strategy, got.Strategy)
	assert.True(t, got.Price.Equal(want.Price), "price %s", got.Price)
	assert.True(t, got.Quantity.Equal(want.Quantity), "quantity %s", got.Quantity)
	assert.True(t, got.Commission.Equal(want.Commission), "commission %s", got.Commission)
	assert.True(t, got.ExecutedAt.Equal(at))
}

func TestGetFillNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetFill("nonexistent")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListFillsOrdering(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	// Inserted out of chronological order; one pair shares a timestamp
	// the way a single resolution pass stamps its whole batch.
	require.NoError(t, j.RecordFill(testFill(t, "F3", "BTCUSDT", base.Add(2*time.Hour))))
	require.NoError(t, j.RecordFill(testFill(t, "F1", "BTCUSDT", base)))
	require.NoError(t, j.RecordFill(testFill(t, "F4", "BTCUSDT", base.Add(2*time.Hour))))

	fills, err := j.ListFills()
	require.NoError(t, err)
	require.Len(t, fills, 3)

	assert.Equal(t, "F1", fills[0].FillID)
	assert.Equal(t, "F3", fills[1].FillID)
	assert.Equal(t, "F4", fills[2].FillID)
}

func TestListFillsBySymbol(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	base := time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordFill(testFill(t, "F1", "BTCUSDT", base)))
	require.NoError(t, j.RecordFill(testFill(t, "F2", "ETHUSDT", base.Add(time.Minute))))
	require.NoError(t, j.RecordFill(testFill(t, "F3", "BTCUSDT", base.Add(2*time.Minute))))

	btc, err := j.ListFillsBySymbol("BTCUSDT")
	require.NoError(t, err)
	require.Len(t, btc, 2)
	assert.Equal(t, "F1", btc[0].FillID)
	assert.Equal(t, "F3", btc[1].FillID)

	none, err := j.ListFillsBySymbol("SOLUSDT")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListFillsBetweenBoundaries(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordFill(testFill(t, "F1", "BTCUSDT", base)))

	// Start boundary is inclusive.
	got, err := j.ListFillsBetween(base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// End boundary is exclusive.
	got, err = j.ListFillsBetween(base.Add(-time.Hour), base)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListBalancesBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	for i, bal := range []string{"10000", "4995", "10489.5"} {
		require.NoError(t, j.RecordBalance(BalanceSnapshot{
			Time:     base.Add(time.Duration(i) * time.Hour),
			Balance:  d(t, bal),
			Reserved: d(t, "0"),
		}))
	}

	snaps, err := j.ListBalancesBetween(base, base.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.True(t, snaps[0].Balance.Equal(d(t, "10000")), "balance %s", snaps[0].Balance)
	assert.True(t, snaps[1].Balance.Equal(d(t, "4995")), "balance %s", snaps[1].Balance)
}
