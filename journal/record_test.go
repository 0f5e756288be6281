package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/ledger"
)

func TestRecordFillsStampsUniqueIDs(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	trades := []ledger.Trade{
		{
			Symbol: "BTCUSDT", Side: ledger.SideBuy,
			Price: d(t, "50000"), Quantity: d(t, "0.1"), Commission: d(t, "5"),
			OrderKind: ledger.KindMarket, Strategy: "ema-cross", ExecutedAt: at,
		},
		{
			Symbol: "BTCUSDT", Side: ledger.SideSell,
			Price: d(t, "51000"), Quantity: d(t, "0.1"), Commission: d(t, "5.1"),
			OrderKind: ledger.KindLimit, ExecutedAt: at.Add(time.Minute),
		},
	}
	require.NoError(t, RecordFills(j, trades))

	fills, err := j.ListFills()
	require.NoError(t, err)
	require.Len(t, fills, 2)
	assert.NotEmpty(t, fills[0].FillID)
	assert.NotEqual(t, fills[0].FillID, fills[1].FillID)
	assert.Equal(t, ledger.SideBuy, fills[0].Side)
	assert.Equal(t, ledger.KindLimit, fills[1].OrderKind)
	assert.True(t, fills[1].Price.Equal(d(t, "51000")))
}

func TestSnapshotBalance(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	acct := ledger.Account{
		Balance:       d(t, "9899.9"),
		Positions:     []ledger.Position{{Symbol: "BTCUSDT"}},
		PendingOrders: []ledger.LimitOrder{{ID: "a"}, {ID: "b"}},
	}

	b := SnapshotBalance(acct, d(t, "150.5"), at)

	assert.True(t, b.Balance.Equal(d(t, "9899.9")))
	assert.True(t, b.Reserved.Equal(d(t, "150.5")))
	assert.Equal(t, 1, b.PositionCount)
	assert.Equal(t, 2, b.PendingCount)
	assert.Equal(t, at, b.Time)
}
