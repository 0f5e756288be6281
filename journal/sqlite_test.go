package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/ledger"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('fills','balances')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["fills"])
	assert.True(t, found["balances"])
}

func TestSQLiteRecordFill(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := FillRecord{
		FillID:     "F1",
		Symbol:     "BTCUSDT",
		Side:       ledger.SideBuy,
		Price:      d(t, "50000"),
		Quantity:   d(t, "0.1"),
		Commission: d(t, "5"),
		OrderKind:  ledger.KindMarket,
		Strategy:   "manual",
		ExecutedAt: at,
	}

	require.NoError(t, j.RecordFill(rec))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var (
		fillID     string
		symbol     string
		side       string
		price      string
		quantity   string
		commission string
		orderKind  string
		strategy   string
		executedAt time.Time
	)

	err = db.QueryRow(`
        SELECT fill_id, symbol, side, price, quantity, commission, order_kind, strategy, executed_at
        FROM fills LIMIT 1`).Scan(
		&fillID, &symbol, &side, &price, &quantity, &commission, &orderKind, &strategy, &executedAt,
	)
	require.NoError(t, err)

	assert.Equal(t, "F1", fillID)
	assert.Equal(t, "BTCUSDT", symbol)
	assert.Equal(t, "BUY", side)
	assert.Equal(t, "50000", price)
	assert.Equal(t, "0.1", quantity)
	assert.Equal(t, "5", commission)
	assert.Equal(t, "MARKET", orderKind)
	assert.Equal(t, "manual", strategy)
	assert.True(t, executedAt.Equal(at))
}

func TestSQLiteRecordBalance(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)

	ts := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	rec := BalanceSnapshot{
		Time:          ts,
		Balance:       d(t, "5095.1"),
		Reserved:      d(t, "4904.9"),
		PositionCount: 2,
		PendingCount:  1,
	}

	require.NoError(t, j.RecordBalance(rec))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var (
		gotTime       time.Time
		balance       string
		reserved      string
		positionCount int
		pendingCount  int
	)

	err = db.QueryRow(`
        SELECT time, balance, reserved, position_count, pending_count
        FROM balances LIMIT 1`).Scan(
		&gotTime, &balance, &reserved, &positionCount, &pendingCount,
	)
	require.NoError(t, err)

	assert.True(t, gotTime.Equal(ts))
	assert.Equal(t, "5095.1", balance)
	assert.Equal(t, "4904.9", reserved)
	assert.Equal(t, 2, positionCount)
	assert.Equal(t, 1, pendingCount)
}
