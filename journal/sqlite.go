package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite journals into a single database file, one row per fill and one
// per balance mark. Unlike the CSV backend it can be queried back; the
// List/Get helpers live in query.go.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordFill(f FillRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO fills
		(fill_id, symbol, side, price, quantity, commission, order_kind, strategy, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.FillID, f.Symbol, string(f.Side), f.Price, f.Quantity,
		f.Commission, string(f.OrderKind), f.Strategy, f.ExecutedAt,
	)
	return err
}

func (j *SQLite) RecordBalance(b BalanceSnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO balances
		(time, balance, reserved, position_count, pending_count)
		VALUES (?, ?, ?, ?, ?)`,
		b.Time, b.Balance, b.Reserved, b.PositionCount, b.PendingCount,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
