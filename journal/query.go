package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"papertrade/ledger"
)

const fillColumns = "fill_id, symbol, side, price, quantity, commission, order_kind, strategy, executed_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFill(r rowScanner) (FillRecord, error) {
	var rec FillRecord
	var side, kind string

	err := r.Scan(
		&rec.FillID,
		&rec.Symbol,
		&side,
		&rec.Price,
		&rec.Quantity,
		&rec.Commission,
		&kind,
		&rec.Strategy,
		&rec.ExecutedAt,
	)
	rec.Side = ledger.Side(side)
	rec.OrderKind = ledger.OrderKind(kind)
	return rec, err
}

// GetFill returns a single fill record by ID.
func (j *SQLite) GetFill(fillID string) (FillRecord, error) {
	row := j.db.QueryRow(`
		SELECT `+fillColumns+`
		FROM fills
		WHERE fill_id = ?`, fillID)

	rec, err := scanFill(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return FillRecord{}, fmt.Errorf("fill %q not found", fillID)
		}
		return FillRecord{}, err
	}
	return rec, nil
}

// ListFills returns every recorded fill, oldest first. Fills sharing a
// timestamp (one resolution pass stamps its whole batch with the same
// time) keep their insertion order.
func (j *SQLite) ListFills() ([]FillRecord, error) {
	return j.listFills(`
		SELECT ` + fillColumns + `
		FROM fills
		ORDER BY executed_at ASC, rowid ASC`)
}

// ListFillsBySymbol returns the fills for one symbol, oldest first.
func (j *SQLite) ListFillsBySymbol(symbol string) ([]FillRecord, error) {
	return j.listFills(`
		SELECT `+fillColumns+`
		FROM fills
		WHERE symbol = ?
		ORDER BY executed_at ASC, rowid ASC`, symbol)
}

// ListFillsBetween returns fills whose executed_at is within [start, end).
func (j *SQLite) ListFillsBetween(start, end time.Time) ([]FillRecord, error) {
	return j.listFills(`
		SELECT `+fillColumns+`
		FROM fills
		WHERE executed_at >= ? AND executed_at < ?
		ORDER BY executed_at ASC, rowid ASC`, start, end)
}

func (j *SQLite) listFills(query string, args ...any) ([]FillRecord, error) {
	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FillRecord
	for rows.Next() {
		rec, err := scanFill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListBalancesBetween returns balance marks whose time is within
// [start, end), oldest first.
func (j *SQLite) ListBalancesBetween(start, end time.Time) ([]BalanceSnapshot, error) {
	rows, err := j.db.Query(`
		SELECT time, balance, reserved, position_count, pending_count
		FROM balances
		WHERE time >= ? AND time < ?
		ORDER BY time ASC, rowid ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BalanceSnapshot
	for rows.Next() {
		var rec BalanceSnapshot
		if err := rows.Scan(
			&rec.Time,
			&rec.Balance,
			&rec.Reserved,
			&rec.PositionCount,
			&rec.PendingCount,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
