package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSVJournal appends fills and balance marks to two flat files. Rows
// are flushed as they arrive so a crash loses at most the in-flight
// record.
type CSVJournal struct {
	fills    *csv.Writer
	balances *csv.Writer
	ff, bf   *os.File
}

func NewCSV(fillsPath, balancesPath string) (*CSVJournal, error) {
	ff, err := os.Create(fillsPath)
	if err != nil {
		return nil, err
	}
	bf, err := os.Create(balancesPath)
	if err != nil {
		ff.Close()
		return nil, err
	}

	fw := csv.NewWriter(ff)
	bw := csv.NewWriter(bf)

	if err := fw.Write([]string{"fill_id", "symbol", "side", "price", "quantity", "commission", "order_kind", "strategy", "executed_at"}); err != nil {
		return nil, err
	}
	if err := bw.Write([]string{"time", "balance", "reserved", "position_count", "pending_count"}); err != nil {
		return nil, err
	}

	fw.Flush()
	if err := fw.Error(); err != nil {
		return nil, err
	}
	bw.Flush()
	if err := bw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{fw, bw, ff, bf}, nil
}

func (j *CSVJournal) RecordFill(f FillRecord) error {
	if err := j.fills.Write([]string{
		f.FillID,
		f.Symbol,
		string(f.Side),
		f.Price.String(),
		f.Quantity.String(),
		f.Commission.String(),
		string(f.OrderKind),
		f.Strategy,
		f.ExecutedAt.Format(time.RFC3339),
	}); err != nil {
		return err
	}
	j.fills.Flush()
	return j.fills.Error()
}

func (j *CSVJournal) RecordBalance(b BalanceSnapshot) error {
	if err := j.balances.Write([]string{
		b.Time.Format(time.RFC3339),
		b.Balance.String(),
		b.Reserved.String(),
		strconv.Itoa(b.PositionCount),
		strconv.Itoa(b.PendingCount),
	}); err != nil {
		return err
	}
	j.balances.Flush()
	return j.balances.Error()
}

func (j *CSVJournal) Close() error {
	j.fills.Flush()
	if err := j.fills.Error(); err != nil {
		return err
	}
	j.balances.Flush()
	if err := j.balances.Error(); err != nil {
		return err
	}

	if err := j.ff.Close(); err != nil {
		return err
	}
	if err := j.bf.Close(); err != nil {
		return err
	}
	return nil
}
