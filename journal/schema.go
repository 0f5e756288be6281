// journal/schema.go
package journal

// Money and quantity columns are TEXT: values round-trip through
// decimal strings without picking up float noise.
const Schema = `
CREATE TABLE IF NOT EXISTS fills (
	fill_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	price TEXT NOT NULL,
	quantity TEXT NOT NULL,
	commission TEXT NOT NULL,
	order_kind TEXT NOT NULL,
	strategy TEXT NOT NULL,
	executed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fills_symbol ON fills(symbol);
CREATE INDEX IF NOT EXISTS idx_fills_executed_at ON fills(executed_at);

CREATE TABLE IF NOT EXISTS balances (
	time DATETIME NOT NULL,
	balance TEXT NOT NULL,
	reserved TEXT NOT NULL,
	position_count INTEGER NOT NULL,
	pending_count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_balances_time ON balances(time);
`
