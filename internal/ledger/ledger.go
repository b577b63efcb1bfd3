// Package ledger persists the daily order counter and the journal of
// delivery attempts in SQLite.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DayLayout formats the day an order number belongs to.
const DayLayout = "2006-01-02"

// Delivery is one channel attempt for an order. Order numbers restart every
// day, so an order is identified by Day and OrderNumber together.
type Delivery struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"run_id"`
	Day         string    `json:"day"`
	OrderNumber int       `json:"order_number"`
	Channel     string    `json:"channel"`
	Target      string    `json:"target"`
	Success     bool      `json:"success"`
	Detail      string    `json:"detail,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Ledger wraps the SQLite database.
type Ledger struct {
	mu     sync.Mutex
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open creates the database file and schema when missing.
func Open(path string, logger *zap.Logger) (*Ledger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	l := &Ledger{db: db, logger: logger, now: time.Now}
	if err := l.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS order_counter (
		day TEXT PRIMARY KEY,
		last_number INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS deliveries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		day TEXT NOT NULL DEFAULT '',
		order_number INTEGER NOT NULL,
		channel TEXT NOT NULL,
		target TEXT,
		success INTEGER NOT NULL,
		detail TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_deliveries_run ON deliveries(run_id);
	`
	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create ledger schema: %w", err)
	}
	if err := l.addDayColumn(); err != nil {
		return err
	}
	if _, err := l.db.Exec(`CREATE INDEX IF NOT EXISTS idx_deliveries_day_order ON deliveries(day, order_number)`); err != nil {
		return fmt.Errorf("failed to create ledger index: %w", err)
	}
	return nil
}

// addDayColumn upgrades journals written before deliveries carried a day.
// Old rows keep an empty day and are only reachable by run id.
func (l *Ledger) addDayColumn() error {
	rows, err := l.db.Query(`PRAGMA table_info(deliveries)`)
	if err != nil {
		return fmt.Errorf("inspect ledger schema: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return err
		}
		if name == "day" {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()
	if _, err := l.db.Exec(`ALTER TABLE deliveries ADD COLUMN day TEXT NOT NULL DEFAULT ''`); err != nil {
		return fmt.Errorf("add ledger day column: %w", err)
	}
	return nil
}

// NextOrderNumber increments and returns the counter for day (YYYY-MM-DD).
func (l *Ledger) NextOrderNumber(ctx context.Context, day time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := day.Format("2006-01-02")
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_counter (day, last_number) VALUES (?, 1)
		ON CONFLICT(day) DO UPDATE SET last_number = last_number + 1`, key)
	if err != nil {
		return 0, fmt.Errorf("bump order counter: %w", err)
	}

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT last_number FROM order_counter WHERE day = ?`, key).Scan(&n); err != nil {
		return 0, fmt.Errorf("read order counter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	l.logger.Debug("Order number issued", zap.String("day", key), zap.Int("number", n))
	return n, nil
}

// RecordDelivery journals one channel outcome and returns the stored row id.
func (l *Ledger) RecordDelivery(ctx context.Context, d Delivery) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if d.CreatedAt.IsZero() {
		d.CreatedAt = l.now()
	}
	if d.Day == "" {
		d.Day = d.CreatedAt.Format(DayLayout)
	}
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO deliveries (run_id, day, order_number, channel, target, success, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.RunID, d.Day, d.OrderNumber, d.Channel, d.Target, d.Success, d.Detail, d.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("record delivery: %w", err)
	}
	return res.LastInsertId()
}

// Deliveries lists the journal for order number orderNumber of day, oldest
// first.
func (l *Ledger) Deliveries(ctx context.Context, day time.Time, orderNumber int) ([]Delivery, error) {
	return l.queryDeliveries(ctx, `day = ? AND order_number = ?`, day.Format(DayLayout), orderNumber)
}

// DeliveriesByRun lists the journal of one dispatch run, oldest first.
func (l *Ledger) DeliveriesByRun(ctx context.Context, runID string) ([]Delivery, error) {
	return l.queryDeliveries(ctx, `run_id = ?`, runID)
}

func (l *Ledger) queryDeliveries(ctx context.Context, where string, args ...interface{}) ([]Delivery, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, run_id, day, order_number, channel, target, success, detail, created_at
		FROM deliveries WHERE `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		var (
			d       Delivery
			target  sql.NullString
			detail  sql.NullString
			created string
		)
		if err := rows.Scan(&d.ID, &d.RunID, &d.Day, &d.OrderNumber, &d.Channel, &target, &d.Success, &detail, &created); err != nil {
			return nil, err
		}
		d.Target = target.String
		d.Detail = detail.String
		d.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Close releases the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
