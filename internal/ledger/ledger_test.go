package ledger

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "data", "orderbot.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestNextOrderNumberPerDay(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()
	day := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	for want := 1; want <= 3; want++ {
		n, err := l.NextOrderNumber(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	n, err := l.NextOrderNumber(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOrderNumberSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orderbot.db")
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	l, err := Open(path, nil)
	require.NoError(t, err)
	_, err = l.NextOrderNumber(context.Background(), day)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	l, err = Open(path, nil)
	require.NoError(t, err)
	defer l.Close()
	n, err := l.NextOrderNumber(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRecordAndListDeliveries(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	_, err := l.RecordDelivery(ctx, Delivery{RunID: "r1", OrderNumber: 4, Channel: "order_email", Success: true, CreatedAt: at})
	require.NoError(t, err)
	_, err = l.RecordDelivery(ctx, Delivery{RunID: "r1", OrderNumber: 4, Channel: "whatsapp_message", Target: "573001112233", Detail: "not found", CreatedAt: at})
	require.NoError(t, err)
	_, err = l.RecordDelivery(ctx, Delivery{RunID: "r2", OrderNumber: 5, Channel: "order_email", Success: true})
	require.NoError(t, err)

	got, err := l.Deliveries(ctx, at, 4)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "order_email", got[0].Channel)
	assert.True(t, got[0].Success)
	assert.Equal(t, "573001112233", got[1].Target)
	assert.False(t, got[1].Success)
	assert.Equal(t, "not found", got[1].Detail)
	assert.True(t, at.Equal(got[1].CreatedAt))

	assert.Equal(t, "2024-05-01", got[0].Day)

	none, err := l.Deliveries(ctx, at, 99)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeliveriesSeparateSameNumberAcrossDays(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()
	monday := time.Date(2024, 5, 6, 20, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	_, err := l.RecordDelivery(ctx, Delivery{RunID: "mon", Day: monday.Format(DayLayout), OrderNumber: 1, Channel: "order_email", Success: true, CreatedAt: monday})
	require.NoError(t, err)
	_, err = l.RecordDelivery(ctx, Delivery{RunID: "tue", Day: tuesday.Format(DayLayout), OrderNumber: 1, Channel: "whatsapp_message", CreatedAt: tuesday})
	require.NoError(t, err)

	got, err := l.Deliveries(ctx, monday, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mon", got[0].RunID)

	got, err = l.Deliveries(ctx, tuesday, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "whatsapp_message", got[0].Channel)

	byRun, err := l.DeliveriesByRun(ctx, "tue")
	require.NoError(t, err)
	require.Len(t, byRun, 1)
	assert.Equal(t, "2024-05-07", byRun[0].Day)
}

func TestDayColumnAddedToOlderJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE deliveries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		order_number INTEGER NOT NULL,
		channel TEXT NOT NULL,
		target TEXT,
		success INTEGER NOT NULL,
		detail TEXT,
		created_at DATETIME NOT NULL
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO deliveries (run_id, order_number, channel, success, created_at)
		VALUES ('legacy', 2, 'order_email', 1, '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	l, err := Open(path, nil)
	require.NoError(t, err)
	defer l.Close()

	got, err := l.DeliveriesByRun(context.Background(), "legacy")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Day)
}
