package calendar

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiobook/internal/database"
	"studiobook/internal/database/dbtest"
	"studiobook/internal/domain/audit"
)

type nopAudit struct{}

func (nopAudit) Record(context.Context, audit.Entry) {}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []string
}

func (n *recordingNotifier) SlotChanged(date string, status SlotStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, date+":"+string(status))
}

func newCalendar(t *testing.T) (*Calendar, *recordingNotifier, *database.TxManager) {
	t.Helper()
	db := dbtest.Open(t, &Slot{})
	tx := database.NewTxManager(db)
	n := &recordingNotifier{}
	c := NewCalendar(NewRepository(db), tx, nopAudit{}, n, time.UTC)
	c.now = func() time.Time { return time.Date(2026, 11, 20, 9, 0, 0, 0, time.UTC) }
	return c, n, tx
}

func TestRange(t *testing.T) {
	c, _, _ := newCalendar(t)

	start, end, err := c.Range("")
	require.NoError(t, err)
	assert.Equal(t, "2026-11-01", start.Format(time.DateOnly))
	assert.Equal(t, "2027-01-31", end.Format(time.DateOnly))

	start, end, err = c.Range("2028-02")
	require.NoError(t, err)
	assert.Equal(t, "2028-02-01", start.Format(time.DateOnly))
	assert.Equal(t, "2028-02-29", end.Format(time.DateOnly))

	_, _, err = c.Range("2028-2")
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestLock_FirstApprovedWins(t *testing.T) {
	c, _, tx := newCalendar(t)
	ctx := context.Background()

	require.NoError(t, tx.Do(ctx, func(ctx context.Context) error {
		return c.CheckAvailable(ctx, "2026-12-24")
	}))

	var slot *Slot
	require.NoError(t, tx.Do(ctx, func(ctx context.Context) error {
		var err error
		slot, err = c.Lock(ctx, "2026-12-24", "booking-a")
		return err
	}))
	assert.Equal(t, SlotBooked, slot.Status)
	assert.Equal(t, "booking-a", *slot.BookingID)

	// same booking again is a no-op
	err := tx.Do(ctx, func(ctx context.Context) error {
		_, err := c.Lock(ctx, "2026-12-24", "booking-a")
		return err
	})
	assert.NoError(t, err)

	err = tx.Do(ctx, func(ctx context.Context) error {
		_, err := c.Lock(ctx, "2026-12-24", "booking-b")
		return err
	})
	assert.ErrorIs(t, err, ErrSlotTaken)

	err = tx.Do(ctx, func(ctx context.Context) error {
		return c.CheckAvailable(ctx, "2026-12-24")
	})
	assert.ErrorIs(t, err, ErrDateUnavailable)
}

func TestBlockUnblock(t *testing.T) {
	c, n, _ := newCalendar(t)
	ctx := context.Background()
	admin := audit.Admin("a-1", "Admin")

	slot, err := c.Block(ctx, admin, "2026-12-01", "studio maintenance", audit.Meta{})
	require.NoError(t, err)
	assert.Equal(t, SlotBlocked, slot.Status)
	assert.Equal(t, "studio maintenance", *slot.BlockedReason)

	view, err := c.View(ctx, "2026-12")
	require.NoError(t, err)
	require.Len(t, view.Slots, 1)
	assert.Equal(t, SlotBlocked, view.Slots[0].Status)
	assert.Equal(t, "2026-12-01", view.StartDate)
	assert.Equal(t, "2026-12-31", view.EndDate)

	slot, err = c.Unblock(ctx, admin, "2026-12-01", audit.Meta{})
	require.NoError(t, err)
	assert.Equal(t, SlotAvailable, slot.Status)

	_, err = c.Unblock(ctx, admin, "2026-12-01", audit.Meta{})
	assert.ErrorIs(t, err, ErrSlotNotBlocked)

	_, err = c.Block(ctx, admin, "12/01/2026", "", audit.Meta{})
	assert.ErrorIs(t, err, ErrInvalidDate)

	assert.Equal(t, []string{"2026-12-01:BLOCKED", "2026-12-01:AVAILABLE"}, n.changes)
}

func TestBlock_BookedDateRejected(t *testing.T) {
	c, _, tx := newCalendar(t)
	ctx := context.Background()

	require.NoError(t, tx.Do(ctx, func(ctx context.Context) error {
		_, err := c.Lock(ctx, "2026-12-05", "booking-a")
		return err
	}))

	_, err := c.Block(ctx, audit.System(), "2026-12-05", "", audit.Meta{})
	assert.ErrorIs(t, err, ErrSlotBooked)
}
