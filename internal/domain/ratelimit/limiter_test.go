package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studiobook/internal/database"
	"studiobook/internal/database/dbtest"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newLimiter(t *testing.T, clock *fakeClock) *Limiter {
	t.Helper()
	db := dbtest.Open(t, &Window{})
	return NewLimiter(db, zap.NewNop(), WithClock(clock.Now))
}

func TestWindowStart(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 42, 17, 0, time.UTC)
	start := WindowStart(ts, time.Hour)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC).UnixMilli(), start)

	start = WindowStart(ts, 15*time.Minute)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC).UnixMilli(), start)
}

func TestCheck_UploadLimit(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC)}
	l := newLimiter(t, clock)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		res := l.Check(ctx, "booking-1", ActionUploadPaymentProof)
		require.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, 5-i, res.Remaining)
	}

	res := l.Check(ctx, "booking-1", ActionUploadPaymentProof)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 45*time.Minute, res.RetryAfter)
	assert.Equal(t, time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC), res.ResetAt.UTC())

	// other identifiers and actions have their own counters
	assert.True(t, l.Check(ctx, "booking-2", ActionUploadPaymentProof).Allowed)
	assert.True(t, l.Check(ctx, "booking-1", ActionCreateBooking).Allowed)

	// next window starts fresh
	clock.t = time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	res = l.Check(ctx, "booking-1", ActionUploadPaymentProof)
	assert.True(t, res.Allowed)
	assert.Equal(t, 4, res.Remaining)
}

func TestCheck_LoginWindowIsFifteenMinutes(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 14, 0, 0, time.UTC)}
	l := newLimiter(t, clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.True(t, l.Check(ctx, "1.2.3.4:admin@studio.test", ActionLoginAttempt).Allowed)
	}
	res := l.Check(ctx, "1.2.3.4:admin@studio.test", ActionLoginAttempt)
	require.False(t, res.Allowed)
	assert.Equal(t, time.Minute, res.RetryAfter)

	require.NoError(t, l.Reset(ctx, "1.2.3.4:admin@studio.test", ActionLoginAttempt))
	assert.True(t, l.Check(ctx, "1.2.3.4:admin@studio.test", ActionLoginAttempt).Allowed)
}

func TestCheck_FailsOpen(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	db := dbtest.Open(t, &Window{})
	l := NewLimiter(db, zap.NewNop(), WithClock(clock.Now))
	require.NoError(t, database.Close(db))

	res := l.Check(context.Background(), "x", ActionCreateBooking)
	assert.True(t, res.Allowed)
	assert.Equal(t, 10, res.Remaining)
}

func TestCleanup(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 0, 30, 0, 0, time.UTC)}
	l := newLimiter(t, clock)
	ctx := context.Background()

	l.Check(ctx, "old", ActionCreateBooking)
	clock.t = clock.t.Add(26 * time.Hour)
	l.Check(ctx, "new", ActionCreateBooking)

	deleted, err := l.Cleanup(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestFormatRetryAfter(t *testing.T) {
	assert.Equal(t, "1 menit", FormatRetryAfter(10*time.Second))
	assert.Equal(t, "1 menit", FormatRetryAfter(time.Minute))
	assert.Equal(t, "2 menit", FormatRetryAfter(61*time.Second))
	assert.Equal(t, "45 menit", FormatRetryAfter(45*time.Minute))
}
