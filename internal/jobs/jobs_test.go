package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCleaner struct {
	calls     atomic.Int32
	olderThan time.Duration
}

func (f *fakeCleaner) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	f.calls.Add(1)
	f.olderThan = olderThan
	return 3, nil
}

type fakeExpirer struct {
	batches []int
	err     error
	calls   atomic.Int32
}

func (f *fakeExpirer) ExpireOverdue(_ context.Context, batch int) (int, error) {
	i := int(f.calls.Add(1)) - 1
	if i >= len(f.batches) {
		return 0, f.err
	}
	return f.batches[i], nil
}

func TestCleanupRateLimits(t *testing.T) {
	cleaner := &fakeCleaner{}
	r := NewRunner(cleaner, &fakeExpirer{}, Config{}, nil)

	n, err := r.CleanupRateLimits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, RateLimitRetention, cleaner.olderThan)
}

func TestExpireOverdue_DrainsFullBatches(t *testing.T) {
	exp := &fakeExpirer{batches: []int{expiryBatch, expiryBatch, 7}}
	r := NewRunner(&fakeCleaner{}, exp, Config{}, nil)

	n, err := r.ExpireOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2*expiryBatch+7, n)
	assert.Equal(t, int32(3), exp.calls.Load())
}

func TestExpireOverdue_Error(t *testing.T) {
	exp := &fakeExpirer{batches: []int{expiryBatch}, err: errors.New("db down")}
	r := NewRunner(&fakeCleaner{}, exp, Config{}, nil)

	n, err := r.ExpireOverdue(context.Background())
	assert.Error(t, err)
	assert.Equal(t, expiryBatch, n)
}

func TestStartStop(t *testing.T) {
	cleaner := &fakeCleaner{}
	r := NewRunner(cleaner, &fakeExpirer{}, Config{CleanupInterval: 5 * time.Millisecond}, nil)

	r.Start(context.Background())
	assert.Eventually(t, func() bool { return cleaner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	r.Stop()
	r.Stop()
	after := cleaner.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, cleaner.calls.Load())
}
