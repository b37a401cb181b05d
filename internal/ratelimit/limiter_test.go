package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_FirstCallIsImmediate(t *testing.T) {
	l := New(50 * time.Millisecond)

	start := time.Now()
	_, err := l.Acquire(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 20*time.Millisecond)
}

func TestAcquire_SecondCallWaitsOutSpacing(t *testing.T) {
	l := New(40 * time.Millisecond)
	ctx := context.Background()

	_, err := l.Acquire(ctx, "example.com")
	require.NoError(t, err)

	start := time.Now()
	_, err = l.Acquire(ctx, "example.com")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestAcquire_DistinctDomainsDoNotShareSpacing(t *testing.T) {
	l := New(100 * time.Millisecond)
	ctx := context.Background()

	_, err := l.Acquire(ctx, "a.com")
	require.NoError(t, err)

	start := time.Now()
	_, err = l.Acquire(ctx, "b.com")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 20*time.Millisecond)
}

func TestSetDomainRate_OverridesFallback(t *testing.T) {
	l := New(5 * time.Millisecond)
	l.SetDomainRate("slow.com", 50*time.Millisecond)
	ctx := context.Background()

	_, err := l.Acquire(ctx, "slow.com")
	require.NoError(t, err)

	start := time.Now()
	_, err = l.Acquire(ctx, "slow.com")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestAcquire_RespectsContextCancellation(t *testing.T) {
	l := New(time.Second)
	ctx := context.Background()
	_, err := l.Acquire(ctx, "c.com")
	require.NoError(t, err)

	cancelCtx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = l.Acquire(cancelCtx, "c.com")
	assert.Error(t, err)
}

func TestSetDomainRate_IgnoresNonPositiveSpacing(t *testing.T) {
	l := New(5 * time.Millisecond)
	l.SetDomainRate("zero.com", 0)

	start := time.Now()
	_, err := l.Acquire(context.Background(), "zero.com")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 20*time.Millisecond)
}
