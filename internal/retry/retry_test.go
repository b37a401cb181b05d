package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")
var errPermanent = errors.New("permanent")

func classify(err error) (bool, ErrorClass) {
	if errors.Is(err, errTransient) {
		return true, ClassTransient
	}
	return false, ClassPermanent
}

func TestDo_SucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), zerolog.Nop(), Options{}, classify, func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransientUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), zerolog.Nop(), Options{BaseDelay: time.Millisecond}, classify, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsImmediatelyOnPermanentError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), zerolog.Nop(), Options{BaseDelay: time.Millisecond}, classify, func(ctx context.Context) error {
		calls++
		return errPermanent
	})
	assert.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsMaxAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), zerolog.Nop(), Options{MaxAttempts: 2, BaseDelay: time.Millisecond}, classify, func(ctx context.Context) error {
		calls++
		return errTransient
	})
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 2, calls)
}

func TestDo_RespectsContextCancellationDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, zerolog.Nop(), Options{BaseDelay: time.Second}, classify, func(ctx context.Context) error {
		calls++
		return errTransient
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
