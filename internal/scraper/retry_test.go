package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTemporary = errors.New("temporary error")

func TestRetryWithBackoff(t *testing.T) {
	t.Parallel()

	t.Run("succeeds after failures", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		err := RetryWithBackoff(context.Background(), 5, time.Millisecond, func() error {
			attempts++
			if attempts == 3 {
				return nil
			}
			return errTemporary
		})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func() error {
			attempts++
			return errTemporary
		})
		assert.ErrorIs(t, err, errTemporary)
		assert.Equal(t, 4, attempts)
	})

	t.Run("permanent error stops at once", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func() error {
			attempts++
			return Permanent(errTemporary)
		})
		assert.Equal(t, errTemporary, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("context canceled during delay", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := RetryWithBackoff(ctx, 3, time.Hour, func() error { return errTemporary })
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestPermanentNil(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Permanent(nil))
}

func TestSleep(t *testing.T) {
	t.Parallel()

	require.NoError(t, Sleep(context.Background(), time.Millisecond))
	require.NoError(t, Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}
