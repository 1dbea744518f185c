package docdex_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarwowski/docdex"
)

func fastPolicy() docdex.RetryPolicy {
	return docdex.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

func TestRetry(t *testing.T) {
	t.Parallel()

	t.Run("succeeds first try", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := docdex.Retry(context.Background(), fastPolicy(), func() error {
			calls++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient errors until success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := docdex.Retry(context.Background(), fastPolicy(), func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausts attempts and returns last error", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := docdex.Retry(context.Background(), fastPolicy(), func() error {
			calls++
			return errors.New("still failing")
		})

		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.Contains(t, err.Error(), "still failing")
	})

	t.Run("does not retry validation errors", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := docdex.Retry(context.Background(), fastPolicy(), func() error {
			calls++
			return docdex.Errorf(docdex.EINVALID, "bad input")
		})

		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("does not retry quota exhaustion", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := docdex.Retry(context.Background(), fastPolicy(), func() error {
			calls++
			return docdex.Errorf(docdex.EQUOTA, "quota exhausted")
		})

		require.Error(t, err)
		assert.Equal(t, docdex.EQUOTA, docdex.ErrorCode(err))
		assert.Equal(t, 1, calls)
	})

	t.Run("canceled context stops retrying", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := docdex.Retry(ctx, docdex.RetryPolicy{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond}, func() error {
			calls++
			cancel()
			return errors.New("transient")
		})

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("zero policy falls back to defaults", func(t *testing.T) {
		t.Parallel()

		err := docdex.Retry(context.Background(), docdex.RetryPolicy{}, func() error {
			return nil
		})
		require.NoError(t, err)
	})
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	assert.True(t, docdex.Retryable(errors.New("network flake")))
	assert.True(t, docdex.Retryable(docdex.Errorf(docdex.EUNAVAILABLE, "down")))
	assert.False(t, docdex.Retryable(docdex.Errorf(docdex.EINVALID, "bad")))
	assert.False(t, docdex.Retryable(docdex.Errorf(docdex.ENOTFOUND, "gone")))
	assert.False(t, docdex.Retryable(docdex.Errorf(docdex.EQUOTA, "spent")))
}
