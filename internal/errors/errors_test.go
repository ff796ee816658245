package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	// Given: a download failure code
	err := New(ErrCodeDownloadFailed, "pdf download failed", nil)

	// Then: category, severity and retryable flag follow the code
	assert.Equal(t, CategoryNetwork, err.Category)
	assert.Equal(t, SeverityWarning, err.Severity)
	assert.True(t, err.Retryable)
	assert.Equal(t, "[ERR_304_DOWNLOAD_FAILED] pdf download failed", err.Error())
}

func TestWrap_PreservesCause(t *testing.T) {
	// Given: an underlying error
	cause := stderrors.New("connection refused")

	// When: wrapped as a discovery failure
	err := Wrap(ErrCodeDiscoveryFailed, cause)

	// Then: the cause is reachable through the chain
	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CategoryNetwork, err.Category)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestIs_MatchesByCode(t *testing.T) {
	a := New(ErrCodeEmbeddingFailed, "batch failed", nil)
	b := New(ErrCodeEmbeddingFailed, "different message", nil)

	assert.True(t, stderrors.Is(a, b))
}

func TestIsFatal_StoreCorrupt(t *testing.T) {
	err := New(ErrCodeStoreCorrupt, "index unreadable", nil)

	assert.True(t, IsFatal(err))
	assert.False(t, IsRetryable(err))
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	// Given: a function that fails twice then succeeds
	attempts := 0
	fn := func() error {
		attempts++
		if attempts < 3 {
			return stderrors.New("transient")
		}
		return nil
	}

	cfg := RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}

	// When: retried
	err := Retry(context.Background(), cfg, fn)

	// Then: succeeds on the third attempt
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	cfg := RetryConfig{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2.0,
	}

	err := Retry(context.Background(), cfg, func() error {
		return stderrors.New("permanent")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 2 retries")
}

func TestRetryWithResult_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RetryWithResult(ctx, DefaultRetryConfig(), func() (int, error) {
		return 42, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetry_NonRetryableErrorShortCircuits(t *testing.T) {
	// Given: a function that always fails with a validation error
	attempts := 0
	fn := func() error {
		attempts++
		return New(ErrCodeInvalidInput, "empty topic", nil)
	}

	cfg := RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}

	// When: retried
	err := Retry(context.Background(), cfg, fn)

	// Then: the first failure is final
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, ErrCodeInvalidInput, GetCode(err))
}

func TestRetryWithResult_RetryableKBErrorIsRetried(t *testing.T) {
	attempts := 0
	cfg := RetryConfig{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2.0,
	}

	result, err := RetryWithResult(context.Background(), cfg, func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", New(ErrCodeNetworkTimeout, "timed out", nil)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, attempts)
}

func TestRetryWithResult_WrappedNonRetryableShortCircuits(t *testing.T) {
	// A permanent error stays permanent even when wrapped downstream
	attempts := 0
	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, Multiplier: 2.0}

	_, err := RetryWithResult(context.Background(), cfg, func() (int, error) {
		attempts++
		return 0, fmt.Errorf("request build: %w", New(ErrCodeDimensionMismatch, "768 != 32", nil))
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
