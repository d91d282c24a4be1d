package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(name string) Config {
	return Config{
		Name:                name,
		MaxRetries:          3,
		InitialInterval:     time.Millisecond,
		ConsecutiveFailures: 100,
		OpenTimeout:         time.Minute,
	}
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	guard := NewGuard[string](testConfig("retry-until-success"))

	attempts := 0
	result, err := guard.Execute(context.Background(), func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("transient failure")
		}

		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestExecuteSpendsFullRetryBudget(t *testing.T) {
	cfg := testConfig("spend-budget")
	cfg.MaxRetries = 3
	guard := NewGuard[int](cfg)

	attempts := 0
	_, err := guard.Execute(context.Background(), func(ctx context.Context) (int, error) {
		attempts++

		return 0, errors.New("always failing")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 4, attempts, "expected the initial attempt plus MaxRetries retries")
}

func TestExecuteOpenBreakerFailsFast(t *testing.T) {
	cfg := testConfig("open-breaker")
	cfg.MaxRetries = 1
	cfg.ConsecutiveFailures = 2
	guard := NewGuard[int](cfg)

	for i := 0; i < 2; i++ {
		_, err := guard.Execute(context.Background(), func(ctx context.Context) (int, error) {
			return 0, errors.New("failure")
		})
		require.Error(t, err)
	}
	require.Equal(t, gobreaker.StateOpen, guard.State())

	attempts := 0
	_, err := guard.Execute(context.Background(), func(ctx context.Context) (int, error) {
		attempts++

		return 0, nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 0, attempts, "open breaker must short-circuit without calling fn")
}

func TestExecuteDoesNotRetryAfterBreakerOpens(t *testing.T) {
	cfg := testConfig("no-retry-when-open")
	cfg.MaxRetries = 10
	cfg.ConsecutiveFailures = 2
	guard := NewGuard[int](cfg)

	attempts := 0
	_, err := guard.Execute(context.Background(), func(ctx context.Context) (int, error) {
		attempts++

		return 0, errors.New("failure")
	})

	require.Error(t, err)
	assert.Equal(t, 2, attempts, "attempts past the breaker threshold are pointless")
}

func TestExecuteContextCancellation(t *testing.T) {
	guard := NewGuard[int](testConfig("context-cancel"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := guard.Execute(ctx, func(ctx context.Context) (int, error) {
		return 0, errors.New("failure")
	})

	require.Error(t, err)
}
