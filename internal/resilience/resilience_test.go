package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("bad request"), false},
		{"503", &StatusError{Service: "newsapi", StatusCode: http.StatusServiceUnavailable}, true},
		{"429", &StatusError{Service: "newsapi", StatusCode: http.StatusTooManyRequests}, true},
		{"401", &StatusError{Service: "newsapi", StatusCode: http.StatusUnauthorized}, false},
		{"wrapped 502", fmt.Errorf("fetch: %w", &StatusError{StatusCode: http.StatusBadGateway}), true},
		{"reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"refused", syscall.ECONNREFUSED, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestStatusError(t *testing.T) {
	t.Parallel()

	err := &StatusError{Service: "sendgrid", StatusCode: 401, Body: "bad key"}
	assert.Equal(t, "sendgrid: unexpected status 401: bad key", err.Error())
	assert.True(t, IsFatal(fmt.Errorf("send: %w", err)))
	assert.False(t, IsFatal(&StatusError{StatusCode: 500}))
	assert.Equal(t, "newsapi: unexpected status 500", (&StatusError{Service: "newsapi", StatusCode: 500}).Error())
}

func TestDo_RetriesTransient(t *testing.T) {
	t.Parallel()

	calls := 0
	var retried []int
	cfg := fastRetry(3)
	cfg.OnRetry = func(attempt int, _ error) { retried = append(retried, attempt) }

	err := Do(context.Background(), cfg, func(context.Context) error {
		calls++
		if calls < 3 {
			return &StatusError{StatusCode: http.StatusServiceUnavailable}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_StopsOnPermanent(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), fastRetry(5), func(context.Context) error {
		calls++
		return &StatusError{StatusCode: http.StatusUnauthorized}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), fastRetry(2), func(context.Context) error {
		calls++
		return syscall.ECONNRESET
	})
	require.ErrorIs(t, err, syscall.ECONNRESET)
	assert.Equal(t, 2, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, RetryConfig{MaxAttempts: 5, InitialBackoff: time.Hour, MaxBackoff: time.Hour}, func(context.Context) error {
		calls++
		cancel()
		return syscall.ECONNRESET
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal(t *testing.T) {
	t.Parallel()

	v, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = DoVal(context.Background(), fastRetry(3), func(context.Context) (int, error) { return 7, errors.New("nope") })
	require.Error(t, err)
	assert.Zero(t, v)
}

func TestBackoffBounds(t *testing.T) {
	t.Parallel()

	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second}
	assert.Equal(t, 100*time.Millisecond, backoff(0, cfg))
	assert.Equal(t, 400*time.Millisecond, backoff(2, cfg))
	assert.Equal(t, time.Second, backoff(10, cfg))

	cfg.JitterFraction = 0.5
	for range 50 {
		d := backoff(1, cfg)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 300*time.Millisecond)
	}
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	t.Parallel()
	b := NewBreaker(BreakerConfig{Name: "newsapi", Threshold: 2, Cooldown: time.Hour})
	ctx := context.Background()

	fail := func(context.Context) error { return errors.New("boom") }
	require.Error(t, b.Execute(ctx, fail))
	assert.Equal(t, Closed, b.State())
	require.Error(t, b.Execute(ctx, fail))
	assert.Equal(t, Open, b.State())

	called := false
	err := b.Execute(ctx, func(context.Context) error { called = true; return nil })
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreaker_FatalTripsImmediately(t *testing.T) {
	t.Parallel()
	b := NewBreaker(BreakerConfig{Name: "newsapi", Threshold: 5, Cooldown: time.Hour})

	err := b.Execute(context.Background(), func(context.Context) error {
		return &StatusError{StatusCode: http.StatusUnauthorized}
	})
	require.Error(t, err)
	assert.Equal(t, Open, b.State())
}

func TestBreaker_HalfOpenTrialRequest(t *testing.T) {
	t.Parallel()
	b := NewBreaker(BreakerConfig{Threshold: 1, Cooldown: time.Minute})
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	require.Error(t, b.Execute(ctx, func(context.Context) error { return errors.New("down") }))
	assert.Equal(t, Open, b.State())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, HalfOpen, b.State())

	require.Error(t, b.Execute(ctx, func(context.Context) error { return errors.New("still down") }))
	assert.Equal(t, Open, b.State())

	now = now.Add(2 * time.Minute)
	require.NoError(t, b.Execute(ctx, func(context.Context) error { return nil }))
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_IgnoresCancellation(t *testing.T) {
	t.Parallel()
	b := NewBreaker(BreakerConfig{Threshold: 1})

	_ = b.Execute(context.Background(), func(context.Context) error { return context.Canceled })
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_Concurrent(t *testing.T) {
	t.Parallel()
	b := NewBreaker(BreakerConfig{Threshold: 1000})

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Execute(context.Background(), func(context.Context) error { return errors.New("x") })
		}()
	}
	wg.Wait()
	assert.Equal(t, Closed, b.State())
}

func TestStateString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "half-open", HalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
