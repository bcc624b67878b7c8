package resilience

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() Policy {
	return Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	val, err := Do(context.Background(), fastPolicy(), func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransient(t *testing.T) {
	calls := 0
	val, err := Do(context.Background(), fastPolicy(), func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, NewTransientError(eris.New("service unavailable"), 503)
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, val)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := eris.New("bad request")
	_, err := Do(context.Background(), fastPolicy(), func(context.Context) (int, error) {
		calls++
		return 0, permanent
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(), func(context.Context) (int, error) {
		calls++
		return 0, NewTransientError(eris.New("still down"), 500)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := Do(ctx, fastPolicy(), func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, NewTransientError(eris.New("timeout"), 504)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoCallsOnRetry(t *testing.T) {
	var attempts []int
	p := fastPolicy()
	p.OnRetry = func(attempt int, err error) { attempts = append(attempts, attempt) }

	_, _ = Do(context.Background(), p, func(context.Context) (int, error) {
		return 0, NewTransientError(eris.New("flaky"), 502)
	})
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient wrapper", NewTransientError(eris.New("429"), 429), true},
		{"wrapped transient", eris.Wrap(NewTransientError(eris.New("503"), 503), "create lead"), true},
		{"conn refused", syscall.ECONNREFUSED, true},
		{"message heuristic", eris.New("read tcp: connection reset by peer"), true},
		{"permanent", eris.New("duplicate value on record"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	assert.True(t, IsTransientHTTPStatus(429))
	assert.True(t, IsTransientHTTPStatus(503))
	assert.False(t, IsTransientHTTPStatus(400))
	assert.False(t, IsTransientHTTPStatus(200))
}
