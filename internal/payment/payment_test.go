package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gatewayFunc func(ctx context.Context, info Info) (bool, error)

func (f gatewayFunc) Process(ctx context.Context, info Info) (bool, error) { return f(ctx, info) }

var usdInfo = Info{Amount: decimal.RequireFromString("75.89"), Currency: "USD", Method: "credit card"}

func TestStub_Approves(t *testing.T) {
	ok, err := Stub{}.Process(context.Background(), usdInfo)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBreaker_PassesThrough(t *testing.T) {
	var got Info
	b := NewBreaker(gatewayFunc(func(_ context.Context, info Info) (bool, error) {
		got = info
		return true, nil
	}), BreakerSettings{Timeout: time.Second})

	ok, err := b.Process(context.Background(), usdInfo)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "USD", got.Currency)
	assert.True(t, usdInfo.Amount.Equal(got.Amount))
}

func TestBreaker_DeclineIsNotAnError(t *testing.T) {
	b := NewBreaker(gatewayFunc(func(context.Context, Info) (bool, error) {
		return false, nil
	}), BreakerSettings{MaxFailures: 1})

	for i := 0; i < 3; i++ {
		ok, err := b.Process(context.Background(), usdInfo)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestBreaker_Timeout(t *testing.T) {
	b := NewBreaker(gatewayFunc(func(ctx context.Context, _ Info) (bool, error) {
		<-ctx.Done()
		return false, ctx.Err()
	}), BreakerSettings{Timeout: 10 * time.Millisecond})

	_, err := b.Process(context.Background(), usdInfo)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBreaker_TimeoutIgnoredContext(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	b := NewBreaker(gatewayFunc(func(context.Context, Info) (bool, error) {
		<-release
		return true, nil
	}), BreakerSettings{Timeout: 10 * time.Millisecond})

	start := time.Now()
	ok, err := b.Process(context.Background(), usdInfo)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	calls := 0
	b := NewBreaker(gatewayFunc(func(context.Context, Info) (bool, error) {
		calls++
		return false, errors.New("gateway down")
	}), BreakerSettings{MaxFailures: 2, OpenStateTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := b.Process(context.Background(), usdInfo)
		require.Error(t, err)
	}

	_, err := b.Process(context.Background(), usdInfo)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, calls)
}
