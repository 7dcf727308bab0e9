package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

var ErrUnavailable = errors.New("payment gateway unavailable")

type Info struct {
	Amount   decimal.Decimal
	Currency string
	Method   string
}

// Gateway charges a payment. approved=false with a nil error is a decline.
type Gateway interface {
	Process(ctx context.Context, info Info) (approved bool, err error)
}

// Stub approves everything.
type Stub struct{}

func (Stub) Process(context.Context, Info) (bool, error) {
	return true, nil
}

type BreakerSettings struct {
	Timeout          time.Duration
	MaxFailures      uint32
	OpenStateTimeout time.Duration
}

// Breaker bounds every call to the wrapped gateway with a timeout and stops
// calling it after MaxFailures consecutive errors. Declines do not count
// as failures. A gateway that ignores its context is abandoned when the
// timeout fires; its goroutine exits once the call returns.
type Breaker struct {
	next    Gateway
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[bool]
}

func NewBreaker(next Gateway, s BreakerSettings) *Breaker {
	maxFailures := s.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	cb := gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:        "payment",
		MaxRequests: 1,
		Timeout:     s.OpenStateTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	})
	return &Breaker{next: next, timeout: s.Timeout, cb: cb}
}

type result struct {
	approved bool
	err      error
}

func (b *Breaker) call(ctx context.Context, info Info) (bool, error) {
	done := make(chan result, 1)
	go func() {
		approved, err := b.next.Process(ctx, info)
		done <- result{approved: approved, err: err}
	}()
	select {
	case r := <-done:
		return r.approved, r.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (b *Breaker) Process(ctx context.Context, info Info) (bool, error) {
	approved, err := b.cb.Execute(func() (bool, error) {
		callCtx := ctx
		if b.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, b.timeout)
			defer cancel()
		}
		return b.call(callCtx, info)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false, ErrUnavailable
	}
	if err != nil {
		return false, fmt.Errorf("process payment: %w", err)
	}
	return approved, nil
}
