package resilience

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Gate bounds calls to one external collaborator process-wide. A semaphore
// caps calls in flight and a token bucket with burst 1 caps calls started
// per window, so no more than perWindow+1 calls begin in any window.
type Gate struct {
	name     string
	inFlight *semaphore.Weighted
	limiter  *rate.Limiter
}

// NewGate creates a gate admitting perWindow calls per window with at most
// maxInFlight outstanding. Non-positive perWindow disables the rate limit;
// non-positive maxInFlight means 1.
func NewGate(name string, perWindow int, window time.Duration, maxInFlight int) *Gate {
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	limit := rate.Inf
	if perWindow > 0 && window > 0 {
		limit = rate.Every(window / time.Duration(perWindow))
	}
	return &Gate{
		name:     name,
		inFlight: semaphore.NewWeighted(int64(maxInFlight)),
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// PerMinute is shorthand for NewGate(name, n, time.Minute, maxInFlight).
func PerMinute(name string, n, maxInFlight int) *Gate {
	return NewGate(name, n, time.Minute, maxInFlight)
}

// Name returns the collaborator name the gate guards.
func (g *Gate) Name() string {
	return g.name
}

// Wait blocks until a call may start and returns a release func that must be
// called when the call finishes.
func (g *Gate) Wait(ctx context.Context) (func(), error) {
	if err := g.inFlight.Acquire(ctx, 1); err != nil {
		return nil, eris.Wrapf(err, "gate %s: acquire", g.name)
	}
	start := time.Now()
	if err := g.limiter.Wait(ctx); err != nil {
		g.inFlight.Release(1)
		return nil, eris.Wrapf(err, "gate %s: rate wait", g.name)
	}
	if waited := time.Since(start); waited > time.Second {
		zap.L().Debug("rate gate delayed call",
			zap.String("gate", g.name),
			zap.Duration("waited", waited),
		)
	}
	return func() { g.inFlight.Release(1) }, nil
}

// Do runs fn once it passes the gate.
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	release, err := g.Wait(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}

// Through runs fn through g and returns its value. A nil gate runs fn
// directly.
func Through[T any](ctx context.Context, g *Gate, fn func(ctx context.Context) (T, error)) (T, error) {
	if g == nil {
		return fn(ctx)
	}
	var zero T
	release, err := g.Wait(ctx)
	if err != nil {
		return zero, err
	}
	defer release()
	return fn(ctx)
}
