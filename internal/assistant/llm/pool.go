package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	logx "github.com/quantumgateway/hotelchat/pkg/logger"
)

const DefaultWorkers = 3

// PoolStats is a snapshot of pool occupancy.
type PoolStats struct {
	Size    int   `json:"size"`
	Active  int64 `json:"active"`
	Waiting int64 `json:"waiting"`
}

// Pool caps how many model calls run at once. Callers beyond the cap queue in
// arrival order until a slot frees or their wait budget runs out.
type Pool struct {
	sem       *semaphore.Weighted
	size      int
	queueWait time.Duration

	active  atomic.Int64
	waiting atomic.Int64
}

// NewPool creates a pool with size slots. A positive queueWait bounds how long
// a caller may wait for a slot.
func NewPool(size int, queueWait time.Duration) *Pool {
	if size <= 0 {
		size = DefaultWorkers
	}
	return &Pool{
		sem:       semaphore.NewWeighted(int64(size)),
		size:      size,
		queueWait: queueWait,
	}
}

// Do runs fn once a slot is free. The slot is held until fn returns.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	waitCtx := ctx
	if p.queueWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.queueWait)
		defer cancel()
	}

	p.waiting.Add(1)
	err := p.sem.Acquire(waitCtx, 1)
	p.waiting.Add(-1)
	if err != nil {
		logx.Warn().Err(err).Int64("waiting", p.waiting.Load()).Msg("no free model worker")
		return err
	}

	p.active.Add(1)
	defer func() {
		p.active.Add(-1)
		p.sem.Release(1)
	}()
	return fn(ctx)
}

func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Size:    p.size,
		Active:  p.active.Load(),
		Waiting: p.waiting.Load(),
	}
}

// PooledInvoker routes every call of next through a Pool.
type PooledInvoker struct {
	next Invoker
	pool *Pool
}

func NewPooledInvoker(next Invoker, pool *Pool) *PooledInvoker {
	return &PooledInvoker{next: next, pool: pool}
}

func (p *PooledInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	var out string
	err := p.pool.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = p.next.Invoke(ctx, prompt)
		return err
	})
	if err == nil {
		return out, nil
	}

	var invErr *Error
	if errors.As(err, &invErr) {
		return "", err
	}
	// the call never got a slot
	if errors.Is(err, context.DeadlineExceeded) {
		return "", timeoutError(err)
	}
	return "", unavailableError(err)
}

var _ Invoker = (*PooledInvoker)(nil)
