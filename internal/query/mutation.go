package query

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
)

// MutationConfig describes a tracked write.
type MutationConfig[In, Out any] struct {
	Name string
	Fn   func(context.Context, In) (Out, error)
	// Invalidates lists the key prefixes to mark stale once Fn succeeds.
	Invalidates func(In, Out) []Key
	OnSuccess   func(Out, In)
	OnError     func(error, In)
	// Retry overrides the client default; negative disables retries.
	Retry int
}

// Mutation runs writes, tracks whether one is pending and invalidates the
// affected queries before reporting success.
type Mutation[In, Out any] struct {
	client  *Client
	cfg     MutationConfig[In, Out]
	retries int
	pending int32
}

// NewMutation binds a mutation to the cache.
func NewMutation[In, Out any](c *Client, cfg MutationConfig[In, Out]) *Mutation[In, Out] {
	retries := cfg.Retry
	switch {
	case retries < 0:
		retries = 0
	case retries == 0:
		retries = c.cfg.MutationRetry
	}
	return &Mutation[In, Out]{client: c, cfg: cfg, retries: retries}
}

// IsPending reports whether a Mutate call is in progress.
func (m *Mutation[In, Out]) IsPending() bool {
	return atomic.LoadInt32(&m.pending) > 0
}

// Mutate performs the write. Only failures where no response arrived are
// retried; a rejected write is final.
func (m *Mutation[In, Out]) Mutate(ctx context.Context, in In) (Out, error) {
	atomic.AddInt32(&m.pending, 1)
	defer atomic.AddInt32(&m.pending, -1)

	c := m.client
	out, err := retry(ctx, c, m.retries, NoResponse, func(ctx context.Context) (Out, error) {
		return m.cfg.Fn(ctx, in)
	})
	if err != nil {
		c.record("mutation_error")
		c.logger.Debug("mutation failed", zap.String("mutation", m.cfg.Name), zap.Error(err))
		if m.cfg.OnError != nil {
			m.cfg.OnError(err, in)
		}
		return out, err
	}

	if m.cfg.Invalidates != nil {
		for _, key := range m.cfg.Invalidates(in, out) {
			c.Invalidate(key)
		}
	}
	c.record("mutation")
	if m.cfg.OnSuccess != nil {
		m.cfg.OnSuccess(out, in)
	}
	return out, nil
}
