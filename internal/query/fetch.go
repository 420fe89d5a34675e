package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
	"github.com/noah-isme/sma-adp-client/pkg/jobs"
	"github.com/noah-isme/sma-adp-client/pkg/middleware/requestid"
)

// Query describes one cached read. A disabled query never leaves idle and
// never reaches the network.
type Query[T any] struct {
	Key       Key
	Fetch     func(context.Context) (T, error)
	Disabled  bool
	StaleTime time.Duration
}

// Result is what a screen receives from a query.
type Result[T any] struct {
	Data      T
	Status    Status
	Err       error
	FetchedAt time.Time
	Stale     bool
	FromCache bool
}

// IsIdle reports a query that has not run.
func (r Result[T]) IsIdle() bool { return r.Status == StatusIdle }

// IsLoading reports an in-flight query.
func (r Result[T]) IsLoading() bool { return r.Status == StatusLoading }

// IsError reports a failed query.
func (r Result[T]) IsError() bool { return r.Status == StatusError }

// Fetch returns the cached value of q.Key when fresh, otherwise loads it.
// Concurrent loads of one key share a single call to q.Fetch. A caller whose
// ctx ends stops waiting; the shared load still settles the entry.
func Fetch[T any](ctx context.Context, c *Client, q Query[T]) (Result[T], error) {
	if q.Disabled || q.Fetch == nil {
		return Result[T]{Status: StatusIdle}, nil
	}

	start := c.now()
	c.mu.Lock()
	e := c.entryLocked(q.Key)
	e.refetch = func(ctx context.Context) error {
		_, err := Fetch(ctx, c, q)
		return err
	}
	hasData := e.data != nil || e.raw != nil
	fresh := e.status == StatusSuccess && !c.staleLocked(e, q.StaleTime)
	c.mu.Unlock()

	if fresh {
		if res, ok := cached[T](c, q.Key, q.StaleTime); ok {
			c.recordLookup(true, start)
			return res, nil
		}
	}
	c.recordLookup(false, start)

	if hasData && !c.online.IsOnline() {
		if res, ok := cached[T](c, q.Key, q.StaleTime); ok {
			c.scheduleRefetch(q.Key)
			return res, nil
		}
	}

	v, err := c.load(ctx, q.Key, func(ctx context.Context) (interface{}, error) {
		return q.Fetch(ctx)
	})

	res, ok := cached[T](c, q.Key, q.StaleTime)
	res.FromCache = false
	if err == nil && !ok {
		// The cache was cleared while loading; hand the value to this caller only.
		if data, typed := v.(T); typed {
			res.Data = data
			res.Status = StatusSuccess
		}
	}
	if err != nil {
		res.Status = StatusError
		res.Err = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			res.Status = c.Snapshot(q.Key).Status
		}
		return res, err
	}
	return res, nil
}

// cached decodes the current entry value as T. Values restored from
// persistence are held as raw JSON until first read.
func cached[T any](c *Client, key Key, staleTime time.Duration) (Result[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return Result[T]{Status: StatusIdle}, false
	}
	res := Result[T]{
		Status:    e.status,
		Err:       e.err,
		FetchedAt: e.fetchedAt,
		Stale:     c.staleLocked(e, staleTime),
		FromCache: true,
	}
	switch v := e.data.(type) {
	case T:
		res.Data = v
		return res, true
	case nil:
	default:
		return res, false
	}
	if e.raw == nil {
		return res, false
	}
	var decoded T
	if err := json.Unmarshal(e.raw, &decoded); err != nil {
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key.String()), zap.Error(err))
		e.raw = nil
		e.status = StatusIdle
		e.fetchedAt = time.Time{}
		res.Status = StatusIdle
		return res, false
	}
	e.data = decoded
	res.Data = decoded
	return res, true
}

func (c *Client) load(ctx context.Context, key Key, fetcher func(context.Context) (interface{}, error)) (interface{}, error) {
	reqID := requestid.FromContext(ctx)
	ch := c.group.DoChan(key.String(), func() (interface{}, error) {
		return c.run(requestid.WithContext(c.ctx, reqID), key, fetcher)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.record("shared")
		}
		return res.Val, res.Err
	}
}

func (c *Client) run(ctx context.Context, key Key, fetcher func(context.Context) (interface{}, error)) (interface{}, error) {
	var version, epoch uint64
	c.transition(key, func(e *entry) {
		e.status = StatusLoading
		version = e.version
	})
	c.mu.Lock()
	epoch = c.epoch
	c.mu.Unlock()

	c.record("fetch")
	v, err := retry(ctx, c, c.cfg.Retry, Retryable, fetcher)
	settledAt := c.now()

	c.mu.Lock()
	discarded := c.epoch != epoch
	c.mu.Unlock()
	if discarded {
		return v, err
	}

	c.transition(key, func(e *entry) {
		if e.version != version && e.status == StatusSuccess && !e.invalidated {
			// a fetch started after the invalidation has already settled
			return
		}
		if err != nil {
			e.status = StatusError
			e.err = err
			return
		}
		e.status = StatusSuccess
		e.data = v
		e.raw = nil
		e.err = nil
		e.fetchedAt = settledAt
		e.invalidated = e.version != version
	})
	if err != nil {
		c.record("error")
		c.logger.Debug("query failed", zap.String("key", key.String()), zap.Error(err))
		return nil, err
	}
	c.schedulePersist()
	return v, nil
}

// Retryable reports failures worth retrying: transport errors and server-side
// failures. Validation, auth and not-found responses are final.
func Retryable(err error) bool {
	var appErr *appErrors.Error
	if !errors.As(err, &appErr) || appErr.Code != appErrors.ErrFetch.Code {
		return false
	}
	switch {
	case appErr.Status == 0:
		return true
	case appErr.Status == http.StatusRequestTimeout, appErr.Status == http.StatusTooManyRequests:
		return true
	default:
		return appErr.Status >= http.StatusInternalServerError
	}
}

// NoResponse reports a transport failure where no response was received.
func NoResponse(err error) bool {
	var appErr *appErrors.Error
	return errors.As(err, &appErr) && appErr.Code == appErrors.ErrFetch.Code && appErr.Status == 0
}

// retry runs fn up to limit+1 times. Each attempt waits for connectivity
// first, so no attempt is made while offline.
func retry[T any](ctx context.Context, c *Client, limit int, retryable func(error) bool, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		if err := c.online.WaitOnline(ctx); err != nil {
			return zero, fmt.Errorf("waiting for connectivity: %w", err)
		}
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= limit || !retryable(err) || ctx.Err() != nil {
			return zero, err
		}

		delay := jobs.Backoff(c.cfg.RetryDelay, c.cfg.RetryMaxDelay, attempt+1)
		c.record("retry")
		c.logger.Debug("retrying", zap.Int("attempt", attempt+1), zap.Duration("delay", delay), zap.Error(err))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
	}
}
