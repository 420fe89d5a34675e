package query

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/sma-adp-client/pkg/config"
	"github.com/noah-isme/sma-adp-client/pkg/jobs"
	"github.com/noah-isme/sma-adp-client/pkg/storage"
)

const (
	jobRefetch = "refetch"
	jobPersist = "persist"
)

// Recorder receives cache instrumentation.
type Recorder interface {
	RecordCacheOperation(hit bool, duration time.Duration)
	RecordQueryEvent(event string)
}

// Snapshot is a read-only view of one cache entry.
type Snapshot struct {
	Key       Key         `json:"key"`
	Status    Status      `json:"status"`
	FetchedAt time.Time   `json:"fetched_at,omitempty"`
	Stale     bool        `json:"stale"`
	Error     string      `json:"error,omitempty"`
	Observers int         `json:"observers"`
	Data      interface{} `json:"-"`
}

type entry struct {
	key         Key
	status      Status
	data        interface{}
	raw         json.RawMessage
	err         error
	fetchedAt   time.Time
	invalidated bool
	version     uint64
	refetch     func(context.Context) error
	subscribers map[uint64]func(Snapshot)
}

// Options wires the client collaborators. All are optional.
type Options struct {
	Storage  storage.KV
	Online   *OnlineManager
	Recorder Recorder
	Logger   *zap.Logger
	Now      func() time.Time
}

// Client is the process-wide query cache.
type Client struct {
	cfg      config.QueryConfig
	kv       storage.KV
	online   *OnlineManager
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	epoch   uint64
	nextSub uint64

	group          singleflight.Group
	queue          *jobs.Queue
	persistPending int32

	ctx    context.Context
	cancel context.CancelFunc
}

// NewClient constructs a cache. Call Start to enable background refetch and
// persistence workers.
func NewClient(cfg config.QueryConfig, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	online := opts.Online
	if online == nil {
		online = NewOnlineManager(true)
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.RetryMaxDelay < cfg.RetryDelay {
		cfg.RetryMaxDelay = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		cfg:      cfg,
		kv:       opts.Storage,
		online:   online,
		recorder: opts.Recorder,
		logger:   logger,
		now:      now,
		entries:  make(map[string]*entry),
		ctx:      ctx,
		cancel:   cancel,
	}
	c.queue = jobs.NewQueue("query", c.handleJob, jobs.QueueConfig{
		Workers:       cfg.RefetchWorkers,
		MaxRetries:    3,
		RetryDelay:    cfg.RetryDelay,
		MaxRetryDelay: cfg.RetryMaxDelay,
		Logger:        logger,
	})
	online.OnChange(func(isOnline bool) {
		if isOnline {
			c.refetchOnReconnect()
		}
	})
	return c
}

// Start launches the background workers.
func (c *Client) Start(ctx context.Context) {
	c.queue.Start(ctx)
}

// Close stops the workers and cancels in-flight fetches.
func (c *Client) Close() {
	c.cancel()
	c.queue.Stop()
}

// Online exposes the connectivity manager driving retry pauses.
func (c *Client) Online() *OnlineManager {
	return c.online
}

// Subscribe registers fn to receive a snapshot after every state change of
// key. The returned func removes the subscription.
func (c *Client) Subscribe(key Key, fn func(Snapshot)) func() {
	c.mu.Lock()
	e := c.entryLocked(key)
	c.nextSub++
	id := c.nextSub
	e.subscribers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			if current, ok := c.entries[key.String()]; ok {
				delete(current.subscribers, id)
			}
			c.mu.Unlock()
		})
	}
}

// Invalidate marks every entry under prefix stale. Entries with subscribers
// are refetched in the background. Fetches already in flight are detached so
// later reads start a new request. It returns the number of entries marked.
func (c *Client) Invalidate(prefix Key) int {
	c.mu.Lock()
	var (
		notify  []notification
		refetch []Key
	)
	for _, e := range c.entries {
		if !e.key.Matches(prefix) {
			continue
		}
		e.invalidated = true
		e.version++
		c.group.Forget(e.key.String())
		notify = append(notify, c.notificationLocked(e))
		if len(e.subscribers) > 0 && e.refetch != nil {
			refetch = append(refetch, e.key)
		}
	}
	c.mu.Unlock()

	deliver(notify)
	for _, key := range refetch {
		c.scheduleRefetch(key)
	}
	c.record("invalidate")
	c.logger.Debug("cache invalidated", zap.String("prefix", prefix.String()), zap.Int("entries", len(notify)))
	return len(notify)
}

// Clear drops every cached value and the persisted snapshot. Subscriptions
// survive and observe the idle state. Fetches already in flight are
// discarded when they settle.
func (c *Client) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.epoch++
	var notify []notification
	for k, e := range c.entries {
		if len(e.subscribers) == 0 {
			delete(c.entries, k)
			continue
		}
		e.status = StatusIdle
		e.data = nil
		e.raw = nil
		e.err = nil
		e.fetchedAt = time.Time{}
		e.invalidated = false
		e.version++
		notify = append(notify, c.notificationLocked(e))
	}
	c.mu.Unlock()

	deliver(notify)
	if c.kv == nil {
		return nil
	}
	return c.kv.Delete(ctx, storage.KeyQueryCache)
}

// Entries lists snapshots of every entry ordered by key.
func (c *Client) Entries() []Snapshot {
	c.mu.Lock()
	out := make([]Snapshot, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, c.snapshotLocked(e))
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out
}

// Snapshot returns the current state of key.
func (c *Client) Snapshot(key Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key.String()]; ok {
		return c.snapshotLocked(e)
	}
	return Snapshot{Key: key, Status: StatusIdle}
}

func (c *Client) entryLocked(key Key) *entry {
	id := key.String()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{key: key, status: StatusIdle, subscribers: make(map[uint64]func(Snapshot))}
		c.entries[id] = e
	}
	return e
}

func (c *Client) staleLocked(e *entry, staleTime time.Duration) bool {
	if e.invalidated || e.fetchedAt.IsZero() {
		return true
	}
	if staleTime <= 0 {
		staleTime = c.cfg.StaleTime
	}
	return c.now().Sub(e.fetchedAt) >= staleTime
}

func (c *Client) snapshotLocked(e *entry) Snapshot {
	snap := Snapshot{
		Key:       e.key,
		Status:    e.status,
		FetchedAt: e.fetchedAt,
		Stale:     e.status == StatusSuccess && c.staleLocked(e, 0),
		Observers: len(e.subscribers),
		Data:      e.data,
	}
	if e.err != nil {
		snap.Error = e.err.Error()
	}
	return snap
}

type notification struct {
	snap Snapshot
	fns  []func(Snapshot)
}

func (c *Client) notificationLocked(e *entry) notification {
	n := notification{snap: c.snapshotLocked(e)}
	for _, fn := range e.subscribers {
		n.fns = append(n.fns, fn)
	}
	return n
}

func deliver(list []notification) {
	for _, n := range list {
		for _, fn := range n.fns {
			fn(n.snap)
		}
	}
}

// transition applies mutate to the entry of key under the lock and notifies
// subscribers afterwards.
func (c *Client) transition(key Key, mutate func(*entry)) {
	c.mu.Lock()
	e := c.entryLocked(key)
	mutate(e)
	n := c.notificationLocked(e)
	c.mu.Unlock()
	deliver([]notification{n})
}

func (c *Client) refetchOnReconnect() {
	c.mu.Lock()
	var keys []Key
	for _, e := range c.entries {
		if len(e.subscribers) == 0 || e.refetch == nil {
			continue
		}
		if e.status == StatusError || c.staleLocked(e, 0) {
			keys = append(keys, e.key)
		}
	}
	c.mu.Unlock()

	for _, key := range keys {
		c.scheduleRefetch(key)
	}
	if len(keys) > 0 {
		c.logger.Info("connectivity restored, refetching", zap.Int("queries", len(keys)))
	}
}

func (c *Client) scheduleRefetch(key Key) {
	err := c.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobRefetch, Payload: key})
	if err != nil {
		c.logger.Debug("refetch not scheduled", zap.String("key", key.String()), zap.Error(err))
	}
}

func (c *Client) handleJob(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case jobRefetch:
		key, ok := job.Payload.(Key)
		if !ok {
			return nil
		}
		c.mu.Lock()
		var refetch func(context.Context) error
		if e, exists := c.entries[key.String()]; exists {
			refetch = e.refetch
		}
		c.mu.Unlock()
		if refetch == nil {
			return nil
		}
		// Fetch already retries; a failed refetch stays recorded on the entry.
		if err := refetch(ctx); err != nil {
			c.logger.Debug("background refetch failed", zap.String("key", key.String()), zap.Error(err))
		}
		return nil
	case jobPersist:
		atomic.StoreInt32(&c.persistPending, 0)
		return c.Persist(ctx)
	default:
		return nil
	}
}

func (c *Client) record(event string) {
	if c.recorder != nil {
		c.recorder.RecordQueryEvent(event)
	}
}

func (c *Client) recordLookup(hit bool, start time.Time) {
	if c.recorder != nil {
		c.recorder.RecordCacheOperation(hit, c.now().Sub(start))
	}
}
