package query

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
	"github.com/noah-isme/sma-adp-client/pkg/jobs"
	"github.com/noah-isme/sma-adp-client/pkg/storage"
)

type persistedCache struct {
	Buster    string           `json:"buster"`
	Timestamp time.Time        `json:"timestamp"`
	Entries   []persistedEntry `json:"entries"`
}

type persistedEntry struct {
	Key       Key             `json:"key"`
	Data      json.RawMessage `json:"data"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Persist writes every successful entry to storage under "queryCache".
func (c *Client) Persist(ctx context.Context) error {
	if c.kv == nil || !c.cfg.PersistEnabled {
		return nil
	}

	doc := persistedCache{Buster: c.cfg.Buster, Timestamp: c.now().UTC()}
	c.mu.Lock()
	for _, e := range c.entries {
		if e.status != StatusSuccess {
			continue
		}
		if e.raw == nil {
			raw, err := json.Marshal(e.data)
			if err != nil {
				c.logger.Warn("skipping unserialisable cache entry", zap.String("key", e.key.String()), zap.Error(err))
				continue
			}
			e.raw = raw
		}
		doc.Entries = append(doc.Entries, persistedEntry{Key: e.key, Data: e.raw, FetchedAt: e.fetchedAt})
	}
	c.mu.Unlock()

	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return c.kv.Set(ctx, storage.KeyQueryCache, string(payload))
}

// Restore loads a persisted snapshot written by Persist. Snapshots older than
// the configured max age, written under another buster or unreadable are
// discarded and the cache starts empty. Restore never fails startup; the
// returned count is the number of entries restored.
func (c *Client) Restore(ctx context.Context) int {
	if c.kv == nil || !c.cfg.PersistEnabled {
		return 0
	}
	raw, err := c.kv.Get(ctx, storage.KeyQueryCache)
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			c.logger.Warn("query cache unreadable, starting empty", zap.Error(err))
		}
		return 0
	}

	var doc persistedCache
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		c.logger.Warn("query cache corrupt, starting empty", zap.Error(err))
		c.discardPersisted(ctx)
		return 0
	}
	if doc.Buster != c.cfg.Buster {
		c.logger.Info("query cache buster changed, starting empty", zap.String("stored", doc.Buster), zap.String("current", c.cfg.Buster))
		c.discardPersisted(ctx)
		return 0
	}
	if c.cfg.CacheMaxAge > 0 && c.now().Sub(doc.Timestamp) > c.cfg.CacheMaxAge {
		c.logger.Info("query cache expired, starting empty", zap.Time("persisted_at", doc.Timestamp))
		c.discardPersisted(ctx)
		return 0
	}

	restored := 0
	c.mu.Lock()
	for _, pe := range doc.Entries {
		if pe.Key.Entity == "" || len(pe.Data) == 0 {
			continue
		}
		e := c.entryLocked(pe.Key)
		if e.status != StatusIdle {
			continue
		}
		e.status = StatusSuccess
		e.raw = pe.Data
		e.data = nil
		e.fetchedAt = pe.FetchedAt
		restored++
	}
	c.mu.Unlock()

	c.logger.Debug("query cache restored", zap.Int("entries", restored))
	return restored
}

func (c *Client) discardPersisted(ctx context.Context) {
	if err := c.kv.Delete(ctx, storage.KeyQueryCache); err != nil {
		c.logger.Warn("failed to discard persisted query cache", zap.Error(err))
	}
}

// schedulePersist coalesces persistence into at most one pending job. When
// workers are not running the snapshot is written inline.
func (c *Client) schedulePersist() {
	if c.kv == nil || !c.cfg.PersistEnabled {
		return
	}
	if !atomic.CompareAndSwapInt32(&c.persistPending, 0, 1) {
		return
	}
	if err := c.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobPersist}); err == nil {
		return
	}
	atomic.StoreInt32(&c.persistPending, 0)
	if err := c.Persist(c.ctx); err != nil {
		c.logger.Warn("failed to persist query cache", zap.Error(err))
	}
}
