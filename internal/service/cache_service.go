package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-client/internal/query"
	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
)

// queryCache is the part of the query client the console inspects.
type queryCache interface {
	Entries() []query.Snapshot
	Invalidate(prefix query.Key) int
	Clear(ctx context.Context) error
	Persist(ctx context.Context) error
	Online() *query.OnlineManager
}

// CacheStatus is the diagnostic view of the query cache.
type CacheStatus struct {
	Online  bool             `json:"online"`
	Entries []query.Snapshot `json:"entries"`
}

// CacheService exposes the query cache for diagnostics and manual refresh.
type CacheService struct {
	cache  queryCache
	logger *zap.Logger
}

// NewCacheService constructs a cache service.
func NewCacheService(cache queryCache, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{cache: cache, logger: logger}
}

// Status lists every entry ordered by key.
func (s *CacheService) Status() CacheStatus {
	return CacheStatus{Online: s.cache.Online().IsOnline(), Entries: s.cache.Entries()}
}

// Invalidate marks every entry of entity stale; an empty entity marks all.
func (s *CacheService) Invalidate(entity string) int {
	n := s.cache.Invalidate(query.Key{Entity: entity})
	s.logger.Debug("cache invalidated", zap.String("entity", entity), zap.Int("entries", n))
	return n
}

// Clear drops every entry and the persisted snapshot.
func (s *CacheService) Clear(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear cache")
	}
	return nil
}

// Persist writes the cache snapshot now instead of waiting for the next write.
func (s *CacheService) Persist(ctx context.Context) error {
	if err := s.cache.Persist(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist cache")
	}
	return nil
}
