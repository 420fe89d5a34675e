// Package app assembles the client data-sync layer shared by the console
// gateway and the command line tool.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/query"
	"github.com/noah-isme/sma-adp-client/internal/repository"
	"github.com/noah-isme/sma-adp-client/internal/service"
	"github.com/noah-isme/sma-adp-client/internal/session"
	"github.com/noah-isme/sma-adp-client/internal/validation"
	"github.com/noah-isme/sma-adp-client/pkg/apiclient"
	"github.com/noah-isme/sma-adp-client/pkg/config"
	"github.com/noah-isme/sma-adp-client/pkg/export"
	"github.com/noah-isme/sma-adp-client/pkg/storage"
)

// App holds the wired services. Close releases storage and stops the
// cache workers.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Storage  storage.KV
	Sessions *session.Store
	Cache    *query.Client
	Online   *query.OnlineManager
	Prober   *query.Prober
	Metrics  *service.MetricsService

	Auth     *service.AuthService
	Teachers *service.TeacherService
	Students *service.StudentService
	Parents  *service.ParentService
	Exports  *service.ExportService
	CacheOps *service.CacheService
}

// New opens storage, restores the stored session and cached queries and
// builds the services on top. Background workers start with Start.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	kv, err := storage.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	metrics := service.NewMetricsService()

	base, err := apiclient.New(apiclient.Options{
		BaseURL:  cfg.API.BaseURL,
		Timeout:  cfg.API.Timeout,
		Logger:   logger.Named("api"),
		Observer: metrics,
	})
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	auth := repository.NewAuthRepository(base)
	store := session.NewStore(ctx, kv, auth, logger.Named("session"))
	api := base.WithTokens(store)

	online := query.NewOnlineManager(true)
	cache := query.NewClient(cfg.Query, query.Options{
		Storage:  kv,
		Online:   online,
		Recorder: metrics,
		Logger:   logger.Named("query"),
	})

	// Cached rosters belong to whoever was signed in.
	store.OnChange(clearOnOwnerChange(cache, store.Current(), logger))

	if store.Current().Authenticated() {
		restored := cache.Restore(ctx)
		logger.Debug("query cache restored", zap.Int("entries", restored))
	}

	validate := validation.New()
	teachers := service.NewTeacherService(repository.NewTeacherRepository(api, cache, logger), store, validate, logger)
	students := service.NewStudentService(repository.NewStudentRepository(api, cache, logger), store, validate, logger)
	parents := service.NewParentService(repository.NewParentRepository(api, cache, logger), store, validate, logger)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Storage:  kv,
		Sessions: store,
		Cache:    cache,
		Online:   online,
		Prober:   query.NewProber(online, base.BaseURL(), cfg.Connectivity.ProbeInterval, cfg.Connectivity.ProbeTimeout, logger.Named("online")),
		Metrics:  metrics,
		Auth:     service.NewAuthService(store, auth, validate, logger),
		Teachers: teachers,
		Students: students,
		Parents:  parents,
		Exports:  service.NewExportService(teachers, students, parents, logger, export.NewCSVExporter(cfg.Export), nil),
		CacheOps: service.NewCacheService(cache, logger),
	}, nil
}

// Start runs the cache workers and the connectivity probe until ctx ends.
func (a *App) Start(ctx context.Context) {
	a.Cache.Start(ctx)
	go a.Prober.Run(ctx)
}

// Close flushes the cache snapshot and releases storage.
func (a *App) Close() error {
	if a.Sessions.Current().Authenticated() {
		if err := a.Cache.Persist(context.Background()); err != nil {
			a.Logger.Warn("failed to persist cache on shutdown", zap.Error(err))
		}
	}
	a.Cache.Close()
	return a.Storage.Close()
}

type cacheClearer interface {
	Clear(ctx context.Context) error
}

// cacheOwner is the identity cached data was fetched for. The zero value is
// the signed-out state.
type cacheOwner struct {
	id           models.Ref
	email        string
	organization models.Ref
}

func ownerOf(sess models.Session) cacheOwner {
	if !sess.Authenticated() {
		return cacheOwner{}
	}
	return cacheOwner{
		id:           sess.User.ID,
		email:        strings.ToLower(strings.TrimSpace(sess.User.Email)),
		organization: sess.User.Organization,
	}
}

// clearOnOwnerChange returns a session listener that drops the cache, and its
// persisted snapshot, whenever the session stops belonging to the identity
// the cache was filled for: on sign-out and when another user signs in.
func clearOnOwnerChange(cache cacheClearer, current models.Session, logger *zap.Logger) func(models.Session) {
	var mu sync.Mutex
	owner := ownerOf(current)
	return func(sess models.Session) {
		next := ownerOf(sess)
		mu.Lock()
		changed := next != owner
		owner = next
		mu.Unlock()
		if !changed {
			return
		}
		if err := cache.Clear(context.Background()); err != nil {
			logger.Warn("failed to clear cache after session change", zap.Error(err))
			return
		}
		logger.Debug("query cache cleared", zap.Bool("signed_in", next != cacheOwner{}))
	}
}
