package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-adp-client/api/swagger"
	"github.com/noah-isme/sma-adp-client/internal/app"
	"github.com/noah-isme/sma-adp-client/internal/handler"
	"github.com/noah-isme/sma-adp-client/internal/middleware"
	"github.com/noah-isme/sma-adp-client/pkg/config"
	"github.com/noah-isme/sma-adp-client/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-adp-client/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-adp-client/pkg/middleware/requestid"
)

// @title SMA ADP Admin Console
// @version 0.2.0
// @description Console gateway over the school administration API
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to assemble console", zap.Error(err))
	}
	defer func() {
		if err := console.Close(); err != nil {
			logr.Warn("failed to close storage", zap.Error(err))
		}
	}()
	console.Start(ctx)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(console.Metrics))

	metricsHandler := handler.NewMetricsHandler(console.Metrics, console.Online)
	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	routes := handler.Routes{
		Session:  handler.NewSessionHandler(console.Auth),
		Teachers: handler.NewTeacherHandler(console.Teachers, console.Exports),
		Students: handler.NewStudentHandler(console.Students, console.Exports),
		Parents:  handler.NewParentHandler(console.Parents, console.Exports),
		Cache:    handler.NewCacheHandler(console.CacheOps),
		Metrics:  metricsHandler,
	}
	routes.Register(r.Group(cfg.APIPrefix),
		middleware.RequireSession(console.Sessions, nil),
		middleware.Audit(logr.Named("audit")),
	)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("console starting", "addr", srv.Addr, "env", cfg.Env, "api", cfg.API.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("shutdown error", zap.Error(err))
	}
}
