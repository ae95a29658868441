package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/merlinhq/avalon-server/api/rest"
	"github.com/merlinhq/avalon-server/api/sse"
	"github.com/merlinhq/avalon-server/cache"
	"github.com/merlinhq/avalon-server/config"
	"github.com/merlinhq/avalon-server/db"
	"github.com/merlinhq/avalon-server/game/session"
	"github.com/merlinhq/avalon-server/gamelog"
	mw "github.com/merlinhq/avalon-server/middleware"
	"github.com/merlinhq/avalon-server/model"
	"github.com/merlinhq/avalon-server/scheduler"
	"github.com/merlinhq/avalon-server/store"
)

func main() {
	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.Server.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	if err := model.AutoMigrate(gormDB); err != nil {
		logger.Fatal("migrate database", zap.Error(err))
	}

	cacheCfg := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	kv, err := cache.NewCache(cacheCfg)
	if err != nil {
		logger.Fatal("init cache", zap.Error(err))
	}
	pubsub, err := cache.NewPubSub(cacheCfg)
	if err != nil {
		logger.Fatal("init pubsub", zap.Error(err))
	}

	sched := scheduler.New(logger)
	defer sched.Stop()

	journal := gamelog.New(gormDB, logger)
	defer journal.Stop()

	gateway := store.New(gormDB, logger)
	mgr := session.NewManager(gateway, sched, pubsub, cfg.Game.SaveDebounce, logger)

	if game, err := mgr.Resume(context.Background()); err != nil {
		logger.Fatal("resume game", zap.Error(err))
	} else if game != nil {
		logger.Info("resumed unfinished game",
			zap.String("game_id", game.ID),
			zap.String("status", string(game.Status)))
	}

	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		mw.TraceID(),
		mw.Logger(logger),
		mw.Recovery(logger),
		mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst),
	)

	rest.Register(r, rest.Handlers{
		Auth:    rest.NewAuthHandler(gormDB, kv, cfg.Security),
		Game:    rest.NewGameHandler(mgr, journal, logger),
		History: rest.NewHistoryHandler(gateway, mgr, journal, logger),
		Share:   rest.NewShareHandler(gateway, logger),
		Prefs:   rest.NewPrefsHandler(gormDB, logger),
		Admin:   rest.NewAdminHandler(gormDB, sched, logger),
	}, kv, cfg)

	events := sse.NewHandler(pubsub, kv, cfg.Security, logger)
	r.GET("/api/events", events.Stream)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	// Flush the active game before the scheduler dies with its pending save.
	if err := mgr.Close(ctx); err != nil {
		logger.Error("final save", zap.Error(err))
	}
}
