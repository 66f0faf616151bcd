package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lk2023060901/property-research-backend/internal/conf"
	"github.com/lk2023060901/property-research-backend/internal/data"
	"github.com/lk2023060901/property-research-backend/internal/pkg/logger"
	"github.com/lk2023060901/property-research-backend/internal/server"
	"github.com/lk2023060901/property-research-backend/internal/websearch/biz"
	wsdata "github.com/lk2023060901/property-research-backend/internal/websearch/data"
	"github.com/lk2023060901/property-research-backend/internal/websearch/provider"
	"github.com/lk2023060901/property-research-backend/internal/websearch/service"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "config file path")
)

func main() {
	flag.Parse()

	// Load configuration
	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&config.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	logger.SetGlobal(log)
	log.Info("config loaded successfully", zap.String("path", *configFile))

	// Initialize data layer
	d, cleanup, err := data.NewData(config, log)
	if err != nil {
		log.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	// Search providers without an API key stay compile-only
	providers, err := provider.NewFactory().CreateAll(config.Search.Providers()...)
	if err != nil {
		log.Fatal("failed to create search providers", zap.Error(err))
	}

	// A nil *redis.Client must not reach the cache as a non-nil interface
	var rdb goredis.Cmdable
	if d.Redis != nil {
		rdb = d.Redis
	}

	patternRepo := wsdata.NewPatternRepo(d.DB)
	resultCache := wsdata.NewResultCache(rdb, config.Search.CacheSize, config.Search.CacheTTL)

	searchUseCase := biz.NewSearchUseCase(
		config.Search.Providers(),
		providers,
		patternRepo,
		resultCache,
		biz.Options{MaxConcurrency: config.Search.MaxConcurrency},
		log,
	)
	searchService := service.NewSearchService(searchUseCase, log,
		service.WithHeartbeatInterval(config.Search.StreamHeartbeat),
	)

	httpServer := server.NewHTTPServer(config, log, searchService, d.HealthChecks())

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	for _, info := range searchUseCase.Providers() {
		log.Info("search provider ready",
			zap.String("provider", string(info.ID)),
			zap.Bool("compilable", info.Compilable),
			zap.Bool("searchable", info.Searchable),
		)
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
