// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"retention-service/internal/cache"
	"retention-service/internal/config"
	"retention-service/internal/db"
	"retention-service/internal/domain/agency"
	agencyHandler "retention-service/internal/handlers/agency"
	cacheHandler "retention-service/internal/handlers/cache"
	customerHandler "retention-service/internal/handlers/customer"
	historyHandler "retention-service/internal/handlers/history"
	viewHandler "retention-service/internal/handlers/view"
	wsHandler "retention-service/internal/handlers/websocket"
	"retention-service/internal/middleware"
	"retention-service/internal/observability"
	bqrepo "retention-service/internal/repository/bigquery"
	"retention-service/internal/repository/memory"
	"retention-service/internal/repository/postgres"
	redisrepo "retention-service/internal/repository/redis"
	"retention-service/internal/repository/spreadsheet"
	customersvc "retention-service/internal/service/customer"
	"retention-service/internal/service/export"
	historysvc "retention-service/internal/service/history"
	viewsvc "retention-service/internal/service/view"
	"retention-service/internal/websocket"
	wsHandlers "retention-service/internal/websocket/handler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

type Server struct {
	cfg        config.AppConfig
	engine     *gin.Engine
	httpServer *http.Server
	logger     *zap.Logger

	cancel  context.CancelFunc
	closers []func()
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{cfg: cfg, engine: gin.New(), logger: logger}
}

func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	logger := s.logger

	// ----- Metrics -----
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	agencies := agency.NewRegistry(s.cfg.Agencies)

	// ----- Redis (optional) -----
	var rowCache cache.RowCache
	var viewRepo viewsvc.Repository = memory.NewViewRepository(s.cfg.MaxViews, s.cfg.ViewTTL)
	if len(s.cfg.RedisAddrs) > 0 {
		redisClient, err := db.NewRedisClient(ctx, db.RedisConfig{
			ClusterMode: s.cfg.RedisCluster,
			Addresses:   s.cfg.RedisAddrs,
			Password:    s.cfg.RedisPass,
			DB:          0,
			PoolSize:    10,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		s.closers = append(s.closers, func() { redisClient.Close() })
		rowCache = redisrepo.NewRowsCache(redisClient)
		viewRepo = redisrepo.NewViewRepository(redisClient, s.cfg.ViewTTL)
		logger.Info("redis connected", zap.Strings("addrs", s.cfg.RedisAddrs))
	} else {
		logger.Info("REDIS_ADDR not set, views kept in memory")
	}

	// ----- PostgreSQL (optional) -----
	var historyRepo historysvc.Repository = memory.NewSearchHistoryRepository()
	if s.cfg.DatabaseURL != "" {
		pool, err := db.ConnectDB(ctx, db.PostgresConfig{URL: s.cfg.DatabaseURL, MaxConns: s.cfg.DBMaxConns})
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		pgHistory := postgres.NewSearchHistoryRepository(postgres.NewDB(pool), s.cfg.HistoryTable)
		if err := pgHistory.EnsureSchema(ctx); err != nil {
			return err
		}
		historyRepo = pgHistory
		logger.Info("postgres connected, search history persisted")
	} else {
		logger.Info("DATABASE_URL not set, search history kept in memory")
	}

	// ----- Record sources -----
	opener := &spreadsheet.FileOpener{BaseDir: s.cfg.DataDir}
	if usesGCS(s.cfg.Agencies) {
		gcs, err := spreadsheet.NewGCSClient(ctx, s.cfg.CredentialsFile)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, func() { gcs.Close() })
		opener.GCS = gcs
	}
	bq := bqrepo.NewSource(s.cfg.CredentialsFile, logger)
	s.closers = append(s.closers, func() { bq.Close() })

	sources := customersvc.Router{
		agency.SourceSpreadsheet: spreadsheet.NewSource(opener, logger),
		agency.SourceBigQuery:    bq,
	}

	// ----- Agency cache -----
	agencyCache := cache.NewAgencyCache(agencies, sources, cache.Options{
		TTL:     s.cfg.CacheTTL,
		Shared:  rowCache,
		Metrics: metrics,
	}, logger)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(metrics, logger)

	// ----- Services -----
	customerService := customersvc.NewCustomerService(agencyCache, metrics, logger)
	historyService := historysvc.NewHistoryService(historyRepo, agencies, logger)
	viewService := viewsvc.NewViewService(viewRepo, customerService, s.cfg.PageSize, metrics, logger)
	exportService := export.NewExportService(logger)

	if err := hub.RegisterHandler(wsHandlers.NewViewHandler(viewService, hub, logger)); err != nil {
		return err
	}
	go hub.Run(ctx)

	// ----- Handlers -----
	handlers := &Handlers{
		AgencyHandler:   agencyHandler.NewAgencyHandler(agencies),
		CacheHandler:    cacheHandler.NewCacheHandler(agencyCache, logger),
		CustomerHandler: customerHandler.NewCustomerHandler(customerService, exportService, logger),
		HistoryHandler:  historyHandler.NewHistoryHandler(historyService),
		ViewHandler:     viewHandler.NewViewHandler(viewService, exportService, hub, logger),
		WSHandler:       wsHandler.NewWebSocketHandler(hub, viewService, s.cfg.SearchDebounce, logger),
		Registry:        registry,
	}

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RequestIDMiddleware(),
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.MetricsMiddleware(metrics),
		middleware.CORSMiddleware(s.cfg.CORSOrigins...),
	)
	SetupRouter(s.engine, logger, handlers)

	if s.cfg.PreloadOnStart {
		go func() {
			results, err := agencyCache.Preload(ctx)
			if err != nil {
				logger.Error("startup preload failed", zap.Error(err))
				return
			}
			for _, r := range results {
				if r.Error != "" {
					logger.Warn("startup preload agency failed", zap.String("agency", r.Agency), zap.String("error", r.Error))
				}
			}
		}()
	}

	// ----- Start HTTP -----
	s.httpServer = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr), zap.Int("agencies", len(agencies.Names())))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, closes live sockets and releases the
// backing clients.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	if s.cancel != nil {
		s.cancel()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	return err
}

func usesGCS(agencies []agency.Agency) bool {
	for _, a := range agencies {
		if a.Source == agency.SourceSpreadsheet && strings.HasPrefix(a.File, "gs://") {
			return true
		}
	}
	return false
}
