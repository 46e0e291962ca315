// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"junketops-service/internal/cache"
	"junketops-service/internal/config"
	"junketops-service/internal/db"
	"junketops-service/internal/fx"
	dashboardHandler "junketops-service/internal/handlers/dashboard"
	tokenHandler "junketops-service/internal/handlers/token"
	tripHandler "junketops-service/internal/handlers/trip"
	wsHandler "junketops-service/internal/handlers/ws"
	"junketops-service/internal/metrics"
	"junketops-service/internal/middleware"
	"junketops-service/internal/pkg/jwt"
	reportsvc "junketops-service/internal/service/report"
	"junketops-service/internal/source"
	"junketops-service/internal/upstream"
	"junketops-service/internal/ws"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger

	httpServer *http.Server
	stopBg     context.CancelFunc
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopBg = cancel

	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	s.logger = logger

	// ----- Conversion rates -----
	rates, err := fx.Load(s.cfg.RatesPath, s.cfg.GlobalCurrency, logger)
	if err != nil {
		return fmt.Errorf("failed to load conversion rates: %w", err)
	}

	// ----- Cache -----
	store, err := buildCacheStore(s.cfg)
	if err != nil {
		return err
	}

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Upstream clients -----
	// Order matters: the resolver walks these as fallbacks, primary first.
	clients := []*upstream.Client{
		upstream.NewClient(s.cfg.UpstreamBaseURL, s.cfg.UpstreamToken, s.cfg.UpstreamTimeout, logger),
	}
	if s.cfg.UpstreamAltURL != "" {
		clients = append(clients, upstream.NewClient(s.cfg.UpstreamAltURL, s.cfg.UpstreamToken, s.cfg.UpstreamTimeout, logger))
	}

	// ----- WebSocket Hub -----
	hub := ws.NewHub(jwtManager.Verifier, logger)
	go hub.Run(ctx)

	// ----- Services -----
	resolver := source.NewResolver(logger)
	calculator := metrics.NewCalculator(rates, logger)
	reportService := reportsvc.NewReportService(clients, resolver, calculator, store, s.cfg.CacheTTL, hub, logger)
	go reportService.Run(ctx, s.cfg.RefreshInterval)

	// ----- Handlers -----
	dashboardHandlerInst := dashboardHandler.NewDashboardHandler(reportService, logger)
	tripHandlerInst := tripHandler.NewTripHandler(reportService, logger)
	wsHandlerInst := wsHandler.NewWebSocketHandler(hub, s.cfg.CORSOrigins, logger)

	var tokenHandlerInst *tokenHandler.TokenHandler
	if s.cfg.EnableDevTokens {
		if jwtManager.Generator == nil {
			return fmt.Errorf("dev tokens enabled but JWT_PRIVATE_KEY_PATH is not set")
		}
		tokenHandlerInst = tokenHandler.NewTokenHandler(jwtManager.Generator, logger)
		logger.Warn("dev token endpoint is enabled; never run this in production")
	}

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(jwtManager.Verifier)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(s.cfg.CORSOrigins),
		middleware.RateLimitMiddleware(s.cfg.RateLimitEvery, s.cfg.RateLimitBurst, logger),
	)

	// ----- Router -----
	handlers := &Handlers{
		DashboardHandler: dashboardHandlerInst,
		TripHandler:      tripHandlerInst,
		TokenHandler:     tokenHandlerInst,
		WSHandler:        wsHandlerInst,
		AuthMiddleware:   authMiddleware,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	s.httpServer = &http.Server{Addr: s.cfg.HTTPAddr, Handler: s.engine}
	log.Printf("🚀 Server running on %s", s.cfg.HTTPAddr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP listener and cancels the background refresh loop
// and the WebSocket hub.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stopBg != nil {
		s.stopBg()
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func buildCacheStore(cfg config.AppConfig) (cache.Store, error) {
	switch cfg.CacheBackend {
	case "redis":
		redisCfg := db.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       0,
			PoolSize: 10,
		}
		client, err := db.NewRedisClient(redisCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Println("[REDIS] ✅ Connected successfully")
		return cache.NewRedisStore(client), nil
	case "none":
		return cache.Noop{}, nil
	default:
		return cache.NewMemoryStore(cfg.CacheTTL), nil
	}
}
