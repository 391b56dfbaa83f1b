package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ksalling/tradefly/internal/config"
	cronrunner "github.com/ksalling/tradefly/internal/cron"
	"github.com/ksalling/tradefly/internal/db"
	"github.com/ksalling/tradefly/internal/dispatch"
	"github.com/ksalling/tradefly/internal/extract"
	"github.com/ksalling/tradefly/internal/handler"
	"github.com/ksalling/tradefly/internal/logger"
	"github.com/ksalling/tradefly/internal/order"
	"github.com/ksalling/tradefly/internal/pipeline"
	gormrepository "github.com/ksalling/tradefly/internal/repository/gorm"
	"github.com/ksalling/tradefly/internal/service"
)

func main() {
	cfgPath := os.Getenv("TF_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("TF_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Dispatch.Brokers,
	})
	if err != nil {
		logger.Fatal("kafka producer init failed", zap.Error(err))
	}
	defer producer.Close()

	router := &dispatch.Router{
		Producer:    producer,
		TopicPrefix: cfg.Dispatch.TopicPrefix,
		DeliveryTTL: cfg.Dispatch.DeliveryTTL,
		Logger:      logger,
	}

	sizer := buildSizer(cfg.Sizing, logger)
	registry := order.NewRegistry(
		order.BitunixBuilder{Sizer: sizer},
	)
	logger.Info("order builders registered", zap.Strings("exchanges", registry.Exchanges()))

	pipe := &pipeline.Pipeline{
		Repo:            store,
		Registry:        registry,
		Router:          router,
		Logger:          logger,
		StoreTimeout:    cfg.Pipeline.StoreTimeout,
		DispatchTimeout: cfg.Pipeline.DispatchTimeout,
	}

	var extractor service.Extractor
	if cfg.Extract.BaseURL != "" {
		extractHTTP := &http.Client{Timeout: cfg.Extract.Timeout}
		extractor = extract.NewClient(extractHTTP, cfg.Extract.BaseURL)
	} else {
		logger.Warn("extract service not configured; relay messages will be stored only")
	}

	intake := &service.RelayIntakeService{
		Repo:      store,
		Extractor: extractor,
		Pipeline:  pipe,
		Channels:  cfg.Extract.Channels,
		Logger:    logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	handler.RegisterDocs(engine)

	webhookHandler := &handler.WebhookHandler{Pipeline: pipe, Logger: logger}
	webhookHandler.Register(engine, handler.SourceAllowlist(cfg.Webhook.AllowedSources, logger))

	relayHandler := &handler.RelayHandler{Intake: intake, Logger: logger}
	relayHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		retention := &service.RelayRetentionService{
			Repo:   store,
			Logger: logger,
			MaxAge: cfg.Cron.RelayMaxAge,
		}
		_, err := cronRunner.Add(cfg.Cron.RelayRetention, func(ctx context.Context) {
			if err := retention.Sweep(ctx); err != nil {
				logger.Warn("relay retention sweep failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register relay retention failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	// Drain any produce callbacks still in flight before closing.
	producer.Flush(int((5 * time.Second).Milliseconds()))
}

func buildSizer(cfg config.SizingConfig, logger *zap.Logger) order.QuantitySizer {
	if strings.EqualFold(cfg.Mode, "percent") {
		balance, err := decimal.NewFromString(cfg.Balance)
		if err != nil || balance.IsZero() {
			logger.Warn("invalid sizing balance; opening orders stay unsized",
				zap.String("balance", cfg.Balance),
			)
			return order.UnsizedQuantity{}
		}
		return order.PercentOfBalanceSizer{Balance: balance}
	}
	return order.UnsizedQuantity{}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
