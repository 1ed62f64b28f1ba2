// cmd/reconciliation/main.go
package main

import (
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"reconciliation-service/internal/api/handlers"
	"reconciliation-service/internal/api/responses"
	"reconciliation-service/internal/config"
	"reconciliation-service/internal/core/reconciler"
	"reconciliation-service/internal/session"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Falha ao carregar configuração: ", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatal("Falha ao iniciar o logger: ", err)
	}
	defer logger.Sync()

	responses.InitLogger(logger)
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	store := session.NewStore(cfg.MaxSessions, cfg.SessionTTL)
	reconcilerService := reconciler.NewService(logger)
	metrics := handlers.NewMetrics(prometheus.DefaultRegisterer)
	reconciliationHandler := handlers.NewReconciliationHandler(reconcilerService, store, logger, metrics, handlers.Options{
		SettlementPath: cfg.SettlementPath(),
		MerchantPath:   cfg.MerchantPath(),
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	defaults, files := reconciliationHandler.LoadRepository()
	store.SetDefaults(defaults)
	for _, f := range files {
		logger.Info("base padrão",
			zap.String("dataset", f.Dataset),
			zap.String("path", f.Filename),
			zap.Int("rows", f.Rows),
			zap.Int("issues", f.Issues),
			zap.String("error", f.Error),
		)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = cfg.MaxUploadBytes

	apiV1 := router.Group("/api/v1")
	reconciliationHandler.RegisterRoutes(apiV1)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP", "service": "reconciliation-service", "sessions": store.Len()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	port := strconv.Itoa(cfg.Port)
	logger.Info("Reconciliation Service (Go) iniciado", zap.String("port", port), zap.String("source", string(defaults.Source)))
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("Falha ao iniciar o servidor de conciliação", zap.Error(err))
	}
}
