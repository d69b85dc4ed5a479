package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/MikeMC777/kiosko-snacks/docs"
	"github.com/MikeMC777/kiosko-snacks/internal/audit"
	"github.com/MikeMC777/kiosko-snacks/internal/config"
	"github.com/MikeMC777/kiosko-snacks/internal/httpx"
	"github.com/MikeMC777/kiosko-snacks/internal/logger"
	prod "github.com/MikeMC777/kiosko-snacks/internal/product"
)

// @title        Kiosko Product Service
// @version      1.0
// @description  Product catalog and inventory API behind the kiosk admin console.
// @BasePath     /
// @securityDefinitions.apikey AdminKey
// @in   header
// @name X-Admin-Key
func main() {
	cfg := config.Load()
	log := logger.New(cfg.Environment)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres pool", zap.Error(err))
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal("postgres ping", zap.Error(err))
	}

	sink := audit.Open(audit.KafkaConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaAuditTopic,
		ClientID: cfg.KafkaClientID + "-product",
		Retries:  cfg.KafkaRetries,
	}, log)
	if c, ok := sink.(io.Closer); ok {
		defer c.Close()
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	httpx.CheckAdminKey(cfg.AdminKeyHash, log)
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(log))
	routes(r, prod.NewPGRepo(pool), sink, log, cfg.AdminKeyHash)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{Addr: cfg.ProductSvcAddr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("product-service listening", zap.String("addr", cfg.ProductSvcAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
