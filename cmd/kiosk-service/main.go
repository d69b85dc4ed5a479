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
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/MikeMC777/kiosko-snacks/internal/audit"
	"github.com/MikeMC777/kiosko-snacks/internal/cache"
	"github.com/MikeMC777/kiosko-snacks/internal/cart"
	"github.com/MikeMC777/kiosko-snacks/internal/catalog"
	"github.com/MikeMC777/kiosko-snacks/internal/config"
	"github.com/MikeMC777/kiosko-snacks/internal/httpx"
	"github.com/MikeMC777/kiosko-snacks/internal/inventory"
	"github.com/MikeMC777/kiosko-snacks/internal/kiosk"
	"github.com/MikeMC777/kiosko-snacks/internal/logger"
	ord "github.com/MikeMC777/kiosko-snacks/internal/order"
)

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

	sink := audit.Open(audit.KafkaConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaAuditTopic,
		ClientID: cfg.KafkaClientID + "-kiosk",
		Retries:  cfg.KafkaRetries,
	}, log)
	if c, ok := sink.(io.Closer); ok {
		defer c.Close()
	}

	store := cache.New(cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}, log)
	carts := cart.NewManager(cart.NewCacheStore(store, cfg.CartTTL), log)
	defer carts.Close()

	inv := inventory.NewClient(cfg.ProductSvcBaseURL, cfg.AdminKey)
	refresher := catalog.NewRefresher(catalog.NewFeed(inv, store, log), cfg.CatalogRefresh, log,
		func(st catalog.State) { carts.ReconcileAll(st.Refs(log)) })

	tracker := kiosk.NewTracker()
	conn, err := grpc.NewClient(cfg.StatusSvcTarget, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal("status service client", zap.Error(err))
	}
	defer conn.Close()
	watcher := kiosk.NewWatcher(conn, tracker, log)
	poller := kiosk.NewOverridePoller(cfg.StatusSvcBaseURL, tracker, log)

	repo := ord.NewPGRepo(pool)
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	httpx.CheckAdminKey(cfg.AdminKeyHash, log)
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(log))
	routes(r, deps{
		carts:   carts,
		catalog: refresher,
		status:  tracker,
		orders:  repo,
		svc:     ord.NewService(repo, inv, sink, log),
		log:     log,
	}, cfg.AdminKeyHash)

	srv := &http.Server{Addr: cfg.KioskSvcAddr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return refresher.Run(gctx) })
	g.Go(func() error { return watcher.Run(gctx) })
	g.Go(func() error { return poller.Run(gctx, cfg.OverridesPoll) })
	g.Go(func() error { return carts.RunEviction(gctx, cfg.CartTTL) })
	g.Go(func() error {
		log.Info("kiosk-service listening", zap.String("addr", cfg.KioskSvcAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("kiosk-service stopped", zap.Error(err))
	}
}
