package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/MikeMC777/kiosko-snacks/internal/audit"
	"github.com/MikeMC777/kiosko-snacks/internal/config"
	"github.com/MikeMC777/kiosko-snacks/internal/httpx"
	"github.com/MikeMC777/kiosko-snacks/internal/kiosk"
	"github.com/MikeMC777/kiosko-snacks/internal/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Environment)
	defer func() { _ = log.Sync() }()

	seed := kiosk.Seed{Status: kiosk.Open}
	if cfg.OverridesFile != "" {
		s, err := kiosk.LoadSeed(cfg.OverridesFile)
		if err != nil {
			log.Fatal("load seed", zap.String("file", cfg.OverridesFile), zap.Error(err))
		}
		seed = s
		log.Info("seed loaded", zap.String("status", string(s.Status)), zap.Int("overrides", len(s.Overrides)))
	}
	pub := kiosk.NewPublisher(seed.Status, seed.Overrides)

	sink := audit.Open(audit.KafkaConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaAuditTopic,
		ClientID: cfg.KafkaClientID + "-status",
		Retries:  cfg.KafkaRetries,
	}, log)
	if c, ok := sink.(io.Closer); ok {
		defer c.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", cfg.StatusSvcGRPCAddr)
	if err != nil {
		log.Fatal("grpc listen", zap.Error(err))
	}
	gs := grpc.NewServer()
	pub.Register(gs)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	httpx.CheckAdminKey(cfg.AdminKeyHash, log)
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(log))
	routes(r, pub, sink, log, cfg.AdminKeyHash)
	srv := &http.Server{Addr: cfg.StatusSvcHTTPAddr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("status-service grpc listening", zap.String("addr", cfg.StatusSvcGRPCAddr))
		return gs.Serve(lis)
	})
	g.Go(func() error {
		log.Info("status-service http listening", zap.String("addr", cfg.StatusSvcHTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// NOT_SERVING to every watcher before the streams close
		pub.Shutdown()
		gs.GracefulStop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("status-service stopped", zap.Error(err))
	}
}
