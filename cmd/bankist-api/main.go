package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bankist.app/internal/auth"
	"bankist.app/internal/bank"
	"bankist.app/internal/config"
	"bankist.app/internal/httpapi"
	"bankist.app/internal/obs"
	"bankist.app/internal/store/pg"
	"bankist.app/internal/stream"
)

var (
	version = "0.1.0"
	commit  = "unknown"
)

func main() {
	logger := obs.Logger()
	defer func() { _ = logger.Sync() }()

	obs.Init()
	obs.InitBuildInfo(version, commit)
	cfg := config.Load(logger)

	var (
		repo  bank.Repository
		probe httpapi.ReadyProbe
	)
	if cfg.PGDSN != "" {
		store, err := pg.Open(cfg.PGDSN)
		if err != nil {
			logger.Fatal("open db", zap.Error(err))
		}
		defer store.Close()
		repo = store
		probe = httpapi.ReadyProbe{Store: store}
		logger.Info("using postgres account store")
	} else {
		mem, err := bank.NewInMemory(bank.DemoAccounts()...)
		if err != nil {
			logger.Fatal("seed demo accounts", zap.Error(err))
		}
		repo = mem
		logger.Info("using in-memory account store", zap.Int("accounts", mem.Len()))
	}

	issuer, err := auth.NewIssuer(cfg.SessionSecret)
	if err != nil {
		logger.Fatal("session issuer", zap.Error(err))
	}

	svc := bank.NewService(repo, bank.WithLogger(logger.Named("bank")))
	api := httpapi.New(svc, issuer,
		httpapi.WithVersion(version),
		httpapi.WithReadiness(probe),
		httpapi.WithStream(stream.New(16)),
		httpapi.WithSessionTTL(cfg.SessionTTL),
		httpapi.WithReportErrors(cfg.ReportErrors),
		httpapi.WithRateLimit(cfg.RateBurst, cfg.RatePerSec),
		httpapi.WithLogger(logger.Named("http")),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
		// no WriteTimeout: /v1/stream holds the response open
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := httpapi.NewHealthServer(probe)
	go health.Run(ctx, 10*time.Second)
	grpcSrv := httpapi.NewGRPCServer(health)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("grpc listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}
	go func() {
		logger.Info("grpc health listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("grpc serve", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("starting bankist-api", zap.String("version", version), zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcSrv.GracefulStop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	logger.Info("stopped")
}
