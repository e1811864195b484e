package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ogurasousui/grpc-hr-clean-arch/internal/adapters/cache"
	"github.com/ogurasousui/grpc-hr-clean-arch/internal/adapters/repository/postgres"
	"github.com/ogurasousui/grpc-hr-clean-arch/internal/core/employee"
	"github.com/ogurasousui/grpc-hr-clean-arch/internal/platform/config"
	pg "github.com/ogurasousui/grpc-hr-clean-arch/internal/platform/db/postgres"
	"github.com/ogurasousui/grpc-hr-clean-arch/internal/platform/logging"
	"github.com/ogurasousui/grpc-hr-clean-arch/internal/platform/server"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.Path(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	dbPool, err := pg.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to initialize database pool", zap.Error(err))
	}
	defer dbPool.Close()

	var repo employee.Repository = postgres.NewEmployeeRepository(dbPool)
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, employee cache will fall through", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		repo = cache.NewEmployeeCache(repo, rdb, cfg.Redis.TTL, logger.Named("cache"))
		logger.Info("employee cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	isolation, err := pg.IsolationLevel(cfg.Database.Isolation)
	if err != nil {
		logger.Fatal("invalid transaction isolation", zap.Error(err))
	}
	txManager := pg.NewTransactionManager(dbPool,
		pg.WithIsolation(isolation),
		pg.WithLogger(logger.Named("tx")),
	)
	employeeSvc := employee.NewService(repo, nil, txManager, logger.Named("employee"))
	grpcServer := server.New(cfg.Server.ListenAddr, employeeSvc, logger.Named("grpc"))

	if err := grpcServer.Run(ctx); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}
