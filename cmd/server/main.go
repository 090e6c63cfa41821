package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/rl1809/store-inventory/internal/adapter/gateway"
	"github.com/rl1809/store-inventory/internal/adapter/handler"
	"github.com/rl1809/store-inventory/internal/adapter/messaging"
	"github.com/rl1809/store-inventory/internal/adapter/storage"
	"github.com/rl1809/store-inventory/internal/config"
	"github.com/rl1809/store-inventory/internal/core/service"
	"github.com/rl1809/store-inventory/internal/logger"
	"github.com/rl1809/store-inventory/internal/observability"
	"github.com/rl1809/store-inventory/internal/port"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	appLogger, err := logger.New(logger.FromConfig(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Otel)
	if err != nil {
		appLogger.Warn("Tracing disabled", zap.Error(err))
	}

	// A nil store puts the gateway in cache-only mode.
	store, err := openDocumentStore(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Warn("Persistence unavailable, running cache-only",
			zap.String("backend", cfg.Store.Backend), zap.Error(err))
		store = nil
	}
	gw := gateway.New(store, appLogger)

	svc := service.NewInventoryService(gw, appLogger)

	var publisher *messaging.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = messaging.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicLowStock, cfg.Kafka.BufferSize, appLogger)
		svc.WithLowStockEvents(publisher, cfg.Inventory.LowStockThreshold)
		appLogger.Info("Publishing low stock events",
			zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.TopicLowStock))
	}

	loadCtx, cancelLoad := context.WithTimeout(ctx, cfg.Store.ConnectTimeout*3)
	svc.Open(loadCtx)
	cancelLoad()

	grpcServer := grpc.NewServer()
	healthHandler := handler.NewGRPCHandler(svc)
	healthHandler.Register(grpcServer)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		appLogger.Fatal("Failed to listen", zap.String("addr", cfg.Server.GRPCAddr), zap.Error(err))
	}
	go func() {
		appLogger.Info("gRPC server listening", zap.String("addr", cfg.Server.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Error("gRPC server error", zap.Error(err))
		}
	}()

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler.NewHTTPHandler(svc, appLogger, cfg.Inventory.LowStockThreshold).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		appLogger.Info("HTTP server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("HTTP shutdown", zap.Error(err))
	}
	healthHandler.Shutdown()
	grpcServer.GracefulStop()

	if publisher != nil {
		publisher.Close()
	}
	if err := svc.Close(shutdownCtx); err != nil {
		appLogger.Warn("Closing persistence", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		appLogger.Warn("Tracing shutdown", zap.Error(err))
	}
	appLogger.Info("Stopped", zap.Int64("persistence_failures", gw.Failures()))
}

// openDocumentStore connects the configured backend. It returns a nil store
// and nil error for STORE_BACKEND=none.
func openDocumentStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (port.DocumentStore, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Store.ConnectTimeout)
	defer cancel()

	switch cfg.Store.Backend {
	case config.BackendMongo:
		adapter, err := storage.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		log.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))
		return adapter, nil

	case config.BackendMySQL:
		db, err := sqlx.ConnectContext(ctx, "mysql", cfg.MySQL.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect mysql: %w", err)
		}
		db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
		db.SetConnMaxLifetime(5 * time.Minute)

		adapter := storage.NewMySQLAdapter(db)
		if err := adapter.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("Connected to MySQL")
		return adapter, nil

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		log.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		return storage.NewRedisAdapter(rdb), nil

	case config.BackendNone:
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
