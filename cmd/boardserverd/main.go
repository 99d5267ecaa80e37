// Command boardserverd runs the LAN-local board-game coordination server
// (spec §2). Startup follows akella44-iam-service/cmd/api/main.go: load a
// .env file, load typed config, derive a signal-cancellable context, build
// the application, run it until shutdown.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/boardgo/server/internal/config"
	"github.com/boardgo/server/internal/discovery"
	"github.com/boardgo/server/internal/rules"
	"github.com/boardgo/server/internal/rules/simplecard"
	"github.com/boardgo/server/internal/server"
	"github.com/boardgo/server/internal/storage"
	"github.com/boardgo/server/internal/storage/postgresstore"
	"github.com/boardgo/server/internal/storage/redisstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build persistence backend", zap.Error(err))
	}

	pack := simplecard.New()
	if cfg.RulesSeed != nil {
		pack = pack.WithSeed(*cfg.RulesSeed)
	}

	srv := server.New(
		cfg.SessionID,
		cfg.DefaultGamePack,
		[]rules.GamePackRules{pack},
		logger,
		server.WithStore(store),
		server.WithIdempotencyCapacity(cfg.IdempotencyCapacity),
	)

	go srv.Run(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	handle, err := server.Listen(ctx, srv, addr)
	if err != nil {
		logger.Fatal("failed to bind listener", zap.String("addr", addr), zap.Error(err))
	}

	identity := discovery.NewIdentity(handle.Port())

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = handle.Shutdown(shutdownCtx)
	}()

	logger.Info("starting board game coordination server",
		zap.Stringer("addr", handle.Addr()),
		zap.Int("port", identity.Port),
		zap.String("serviceType", identity.ServiceType),
		zap.String("instanceName", identity.InstanceName),
	)
	if err := handle.Serve(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func buildStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Store, error) {
	switch cfg.PersistenceDriver {
	case config.DriverPostgres:
		return postgresstore.Connect(ctx, cfg.PostgresDSN, logger)
	case config.DriverRedis:
		return redisstore.Connect(cfg.RedisAddr, logger), nil
	default:
		return storage.NopStore{}, nil
	}
}
