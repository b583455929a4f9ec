package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/ff-sbt/internal/adapter"
	"github.com/feral-file/ff-sbt/internal/api/middleware"
	"github.com/feral-file/ff-sbt/internal/api/server"
	"github.com/feral-file/ff-sbt/internal/api/shared/executor"
	"github.com/feral-file/ff-sbt/internal/bridge"
	"github.com/feral-file/ff-sbt/internal/collection"
	"github.com/feral-file/ff-sbt/internal/config"
	"github.com/feral-file/ff-sbt/internal/content"
	"github.com/feral-file/ff-sbt/internal/domain"
	"github.com/feral-file/ff-sbt/internal/logger"
	"github.com/feral-file/ff-sbt/internal/messaging"
	"github.com/feral-file/ff-sbt/internal/network"
	natsprovider "github.com/feral-file/ff-sbt/internal/providers/jetstream"
	"github.com/feral-file/ff-sbt/internal/sbt"
	"github.com/feral-file/ff-sbt/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	config.ChdirRepoRoot()
	cfg, err := config.LoadNodeConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		Service:         "sbt-node",
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting SBT node")

	dataStore := openStore(ctx, cfg)

	reserve, err := cfg.Chain.Reserve()
	if err != nil {
		logger.FatalCtx(ctx, "Invalid storage reserve", zap.Error(err))
	}
	items := sbt.NewHandler(reserve)

	net := network.New(network.Config{
		WorkerPoolSize: cfg.Worker.WorkerPoolSize,
		MaxWaves:       cfg.Worker.MaxWaves,
	}, adapter.NewClock())
	defer net.Close()

	col, err := installCollection(ctx, cfg, net, dataStore, items)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to install collection", zap.Error(err))
	}

	errCh := make(chan error, 2)
	var bridgeSvc bridge.Bridge
	if cfg.NATS.URL != "" {
		natsJS := adapter.NewNatsJetStream()

		publisher, err := natsprovider.NewPublisher(natsprovider.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			SubjectPrefix:  cfg.NATS.EventsSubject,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
			PublishTimeout: cfg.NATS.PublishTimeout,
		}, natsJS)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create event publisher", zap.Error(err))
		}
		defer publisher.Close()
		net.Observe(messaging.NewForwarder(publisher))

		bridgeSvc, err = bridge.NewBridge(bridge.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			ConsumerName:   cfg.NATS.ConsumerName,
			Subject:        cfg.NATS.InboundSubject,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
			AckWaitTimeout: cfg.NATS.AckWait,
			MaxDeliver:     cfg.NATS.MaxDeliver,
			WorkerPoolSize: cfg.Worker.WorkerPoolSize,
		}, natsJS, net)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create inbound bridge", zap.Error(err))
		}
		defer bridgeSvc.Close()

		go func() {
			if err := bridgeSvc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("bridge: %w", err)
			}
		}()
		logger.InfoCtx(ctx, "NATS surfaces enabled",
			zap.String("url", cfg.NATS.URL),
			zap.String("stream", cfg.NATS.StreamName),
		)
	} else {
		logger.WarnCtx(ctx, "NATS URL not configured, events and inbound envelopes are disabled")
	}

	auth, err := middleware.NewAuthenticator(middleware.AuthConfig{
		JWTPublicKey: cfg.Auth.JWTPublicKey,
		APIKeys:      cfg.Auth.APIKeys,
	})
	if err != nil {
		logger.FatalCtx(ctx, "Invalid auth configuration", zap.Error(err))
	}

	srv := server.New(server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,

		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	}, executor.NewExecutor(dataStore, col, net), auth)

	go func() {
		if err := srv.Start(); err != nil {
			errCh <- fmt.Errorf("server: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err)
	}
	cancel()

	// Shutdown context must not derive from the canceled ctx
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}

	logger.Info("SBT node stopped")
}

// openStore connects to PostgreSQL, or falls back to memory when no host is configured
func openStore(ctx context.Context, cfg *config.NodeConfig) store.Store {
	if cfg.Database.Host == "" {
		logger.WarnCtx(ctx, "Database host not configured, using in-memory store")
		return store.NewMemoryStore()
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)
	return store.NewPGStore(db)
}

// installCollection restores the configured collection from the store, or deploys it on first start
func installCollection(ctx context.Context, cfg *config.NodeConfig, net *network.Network, st store.Store, items *sbt.Handler) (*collection.Contract, error) {
	address, owner, err := cfg.Collection.Addresses()
	if err != nil {
		return nil, err
	}

	existing, err := st.GetCollection(ctx, address)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		col, err := collection.Restore(ctx, net, st, items, address)
		if err != nil {
			return nil, err
		}
		logger.InfoCtx(ctx, "Restored collection",
			zap.String("address", address.String()),
			zap.Uint64("next_item_index", existing.NextItemIndex),
		)
		return col, nil
	}

	balance, err := cfg.Collection.InitialBalance()
	if err != nil {
		return nil, err
	}
	col, err := collection.Deploy(ctx, net, st, items, &domain.Collection{
		Address:       address,
		Owner:         owner,
		Content:       content.EncodeOffChain(cfg.Collection.Content),
		CommonContent: content.Encode([]byte(cfg.Collection.CommonContent)),
	}, balance)
	if err != nil {
		return nil, err
	}
	logger.InfoCtx(ctx, "Deployed collection",
		zap.String("address", address.String()),
		zap.String("owner", owner.String()),
		zap.String("balance", balance.String()),
	)
	return col, nil
}
