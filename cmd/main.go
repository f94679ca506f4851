package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/saeidalz13/battleship-arena/api"
	"github.com/saeidalz13/battleship-arena/db"
	"github.com/saeidalz13/battleship-arena/db/sqlc"
	"github.com/saeidalz13/battleship-arena/internal/config"
	"github.com/saeidalz13/battleship-arena/internal/observability"
	"github.com/saeidalz13/battleship-arena/internal/server"
	"github.com/saeidalz13/battleship-arena/models/session"
)

const shutdownTimeout = time.Second * 10

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Stage, cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	var (
		analytics api.Analytics = api.NoopAnalytics{}
		dbManager *sqlc.DbManager
	)
	if cfg.AnalyticsEnabled() {
		dbManager = sqlc.NewDbManager(db.MustConnectToDb(cfg.DatabaseURL, cfg.MigrationDir, logger))
		analytics = api.NewDbAnalytics(dbManager.Analytics, serverIpNet(logger), logger)
	}

	registry := session.NewRegistry(
		session.WithSubscriberBuffer(cfg.SubscriberBuffer),
		session.WithMaxBoard(cfg.MaxBoardHeight, cfg.MaxBoardWidth),
		session.WithLogger(logger.Named("session")),
	)

	srv, err := api.NewServer(registry,
		api.WithAddr(cfg.Addr()),
		api.WithStage(cfg.Stage),
		api.WithLogger(logger.Named("api")),
		api.WithAnalytics(analytics),
		api.WithDefaultBoard(cfg.BoardHeight, cfg.BoardWidth),
	)
	if err != nil {
		logger.Fatal("creating server", zap.Error(err))
	}

	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	cleanupDone := make(chan struct{})

	lc := server.NewLifecycle(logger, shutdownTimeout)
	lc.Add("http", srv)
	lc.Add("session-cleanup", &server.FuncService{
		StartFn: func() error {
			defer close(cleanupDone)
			registry.CleanupPeriodically(cleanupCtx, cfg.CleanupInterval, cfg.SessionTTL)
			return nil
		},
		StopFn: func(ctx context.Context) error {
			stopCleanup()
			select {
			case <-cleanupDone:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})

	runErr := lc.Run(context.Background())
	if dbManager != nil {
		_ = dbManager.Close()
	}
	if runErr != nil {
		logger.Error("exiting", zap.Error(runErr))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// serverIpNet falls back to loopback so analytics still has a row key on
// hosts without a routable interface.
func serverIpNet(logger *zap.Logger) net.IPNet {
	ipNet, err := api.ServerIpNet()
	if err != nil {
		logger.Warn("server ip not found, using loopback for analytics", zap.Error(err))
		return net.IPNet{IP: net.IPv4(127, 0, 0, 1).To4(), Mask: net.CIDRMask(32, 32)}
	}
	return ipNet
}
