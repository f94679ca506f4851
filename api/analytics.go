package api

import (
	"context"
	"errors"
	"net"

	"github.com/sqlc-dev/pqtype"
	"go.uber.org/zap"

	"github.com/saeidalz13/battleship-arena/db/sqlc"
)

// Analytics is notified of session level milestones. Failures are logged
// and never affect the game.
type Analytics interface {
	SessionCreated(ctx context.Context)
	GameFinished(ctx context.Context)
}

type NoopAnalytics struct{}

func (NoopAnalytics) SessionCreated(context.Context) {}
func (NoopAnalytics) GameFinished(context.Context)   {}

// DbAnalytics bumps the per-server counters in postgres.
type DbAnalytics struct {
	manager  *sqlc.AnalyticsManager
	serverIp pqtype.Inet
	logger   *zap.Logger
}

var (
	_ Analytics = NoopAnalytics{}
	_ Analytics = (*DbAnalytics)(nil)
)

func NewDbAnalytics(manager *sqlc.AnalyticsManager, serverIpNet net.IPNet, logger *zap.Logger) *DbAnalytics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DbAnalytics{
		manager:  manager,
		serverIp: pqtype.Inet{IPNet: serverIpNet, Valid: true},
		logger:   logger,
	}
}

func (a *DbAnalytics) SessionCreated(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, sqlc.QuerierCtxTimeout)
	defer cancel()
	if err := a.manager.IncrementSessionsCreatedCount(ctx, a.serverIp); err != nil {
		a.logger.Warn("analytics: sessions created", zap.Error(err))
	}
}

func (a *DbAnalytics) GameFinished(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, sqlc.QuerierCtxTimeout)
	defer cancel()
	if err := a.manager.IncrementGamesFinishedCount(ctx, a.serverIp); err != nil {
		a.logger.Warn("analytics: games finished", zap.Error(err))
	}
}

// ServerIpNet returns the first non-loopback IPv4 address of an interface
// that is up. It is the key of the analytics rows.
func ServerIpNet() (net.IPNet, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return net.IPNet{}, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			return net.IPNet{}, err
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}

			if ip4 := ip.To4(); ip4 != nil && !ip4.IsLoopback() {
				return net.IPNet{IP: ip4, Mask: net.CIDRMask(32, 32)}, nil
			}
		}
	}

	return net.IPNet{}, errors.New("no non-loopback ipv4 address found")
}
