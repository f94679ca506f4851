// Package server runs the long-lived parts of the process and shuts them
// down in reverse order on SIGINT, SIGTERM or a failing service.
package server

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

type Service interface {
	// Start blocks until the service stops or fails.
	Start() error
	Stop(ctx context.Context) error
}

type FuncService struct {
	StartFn func() error
	StopFn  func(ctx context.Context) error
}

func (f *FuncService) Start() error { return f.StartFn() }

func (f *FuncService) Stop(ctx context.Context) error {
	if f.StopFn == nil {
		return nil
	}
	return f.StopFn(ctx)
}

type namedService struct {
	name    string
	service Service
}

type Lifecycle struct {
	logger          *zap.Logger
	services        []namedService
	shutdownTimeout time.Duration
}

func NewLifecycle(logger *zap.Logger, shutdownTimeout time.Duration) *Lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lifecycle{logger: logger, shutdownTimeout: shutdownTimeout}
}

// Add registers svc. Not safe to call once Run has started.
func (l *Lifecycle) Add(name string, svc Service) {
	l.services = append(l.services, namedService{name: name, service: svc})
}

// Run returns the error of the first service that failed, or nil when
// shutdown was triggered by a signal or ctx.
func (l *Lifecycle) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, len(l.services))
	for _, ns := range l.services {
		go func(ns namedService) {
			l.logger.Info("starting service", zap.String("service", ns.name))
			if err := ns.service.Start(); err != nil {
				errCh <- fmt.Errorf("service %s: %w", ns.name, err)
			}
		}(ns)
	}

	var runErr error
	select {
	case runErr = <-errCh:
		l.logger.Error("service failed, shutting down", zap.Error(runErr))
	case <-ctx.Done():
		l.logger.Info("shutting down", zap.Error(context.Cause(ctx)))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer cancel()

	var stopErrs []error
	for i := len(l.services) - 1; i >= 0; i-- {
		ns := l.services[i]
		if err := ns.service.Stop(shutdownCtx); err != nil {
			l.logger.Warn("service stop failed", zap.String("service", ns.name), zap.Error(err))
			stopErrs = append(stopErrs, err)
			continue
		}
		l.logger.Info("service stopped", zap.String("service", ns.name))
	}

	if runErr != nil {
		return runErr
	}
	return errors.Join(stopErrs...)
}
