// Package server runs the HTTP API, and the gRPC health service when
// GRPC_PORT is set, until the context is cancelled.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/scholarstream/scholarstream/config"
	"github.com/scholarstream/scholarstream/internal/kernel"
	grpcserver "github.com/scholarstream/scholarstream/pkg/grpc"
	"github.com/scholarstream/scholarstream/pkg/logger"
)

// New returns the HTTP server for k on addr.
func New(addr string, k *kernel.Kernel) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           k.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
}

// Run serves k until ctx is done, then shuts down gracefully within
// config.ShutdownPeriod and releases the kernel.
func Run(ctx context.Context, k *kernel.Kernel) error {
	srv := New(net.JoinHostPort("", config.AppPort()), k)

	if port := config.GRPCPort(); port != "" {
		g, err := grpcserver.Start(port, k.Ping)
		if err != nil {
			return err
		}
		defer grpcserver.Stop(g)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownPeriod())
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	return errors.Join(err, k.Shutdown(shutdownCtx))
}
