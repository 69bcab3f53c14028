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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/docforensics/internal/config"
	"github.com/example/docforensics/internal/grpcserver"
	"github.com/example/docforensics/internal/handlers"
	"github.com/example/docforensics/internal/imageprocessor"
	"github.com/example/docforensics/internal/logging"
	"github.com/example/docforensics/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	extractor := imageprocessor.NewSimulatedExtractor(imageprocessor.NewRand)
	uc := usecase.NewAnalysisUseCase(extractor, logger, usecase.WithTimeout(cfg.AnalysisTimeout))

	router := handlers.NewRouter(uc, logger, handlers.Options{MaxRequestBytes: cfg.MaxRequestBytes})

	var healthServer *grpcserver.HealthServer
	if cfg.GRPCAddr != "" {
		listener, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.Fatal("failed to bind gRPC health listener", zap.Error(err), zap.String("addr", cfg.GRPCAddr))
		}
		healthServer = grpcserver.NewHealthServer(logger)
		go func() {
			if err := healthServer.Serve(listener); err != nil {
				logger.Error("gRPC health server exited", zap.Error(err))
			}
		}()
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("document forensics API listening",
		zap.String("addr", cfg.Addr()),
		zap.String("env", cfg.Environment),
	)
	err = serveHTTPServer(server, cfg.ShutdownTimeout, logger)
	if healthServer != nil {
		healthServer.Stop()
	}
	if err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

// serveHTTPServerWithOptions runs server until it fails or a shutdown signal
// arrives, then drains in-flight requests within shutdownTimeout. A nil
// listener binds server.Addr; a nil signalCh subscribes to SIGINT and SIGTERM.
func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var (
		sigCh       <-chan os.Signal
		stopSignals func()
	)

	if signalCh != nil {
		sigCh = signalCh
		stopSignals = func() {}
	} else {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sigCh = ch
		stopSignals = func() {
			signal.Stop(ch)
		}
	}
	defer stopSignals()

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
