package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/config"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/handler"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/usecase"
	"github.com/vasapolrittideah/marketplace-api/shared/auth"
	"github.com/vasapolrittideah/marketplace-api/shared/discovery"
	"github.com/vasapolrittideah/marketplace-api/shared/logger"
	"github.com/vasapolrittideah/marketplace-api/shared/mailer"
	"github.com/vasapolrittideah/marketplace-api/shared/utilities"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("marketplace-service", "info", false).Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.ServiceName, cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokens, err := auth.NewTokenService(cfg.Token.Secret, cfg.Token.Issuer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create token service")
	}

	m, err := mailer.NewMailer(cfg.Mailer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create mailer")
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open store")
	}
	defer st.close()

	images, err := openImageStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create image store")
	}

	accountUsecase := usecase.NewAccountUsecase(st.users, tokens, m, log, cfg)
	productUsecase := usecase.NewProductUsecase(st.products, images)
	h := handler.NewHandler(accountUsecase, productUsecase, st.pinger, images, log, cfg)

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	grpcServer := grpc.NewServer()
	healthServer := utilities.RegisterHealthServer(grpcServer, cfg.ServiceName)

	grpcListener, err := net.Listen("tcp", cfg.GRPC.HealthAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.GRPC.HealthAddr).Msg("failed to listen for gRPC health")
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("addr", cfg.GRPC.HealthAddr).Msg("gRPC health server listening")
		errCh <- grpcServer.Serve(grpcListener)
	}()
	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Str("store", cfg.Store.Driver).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var registry *discovery.Registry
	serviceID := fmt.Sprintf("%s-%s", cfg.ServiceName, cfg.HTTP.Addr)
	if cfg.Consul.Enabled {
		registry, err = register(cfg, serviceID)
		if err != nil {
			log.Error().Err(err).Msg("failed to register with consul")
			registry = nil
		}
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		log.Error().Err(err).Msg("server stopped unexpectedly")
	}

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(cfg.ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	if registry != nil {
		if err := registry.Deregister(serviceID); err != nil {
			log.Error().Err(err).Msg("failed to deregister from consul")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down HTTP server")
	}
	grpcServer.GracefulStop()

	log.Info().Msg("stopped")
}

func register(cfg *config.Config, serviceID string) (*discovery.Registry, error) {
	registry, err := discovery.NewRegistry(cfg.Consul.Addr)
	if err != nil {
		return nil, err
	}

	port, err := portOf(cfg.HTTP.Addr)
	if err != nil {
		return nil, err
	}
	healthPort, err := portOf(cfg.GRPC.HealthAddr)
	if err != nil {
		return nil, err
	}

	err = registry.Register(discovery.Registration{
		ID:         serviceID,
		Name:       cfg.ServiceName,
		Address:    cfg.Consul.ServiceHost,
		Port:       port,
		Tags:       []string{"http"},
		HealthGRPC: net.JoinHostPort(cfg.Consul.ServiceHost, strconv.Itoa(healthPort)),
	})
	if err != nil {
		return nil, err
	}

	return registry, nil
}

func portOf(addr string) (int, error) {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	return strconv.Atoi(port)
}
