package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/handler"
	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/vivah-booking-api/shared/auth"
	"github.com/vasapolrittideah/vivah-booking-api/shared/catalog"
	"github.com/vasapolrittideah/vivah-booking-api/shared/discovery"
	"github.com/vasapolrittideah/vivah-booking-api/shared/logger"
	"github.com/vasapolrittideah/vivah-booking-api/shared/mailer"
	"github.com/vasapolrittideah/vivah-booking-api/shared/pricing"
	"github.com/vasapolrittideah/vivah-booking-api/shared/security"
	"github.com/vasapolrittideah/vivah-booking-api/shared/utilities"
)

func main() {
	cfg, err := config.NewAuthServiceConfig()
	if err != nil {
		logger.New("info", false).Fatal().Err(err).Msg("failed to load auth service configuration")
	}

	log := logger.New(cfg.LogLevel, cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := newBackend(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open record store")
	}
	defer closeBackend()

	mailCfg, err := mailer.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load mailer configuration")
	}
	var sender mailer.Sender
	if mailCfg.Enabled() {
		m, err := mailer.NewMailer(mailCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to validate mailer configuration")
		}
		sender = m
	}

	validator, err := payload.NewValidator()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build request validator")
	}

	sessionRepo := repository.NewSessionRepository(backend, log)
	userRepo := repository.NewUserRepository(backend, log)

	authUsecase := usecase.NewAuthUsecase(
		sessionRepo,
		userRepo,
		auth.NewJWTAuthenticator(cfg.Token.Audience, cfg.Token.Issuer),
		security.NewPasswordHasher(security.HashConfig{
			TimeCost:    cfg.Password.TimeCost,
			MemoryCost:  cfg.Password.MemoryCost,
			Parallelism: cfg.Password.Parallelism,
		}),
		cfg.Token,
	)

	cat := catalog.Default()
	paymentUsecase := usecase.NewPaymentUsecase(cat, pricing.DefaultConfig(), cfg.Payment.Delay, sender, log)

	router := handler.NewRouter(handler.RouterParams{
		Logger:         log,
		Development:    cfg.IsDevelopment(),
		CORSOrigins:    cfg.CORSOrigins,
		AuthUsecase:    authUsecase,
		PaymentUsecase: paymentUsecase,
		Catalog:        cat,
		Validator:      validator,
		RateLimit:      cfg.RateLimit,
	})

	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.Port).Str("env", cfg.Environment).Msg("auth service listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		usecase.RunSessionSweeper(gctx, authUsecase, cfg.SessionSweepInterval, log)
		return nil
	})

	if cfg.Discovery.GRPCHealthAddr != "" {
		grpcServer := grpc.NewServer()
		healthServer := utilities.RegisterHealthServer(grpcServer, cfg.Discovery.ServiceName)

		lis, err := net.Listen("tcp", cfg.Discovery.GRPCHealthAddr)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Discovery.GRPCHealthAddr).Msg("failed to listen for grpc health")
		}

		g.Go(func() error {
			log.Info().Str("addr", cfg.Discovery.GRPCHealthAddr).Msg("grpc health server listening")
			return grpcServer.Serve(lis)
		})
		g.Go(func() error {
			<-gctx.Done()
			healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
			grpcServer.GracefulStop()
			return nil
		})
	}

	if cfg.Discovery.ConsulAddr != "" {
		registrar, err := discovery.NewServiceRegistrar(discovery.ServiceConfig{
			ConsulAddr: cfg.Discovery.ConsulAddr,
			Name:       cfg.Discovery.ServiceName,
			Address:    cfg.Discovery.ServiceAddress,
			Port:       cfg.Port,
			Tags:       []string{"http", cfg.Environment},
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create consul registrar")
		}
		if err := registrar.Register(); err != nil {
			log.Error().Err(err).Msg("failed to register with consul")
		} else {
			defer func() {
				if err := registrar.Deregister(); err != nil {
					log.Error().Err(err).Msg("failed to deregister from consul")
				}
			}()
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		log.Info().Msg("shutting down auth service")
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("auth service stopped with error")
	}
}

// newBackend opens the configured Record Store backend and returns its cleanup.
func newBackend(ctx context.Context, cfg *config.AuthServiceConfig) (repository.Backend, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, db, err := repository.ConnectMongo(connectCtx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}

		return repository.NewMongoBackend(db), func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}, nil
	default:
		backend, err := repository.NewFileBackend(cfg.Store.DataDir)
		if err != nil {
			return nil, nil, err
		}

		return backend, func() {}, nil
	}
}
