package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	httpctx "github.com/dtroode/shopwise-auth/internal/api/http/context"
	"github.com/dtroode/shopwise-auth/internal/api/http/router"
	httpServer "github.com/dtroode/shopwise-auth/internal/api/http/server"
	"github.com/dtroode/shopwise-auth/internal/config"
	"github.com/dtroode/shopwise-auth/internal/logger"
	"github.com/dtroode/shopwise-auth/internal/model"
	"github.com/dtroode/shopwise-auth/internal/notification"
	"github.com/dtroode/shopwise-auth/internal/password"
	"github.com/dtroode/shopwise-auth/internal/repository/postgres"
	"github.com/dtroode/shopwise-auth/internal/server"
	"github.com/dtroode/shopwise-auth/internal/service"
	"github.com/dtroode/shopwise-auth/internal/storage"
	"github.com/dtroode/shopwise-auth/internal/storage/memory"
	"github.com/dtroode/shopwise-auth/internal/storage/minio"
	"github.com/dtroode/shopwise-auth/internal/storage/redis"
	"github.com/dtroode/shopwise-auth/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

// backends holds the lazily opened shared connections.
type backends struct {
	cfg     *config.Config
	logger  *logger.Logger
	db      *postgres.Connection
	redis   *goredis.Client
	closers []io.Closer
}

func (b *backends) postgres(ctx context.Context) *postgres.Connection {
	if b.db == nil {
		db, err := postgres.NewConnection(ctx, b.cfg.Database.DSN)
		if err != nil {
			b.logger.Fatal("failed to initialize postgres", "error", err)
		}
		b.db = db
		b.closers = append(b.closers, db)
	}
	return b.db
}

func (b *backends) redisClient(ctx context.Context) *goredis.Client {
	if b.redis == nil {
		client, err := redis.NewClient(ctx, b.cfg.Redis.Addr, b.cfg.Redis.Password, b.cfg.Redis.DB)
		if err != nil {
			b.logger.Fatal("failed to initialize redis", "error", err)
		}
		b.redis = client
		b.closers = append(b.closers, client)
	}
	return b.redis
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			b.logger.Error("failed to close backend", "error", err)
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat)

	b := &backends{cfg: cfg, logger: logger}
	defer b.Close()

	var wg sync.WaitGroup

	var users model.UserStore
	switch cfg.Stores.Users {
	case config.DriverPostgres:
		users = postgres.NewUserRepository(b.postgres(ctx))
	case config.DriverMemory:
		users = memory.NewUserStore()
	default:
		logger.Fatal("unknown user store driver", "driver", cfg.Stores.Users)
	}

	var codes model.VerificationStore
	var sweeper storage.Sweeper
	switch cfg.Stores.Verification {
	case config.DriverRedis:
		codes = redis.NewVerificationStore(b.redisClient(ctx))
	case config.DriverPostgres:
		repo := postgres.NewVerificationRepository(b.postgres(ctx))
		codes, sweeper = repo, repo
	case config.DriverMemory:
		store := memory.NewVerificationStore()
		codes, sweeper = store, store
	default:
		logger.Fatal("unknown verification store driver", "driver", cfg.Stores.Verification)
	}
	if sweeper != nil && cfg.OTP.SweepInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			storage.RunSweeper(ctx, sweeper, cfg.OTP.SweepInterval, logger)
		}()
	}

	var limiter model.RequestLimiter
	if cfg.Stores.Verification == config.DriverRedis && cfg.OTP.RequestLimit > 0 {
		limiter = redis.NewLimiter(b.redisClient(ctx), cfg.OTP.RequestLimit, cfg.OTP.RequestWindow)
	}

	var notifier model.Notifier
	switch cfg.Notifier {
	case config.NotifierAMQP:
		amqpNotifier, err := notification.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Queue, logger)
		if err != nil {
			logger.Fatal("failed to initialize notifier", "error", err)
		}
		b.closers = append(b.closers, amqpNotifier)
		notifier = amqpNotifier
	case config.NotifierLog:
		notifier = notification.NewLogNotifier(logger)
	default:
		logger.Fatal("unknown notifier", "notifier", cfg.Notifier)
	}

	hasher := password.NewBcrypt(cfg.Bcrypt.Cost)
	tokenManager, err := token.NewJWT(cfg.JWT.Secret)
	if err != nil {
		logger.Fatal("failed to initialize token manager", "error", err)
	}

	var objects model.Storage
	if cfg.Storage.Enabled {
		client, err := minio.Dial(ctx, cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Bucket, cfg.Storage.UseSSL)
		if err != nil {
			logger.Fatal("failed to initialize storage client", "error", err)
		}
		objects = client
	}

	registrationService := service.NewRegistration(users, codes, limiter, notifier, hasher, tokenManager, service.RegistrationConfig{
		CodeLength:  cfg.OTP.Length,
		CodeTTL:     cfg.OTP.TTL,
		MaxAttempts: cfg.OTP.MaxAttempts,
		SessionTTL:  cfg.JWT.SessionTTL,
	}, logger)
	authService := service.NewAuth(users, hasher, tokenManager, cfg.JWT.SessionTTL, logger)
	accountService := service.NewAccount(users, hasher, objects, logger)

	if seed := cfg.AdminSeed; seed.Email != "" {
		created, err := accountService.EnsureAdmin(ctx, seed.Email, seed.Password, model.Profile{
			FirstName: seed.FirstName,
			LastName:  seed.LastName,
			Phone:     seed.Phone,
		})
		if err != nil {
			logger.Fatal("failed to seed admin", "error", err)
		}
		if created {
			logger.Info("admin account created", "identity", seed.Email)
		}
	}

	r := router.New(registrationService, authService, accountService, httpctx.NewManager(), router.Config{
		RequestTimeout: cfg.HTTP.RequestTimeout,
		SecureCookies:  cfg.HTTP.SecureCookies,
		AvatarUploads:  objects != nil,
	}, logger)
	srv := httpServer.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))
	sl := server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)

	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address(), "https", cfg.HTTP.EnableHTTPS)
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}(srv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
