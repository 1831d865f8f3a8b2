package main

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/altenshop/backend/api/handler"
	"github.com/altenshop/backend/internal/config"
	"github.com/altenshop/backend/internal/infrastructure/monitor"
	"github.com/altenshop/backend/internal/infrastructure/outbox"
	pgInfra "github.com/altenshop/backend/internal/infrastructure/postgres"
	redisInfra "github.com/altenshop/backend/internal/infrastructure/redis"
	"github.com/altenshop/backend/internal/mailer"
	"github.com/altenshop/backend/internal/middleware"
	"github.com/altenshop/backend/internal/router"
	"github.com/altenshop/backend/internal/services"
	"github.com/altenshop/backend/internal/services/lifecycle"
	"github.com/altenshop/backend/internal/token"
	"github.com/altenshop/backend/pkg/httpcontext"
	"github.com/altenshop/backend/pkg/logger"
	"github.com/altenshop/backend/repository/postgres"
	redisRepo "github.com/altenshop/backend/repository/redis"
	accountUC "github.com/altenshop/backend/usecase/account"
	activationUC "github.com/altenshop/backend/usecase/activation"
	productUC "github.com/altenshop/backend/usecase/product"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	outboxStore, err := outbox.Open(cfg.Outbox.Path)
	if err != nil {
		zapLogger.Fatal("failed to open mail outbox", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	mon := monitor.New(pool, redisClient, outboxStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	smtpSender := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     strconv.Itoa(cfg.Mail.Port),
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	})

	mailPool := mailer.NewPool(smtpSender, outboxStore, mailer.PoolConfig{
		Workers:   cfg.Mail.Workers,
		QueueSize: cfg.Mail.QueueSize,
	}, zapLogger)
	manager.Register("mail_pool", func(ctx context.Context) error {
		mailPool.Stop(ctx)
		return nil
	})

	outboxProcessor := services.NewOutboxProcessor(outboxStore, smtpSender, zapLogger, services.ProcessorConfig{
		Interval:   cfg.Outbox.DrainInterval,
		BatchSize:  cfg.Outbox.BatchSize,
		MaxRetries: cfg.Outbox.MaxRetries,
	})
	outboxProcessor.Start()
	manager.Register("outbox_processor", func(ctx context.Context) error {
		outboxProcessor.Stop(ctx)
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	activationRepo := postgres.NewActivationCodeRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	productCache := redisRepo.NewProductCache(redisClient, cfg.Redis.CacheTTL)

	tokenService := token.NewService(cfg.JWT.Secret, cfg.JWT.TTL)
	mailService := mailer.NewService(mailPool, cfg.Frontend.BaseURL, zapLogger)

	activationManager := activationUC.NewManager(activationRepo, userRepo, cfg.Activation.CodeTTL, zapLogger)
	accountService := accountUC.NewService(userRepo, activationManager, tokenService, mailService, zapLogger)
	productService := productUC.NewService(productRepo, productCache, cfg.Admin.Email, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(accountService, ctxAdapter, zapLogger),
		Product: apiHandler.NewProductHandler(productService, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	gate := middleware.Authentication(tokenService, userRepo, zapLogger)
	r := router.New(handlers)

	server := &fasthttp.Server{
		Handler:      gate(r.Handler),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
