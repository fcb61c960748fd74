package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"boardshop/internal/config"
	"boardshop/internal/domain"
	httpapi "boardshop/internal/http"
	"boardshop/internal/metrics"
	"boardshop/internal/notify"
	"boardshop/internal/repository"
	"boardshop/internal/service"
	"boardshop/internal/session"

	_ "boardshop/docs"
)

// @title Boardshop API
// @version 1.0
// @description Board game storefront: catalog, session carts, accounts and orders.
// @host localhost:9091
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found, using system envs")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := config.NewLogger(config.LoggerConfig{Level: cfg.LogLevel, Env: cfg.Env})
	if err != nil {
		log.Fatalf("error creating logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("Error opening store", zap.Error(err))
	}
	defer closeStore()

	locker := repository.NewKeyedLocker()

	var source service.CatalogSource = service.EmbeddedCatalogSource{}
	if cfg.Catalog.URL != "" {
		source = service.NewHTTPCatalogSource(cfg.Catalog.URL, cfg.Catalog.Timeout)
	}

	var sender service.CodeSender = notify.NewLogSender(logger)
	if cfg.SMTP.Host != "" {
		sender = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, logger)
	}

	policy := domain.ShippingPolicy{
		FreeThreshold: cfg.Shop.FreeShippingThreshold,
		FlatFee:       cfg.Shop.ShippingFee,
	}

	catalogSvc := service.NewCatalogService(store, source, logger)
	cartsSvc := service.NewCartService(store, locker, policy, logger)
	ordersSvc := service.NewOrderService(store, locker, cartsSvc, cfg.Shop.OrderPrefix, logger)
	accountsSvc, err := service.NewAccountService(store, locker, service.AccountConfig{
		AdminUsername:      cfg.Admin.Username,
		AdminPassword:      cfg.Admin.Password,
		RecoveryCodeTTL:    cfg.Shop.RecoveryCodeTTL,
		BcryptCost:         cfg.Security.BcryptCost,
		ExposeRecoveryCode: cfg.Shop.ExposeRecoveryCode,
	}, sender, logger)
	if err != nil {
		logger.Fatal("Error creating account service", zap.Error(err))
	}

	if cfg.DefaultSecret() {
		logger.Warn("SESSION_SECRET is not set, session tokens are signed with the default secret")
	}
	if cfg.Admin.Password == "" {
		logger.Warn("ADMIN_PASSWORD is empty, admin login is disabled")
	}

	srv := httpapi.NewServer(httpapi.Services{
		Catalog:  catalogSvc,
		Carts:    cartsSvc,
		Orders:   ordersSvc,
		Accounts: accountsSvc,
		Sessions: session.NewManager(cfg.Session.Secret, cfg.Session.TTL),
		Metrics:  metrics.New(),
	}, httpapi.Options{MaxQuantityPerRequest: cfg.Shop.MaxQuantityPerRequest}, logger)

	httpServer := &http.Server{
		Addr:         cfg.HTTP.Port,
		Handler:      srv.Engine(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func openStore(cfg *config.Config, logger *zap.Logger) (repository.Store, func(), error) {
	switch cfg.Storage.Driver {
	case "redis":
		client, err := repository.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using redis store", zap.String("addr", cfg.Redis.Addr))
		return repository.NewRedisStore(client, cfg.Redis.Prefix, logger), func() { _ = client.Close() }, nil
	default:
		logger.Info("Using in-memory store")
		return repository.NewMemoryStore(), func() {}, nil
	}
}
