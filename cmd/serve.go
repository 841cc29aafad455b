package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"biliticket/connhub/internal/config"
	"biliticket/connhub/internal/handler"
	"biliticket/connhub/internal/model"
	"biliticket/connhub/internal/provider"
	"biliticket/connhub/internal/repository"
	"biliticket/connhub/internal/service"
	"biliticket/connhub/pkg/crypto"
	jwtpkg "biliticket/connhub/pkg/jwt"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	// 1. Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	jwtManager, err := jwtpkg.NewManager(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL)
	if err != nil {
		return fmt.Errorf("jwt: %w", err)
	}

	// 3. Connect to the database
	db, err := config.NewDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Database.Driver, err)
	}
	schema := repository.SchemaConfig(cfg.Schema).WithDefaults()

	// 4. Create tables if enabled
	if cfg.Database.AutoMigrate {
		if err := migrate(ctx, db, schema); err != nil {
			return err
		}
		logger.Info("database migration completed")
	}

	// 5. Rank locker, encryptor and provider registry
	locker, err := newRankLocker(cfg, logger.Named("ranklock"))
	if err != nil {
		return err
	}
	logger.Info("rank locker ready", zap.String("backend", cfg.Lock.Backend))

	encryptor, err := newEncryptor(cfg.Encryption)
	if err != nil {
		return err
	}
	if cfg.Encryption.Algorithm == crypto.AlgorithmNone {
		logger.Warn("connection secrets are stored unencrypted")
	}

	registry, err := newRegistry(cfg.Providers)
	if err != nil {
		return err
	}
	logger.Info("providers registered", zap.Strings("providers", registry.RegisteredProviderIDs()))

	// 6. Initialize repositories
	opts := []repository.Option{
		repository.WithRankLocker(locker),
		repository.WithLogger(logger.Named("connections")),
	}
	if cfg.SignUp.Enabled {
		signUp := service.NewSignUpService(repository.NewUserRepository(db), logger.Named("signup"))
		opts = append(opts, repository.WithConnectionSignUp(signUp))
	}
	directory, err := repository.NewUsersConnectionRepository(registry, db, schema, encryptor, opts...)
	if err != nil {
		return err
	}

	// 7. Services, handlers and router
	connectionService := service.NewConnectionService(directory, registry)
	router := handler.SetupRouter(cfg, logger, jwtManager,
		handler.NewConnectionHandler(connectionService),
		handler.NewAdminHandler(connectionService),
	)

	// 8. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 9. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server exited gracefully")
	return nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}

func migrate(ctx context.Context, db *gorm.DB, schema repository.SchemaConfig) error {
	if err := model.AutoMigrate(db); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	if err := repository.EnsureSchema(ctx, db, schema); err != nil {
		return fmt.Errorf("ensure connection table: %w", err)
	}
	return nil
}

func newRankLocker(cfg *config.Config, logger *zap.Logger) (repository.RankLocker, error) {
	switch cfg.Lock.Backend {
	case "memory", "":
		return repository.NewMemoryRankLocker(), nil
	case "redis":
		client, err := config.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return repository.NewRedisRankLocker(client, cfg.Lock.TTL, logger), nil
	case "none":
		return repository.NopRankLocker(), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Lock.Backend)
	}
}

func newEncryptor(cfg config.EncryptionConfig) (crypto.TextEncryptor, error) {
	if cfg.Algorithm == crypto.AlgorithmNone {
		return crypto.NoopEncryptor(), nil
	}

	var (
		key []byte
		err error
	)
	switch {
	case cfg.Key != "":
		key, err = crypto.ParseHexKey(cfg.Key)
	case cfg.Passphrase != "":
		key, err = crypto.DeriveKey(cfg.Passphrase, cfg.Salt)
	default:
		return nil, errors.New("encryption: key or passphrase is required")
	}
	if err != nil {
		return nil, fmt.Errorf("encryption: %w", err)
	}
	return crypto.NewTextEncryptor(cfg.Algorithm, key)
}

func newRegistry(providers []config.ProviderConfig) (*provider.Registry, error) {
	factories := make([]provider.ConnectionFactory, 0, len(providers))
	for _, p := range providers {
		factories = append(factories, provider.NewOAuth2Factory(p.ID, provider.APIType(p.APIType)))
	}
	return provider.NewRegistry(factories...)
}
