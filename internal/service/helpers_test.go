package service

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"biliticket/connhub/internal/model"
	"biliticket/connhub/internal/provider"
	"biliticket/connhub/internal/repository"
	"biliticket/connhub/pkg/crypto"
)

type fixture struct {
	db        *gorm.DB
	registry  *provider.Registry
	directory repository.UsersConnectionRepository
	users     repository.UserRepository
	svc       ConnectionService
}

func newFixture(t *testing.T, opts ...repository.Option) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, model.AutoMigrate(db))
	require.NoError(t, repository.EnsureSchema(context.Background(), db, repository.DefaultSchema()))

	reg, err := provider.NewRegistry(
		provider.NewOAuth2Factory("github", "github.v3"),
		provider.NewOAuth2Factory("google", "google.people"),
	)
	require.NoError(t, err)

	enc, err := crypto.NewAESGCMEncryptor([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	dir, err := repository.NewUsersConnectionRepository(reg, db, repository.DefaultSchema(), enc, opts...)
	require.NoError(t, err)

	return &fixture{
		db:        db,
		registry:  reg,
		directory: dir,
		users:     repository.NewUserRepository(db),
		svc:       NewConnectionService(dir, reg),
	}
}

func ghData(providerUserID string) model.ConnectionData {
	return model.ConnectionData{
		ProviderID:     "github",
		ProviderUserID: providerUserID,
		DisplayName:    "octo " + providerUserID,
		AccessToken:    "gho_" + providerUserID,
	}
}
