package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"biliticket/connhub/internal/model"
	"biliticket/connhub/internal/provider"
	"biliticket/connhub/pkg/crypto"
)

const (
	apiGitHub   provider.APIType = "github.v3"
	apiGoogle   provider.APIType = "google.people"
	apiFacebook provider.APIType = "facebook.graph"
)

// newTestDB opens a private in-memory database. A single connection keeps
// every query on the same database and serialises transactions.
func newTestDB(t *testing.T, schema SchemaConfig) *gorm.DB {
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

	require.NoError(t, EnsureSchema(context.Background(), db, schema))
	return db
}

func newTestRegistry(t *testing.T) *provider.Registry {
	t.Helper()
	reg, err := provider.NewRegistry(
		provider.NewOAuth2Factory("github", apiGitHub),
		provider.NewOAuth2Factory("google", apiGoogle),
		provider.NewOAuth2Factory("facebook", apiFacebook),
	)
	require.NoError(t, err)
	return reg
}

func newTestEncryptor(t *testing.T) crypto.TextEncryptor {
	t.Helper()
	enc, err := crypto.NewAESGCMEncryptor([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return enc
}

func newTestDirectory(t *testing.T, opts ...Option) (UsersConnectionRepository, *gorm.DB) {
	t.Helper()
	db := newTestDB(t, DefaultSchema())
	dir, err := NewUsersConnectionRepository(newTestRegistry(t), db, DefaultSchema(), newTestEncryptor(t), opts...)
	require.NoError(t, err)
	return dir, db
}

func newTestRepo(t *testing.T, userID string) (ConnectionRepository, *gorm.DB) {
	t.Helper()
	dir, db := newTestDirectory(t)
	repo, err := dir.CreateConnectionRepository(userID)
	require.NoError(t, err)
	return repo, db
}

func githubConn(providerUserID string) model.Connection {
	return provider.NewOAuth2Connection(model.ConnectionData{
		ProviderID:     "github",
		ProviderUserID: providerUserID,
		DisplayName:    "octo " + providerUserID,
		ProfileURL:     "https://github.com/" + providerUserID,
		ImageURL:       "https://avatars.example/" + providerUserID,
		AccessToken:    "gho_access_" + providerUserID,
		Secret:         "secret_" + providerUserID,
		RefreshToken:   "ghr_refresh_" + providerUserID,
		ExpireTime:     1_900_000_000_000,
	}, apiGitHub)
}

func connOf(providerID, providerUserID string) model.Connection {
	return provider.NewOAuth2Connection(model.ConnectionData{
		ProviderID:     providerID,
		ProviderUserID: providerUserID,
		AccessToken:    "token-" + providerUserID,
	}, "")
}

func ranksOf(conns []model.Connection) []int {
	ranks := make([]int, len(conns))
	for i, c := range conns {
		ranks[i] = c.CreateData().Rank
	}
	return ranks
}
