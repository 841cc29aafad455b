package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestBuildQueries_SQLite(t *testing.T) {
	db := newTestDB(t, DefaultSchema())

	q, err := buildQueries(db, DefaultSchema())
	require.NoError(t, err)
	assert.Empty(t, q.rankGuard)
	assert.Equal(t,
		"SELECT COALESCE(MAX(`rank`) + 1, 1) FROM `UserConnection` WHERE `userId` = ? AND `providerId` = ?",
		q.nextRank)
	assert.Equal(t,
		"SELECT `providerId`, `providerUserId`, `rank`, `displayName`, `profileUrl`, `imageUrl`, `accessToken`, `secret`, `refreshToken`, `expireTime` FROM `UserConnection` WHERE `userId` = ? AND `providerId` = ? ORDER BY `rank` LIMIT 1",
		q.findPrimary)
	assert.Contains(t, q.insert, "VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
}

func TestBuildQueries_Postgres(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 port=1 user=x dbname=x sslmode=disable",
	}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	q, err := buildQueries(db, DefaultSchema())
	require.NoError(t, err)
	assert.Equal(t, "SELECT pg_advisory_xact_lock(hashtext(?))", q.rankGuard)
	assert.Contains(t, q.findAll, `FROM "UserConnection" WHERE "userId" = ? ORDER BY "providerId", "rank"`)
	assert.NotContains(t, q.nextRank, "FOR UPDATE")
}

func TestBuildQueries_MySQL(t *testing.T) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "x:x@tcp(127.0.0.1:1)/x",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	q, err := buildQueries(db, DefaultSchema())
	require.NoError(t, err)
	assert.Empty(t, q.rankGuard)
	assert.Contains(t, q.nextRank, "FROM `UserConnection`")
	assert.True(t, strings.HasSuffix(q.nextRank, " FOR UPDATE"), q.nextRank)
}

func TestBuildQueries_RejectsBadSchema(t *testing.T) {
	db := newTestDB(t, DefaultSchema())

	s := DefaultSchema()
	s.Secret = s.AccessToken
	_, err := buildQueries(db, s)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = buildQueries(nil, DefaultSchema())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSchemaConfig_WithDefaults(t *testing.T) {
	s := SchemaConfig{Table: "conns", UserID: "uid"}.WithDefaults()
	assert.Equal(t, "conns", s.Table)
	assert.Equal(t, "uid", s.UserID)
	assert.Equal(t, DefaultSchema().ExpireTime, s.ExpireTime)
	assert.NoError(t, s.Validate())
	assert.ErrorIs(t, SchemaConfig{}.Validate(), ErrInvalidArgument)
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := newTestDB(t, DefaultSchema())

	require.NoError(t, EnsureSchema(t.Context(), db, DefaultSchema()))
	assert.True(t, db.Migrator().HasIndex(DefaultSchema().Table, "UserConnectionRank"))
	assert.True(t, db.Migrator().HasIndex(DefaultSchema().Table, "UserConnectionProviderUser"))
}
