package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"biliticket/connhub/internal/model"
)

func TestUserRepository_CreateGetDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, DefaultSchema())
	require.NoError(t, model.AutoMigrate(db))
	users := NewUserRepository(db)

	u := &model.User{DisplayName: "octo"}
	require.NoError(t, users.Create(ctx, u))
	require.Len(t, u.ID, 36)

	got, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "octo", got.DisplayName)
	assert.Equal(t, model.UserStatusActive, got.Status)

	require.NoError(t, users.Delete(ctx, u.ID))
	_, err = users.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
