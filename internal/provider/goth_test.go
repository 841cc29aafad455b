package provider

import (
	"testing"
	"time"

	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataFromGothUser(t *testing.T) {
	expires := time.UnixMilli(1_900_000_000_000)
	d := DataFromGothUser(goth.User{
		Provider:          "github",
		UserID:            "583231",
		NickName:          "octocat",
		AvatarURL:         "https://avatars.example/583231",
		AccessToken:       "gho_x",
		AccessTokenSecret: "s",
		RefreshToken:      "ghr_x",
		ExpiresAt:         expires,
		RawData:           map[string]interface{}{"html_url": "https://github.com/octocat"},
	})

	assert.Equal(t, "github", d.ProviderID)
	assert.Equal(t, "583231", d.ProviderUserID)
	assert.Equal(t, "octocat", d.DisplayName)
	assert.Equal(t, "https://github.com/octocat", d.ProfileURL)
	assert.Equal(t, "https://avatars.example/583231", d.ImageURL)
	assert.Equal(t, "s", d.Secret)
	assert.Equal(t, expires.UnixMilli(), d.ExpireTime)
	assert.Zero(t, d.Rank)
}

func TestDataFromGothUser_PrefersNameAndZeroExpiry(t *testing.T) {
	d := DataFromGothUser(goth.User{Provider: "google", UserID: "1", Name: "Full Name", NickName: "nick"})
	assert.Equal(t, "Full Name", d.DisplayName)
	assert.Zero(t, d.ExpireTime)
	assert.Empty(t, d.ProfileURL)
}

func TestConnectionFromGothUser(t *testing.T) {
	reg, err := NewRegistry(NewOAuth2Factory("github", "github.v3"))
	require.NoError(t, err)

	c, err := ConnectionFromGothUser(reg, goth.User{Provider: "github", UserID: "1"})
	require.NoError(t, err)
	assert.Equal(t, APIType("github.v3"), c.(*OAuth2Connection).APIType())

	_, err = ConnectionFromGothUser(reg, goth.User{Provider: "gitlab", UserID: "1"})
	assert.ErrorIs(t, err, ErrFactoryNotFound)
}
