package provider

import (
	"github.com/markbates/goth"

	"biliticket/connhub/internal/model"
)

// DataFromGothUser maps the result of a goth login onto storable data.
func DataFromGothUser(u goth.User) model.ConnectionData {
	name := u.Name
	if name == "" {
		name = u.NickName
	}
	data := model.ConnectionData{
		ProviderID:     u.Provider,
		ProviderUserID: u.UserID,
		DisplayName:    name,
		ImageURL:       u.AvatarURL,
		AccessToken:    u.AccessToken,
		Secret:         u.AccessTokenSecret,
		RefreshToken:   u.RefreshToken,
	}
	if profile, ok := u.RawData["html_url"].(string); ok {
		data.ProfileURL = profile
	}
	if !u.ExpiresAt.IsZero() {
		data.ExpireTime = u.ExpiresAt.UnixMilli()
	}
	return data
}

// ConnectionFromGothUser builds a connection through the factory registered
// for the goth provider name.
func ConnectionFromGothUser(l Locator, u goth.User) (model.Connection, error) {
	f, err := l.Factory(u.Provider)
	if err != nil {
		return nil, err
	}
	return f.CreateConnection(DataFromGothUser(u)), nil
}
