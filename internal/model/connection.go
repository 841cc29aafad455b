package model

import "fmt"

// ConnectionKey identifies one provider account of a user.
type ConnectionKey struct {
	ProviderID     string `json:"provider_id"`
	ProviderUserID string `json:"provider_user_id"`
}

func (k ConnectionKey) String() string {
	return fmt.Sprintf("%s:%s", k.ProviderID, k.ProviderUserID)
}

// ConnectionData is the flat, storable form of a connection.
//
// Empty strings mean "absent" and are persisted as NULL. ExpireTime is epoch
// milliseconds; 0 means the access token does not expire. Rank is filled in
// on read and ignored on write.
type ConnectionData struct {
	ProviderID     string `json:"provider_id"`
	ProviderUserID string `json:"provider_user_id"`
	Rank           int    `json:"rank"`
	DisplayName    string `json:"display_name,omitempty"`
	ProfileURL     string `json:"profile_url,omitempty"`
	ImageURL       string `json:"image_url,omitempty"`
	AccessToken    string `json:"access_token,omitempty"`
	Secret         string `json:"secret,omitempty"`
	RefreshToken   string `json:"refresh_token,omitempty"`
	ExpireTime     int64  `json:"expire_time,omitempty"`
}

func (d ConnectionData) Key() ConnectionKey {
	return ConnectionKey{ProviderID: d.ProviderID, ProviderUserID: d.ProviderUserID}
}

// Connection is a provider connection as handed out by a ConnectionFactory.
// Concrete types add provider specific behaviour on top of the stored data.
type Connection interface {
	Key() ConnectionKey
	CreateData() ConnectionData
}
