package handler

import "biliticket/connhub/internal/model"

// ConnectionResponse is a connection without its credentials.
type ConnectionResponse struct {
	ProviderID      string `json:"provider_id"`
	ProviderUserID  string `json:"provider_user_id"`
	Rank            int    `json:"rank"`
	DisplayName     string `json:"display_name,omitempty"`
	ProfileURL      string `json:"profile_url,omitempty"`
	ImageURL        string `json:"image_url,omitempty"`
	HasAccessToken  bool   `json:"has_access_token"`
	HasSecret       bool   `json:"has_secret"`
	HasRefreshToken bool   `json:"has_refresh_token"`
	ExpireTime      int64  `json:"expire_time,omitempty"`
}

func toConnectionResponse(c model.Connection) *ConnectionResponse {
	if c == nil {
		return nil
	}
	d := c.CreateData()
	return &ConnectionResponse{
		ProviderID:      d.ProviderID,
		ProviderUserID:  d.ProviderUserID,
		Rank:            d.Rank,
		DisplayName:     d.DisplayName,
		ProfileURL:      d.ProfileURL,
		ImageURL:        d.ImageURL,
		HasAccessToken:  d.AccessToken != "",
		HasSecret:       d.Secret != "",
		HasRefreshToken: d.RefreshToken != "",
		ExpireTime:      d.ExpireTime,
	}
}

func toConnectionResponses(conns []model.Connection) []*ConnectionResponse {
	out := make([]*ConnectionResponse, len(conns))
	for i, c := range conns {
		out[i] = toConnectionResponse(c)
	}
	return out
}

func toConnectionMap(m map[string][]model.Connection) map[string][]*ConnectionResponse {
	out := make(map[string][]*ConnectionResponse, len(m))
	for id, conns := range m {
		out[id] = toConnectionResponses(conns)
	}
	return out
}

// ConnectionFields are the mutable attributes of a connection.
type ConnectionFields struct {
	DisplayName  string `json:"display_name"`
	ProfileURL   string `json:"profile_url"`
	ImageURL     string `json:"image_url"`
	AccessToken  string `json:"access_token"`
	Secret       string `json:"secret"`
	RefreshToken string `json:"refresh_token"`
	ExpireTime   int64  `json:"expire_time" binding:"gte=0"`
}

type ConnectionRequest struct {
	ProviderID     string `json:"provider_id" binding:"required"`
	ProviderUserID string `json:"provider_user_id" binding:"required"`
	ConnectionFields
}

func (r ConnectionRequest) data() model.ConnectionData {
	return r.ConnectionFields.data(model.ConnectionKey{ProviderID: r.ProviderID, ProviderUserID: r.ProviderUserID})
}

func (f ConnectionFields) data(key model.ConnectionKey) model.ConnectionData {
	return model.ConnectionData{
		ProviderID:     key.ProviderID,
		ProviderUserID: key.ProviderUserID,
		DisplayName:    f.DisplayName,
		ProfileURL:     f.ProfileURL,
		ImageURL:       f.ImageURL,
		AccessToken:    f.AccessToken,
		Secret:         f.Secret,
		RefreshToken:   f.RefreshToken,
		ExpireTime:     f.ExpireTime,
	}
}

type LookupRequest struct {
	Accounts map[string][]string `json:"accounts" binding:"required"`
}

type OwnersRequest struct {
	ProviderID      string   `json:"provider_id" binding:"required"`
	ProviderUserIDs []string `json:"provider_user_ids"`
}

type UserIDsResponse struct {
	UserIDs []string `json:"user_ids"`
}
