package provider

import (
	"time"

	"golang.org/x/oauth2"

	"biliticket/connhub/internal/model"
)

// OAuth2Connection is a connection backed by OAuth 1/2 credentials. It exposes
// the stored tokens in x/oauth2 form so API clients can be built from it.
type OAuth2Connection struct {
	data    model.ConnectionData
	apiType APIType
}

func NewOAuth2Connection(data model.ConnectionData, apiType APIType) *OAuth2Connection {
	return &OAuth2Connection{data: data, apiType: apiType}
}

func (c *OAuth2Connection) Key() model.ConnectionKey { return c.data.Key() }

func (c *OAuth2Connection) CreateData() model.ConnectionData { return c.data }

func (c *OAuth2Connection) APIType() APIType { return c.apiType }

func (c *OAuth2Connection) DisplayName() string { return c.data.DisplayName }

// Token returns the stored credentials. A zero ExpireTime yields a token
// without expiry.
func (c *OAuth2Connection) Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  c.data.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: c.data.RefreshToken,
	}
	if c.data.ExpireTime != 0 {
		tok.Expiry = time.UnixMilli(c.data.ExpireTime)
	}
	return tok
}

func (c *OAuth2Connection) HasExpired(now time.Time) bool {
	return c.data.ExpireTime != 0 && !now.Before(time.UnixMilli(c.data.ExpireTime))
}

// WithToken returns a copy carrying the credentials of tok, e.g. after the
// caller refreshed it elsewhere. Key and profile fields are kept.
func (c *OAuth2Connection) WithToken(tok *oauth2.Token) *OAuth2Connection {
	data := c.data
	data.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		data.RefreshToken = tok.RefreshToken
	}
	data.ExpireTime = 0
	if !tok.Expiry.IsZero() {
		data.ExpireTime = tok.Expiry.UnixMilli()
	}
	return &OAuth2Connection{data: data, apiType: c.apiType}
}

// OAuth2Factory creates OAuth2Connection values for one provider.
type OAuth2Factory struct {
	providerID string
	apiType    APIType
}

func NewOAuth2Factory(providerID string, apiType APIType) *OAuth2Factory {
	return &OAuth2Factory{providerID: providerID, apiType: apiType}
}

func (f *OAuth2Factory) ProviderID() string { return f.providerID }

func (f *OAuth2Factory) APIType() APIType { return f.apiType }

func (f *OAuth2Factory) CreateConnection(data model.ConnectionData) model.Connection {
	return NewOAuth2Connection(data, f.apiType)
}

var (
	_ model.Connection  = (*OAuth2Connection)(nil)
	_ ConnectionFactory = (*OAuth2Factory)(nil)
)
