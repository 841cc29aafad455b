package repository

import (
	"context"

	"biliticket/connhub/internal/model"
	"biliticket/connhub/internal/provider"
)

// ConnectionRepository stores the provider connections of a single user.
type ConnectionRepository interface {
	UserID() string

	// FindAll groups the user's connections by provider, rank ordered. Every
	// registered provider is present, with an empty slice if unconnected.
	FindAll(ctx context.Context) (map[string][]model.Connection, error)
	FindByProvider(ctx context.Context, providerID string) ([]model.Connection, error)
	FindByAPIType(ctx context.Context, apiType provider.APIType) ([]model.Connection, error)
	// FindByProviderAndAccounts returns, per requested provider, a slice aligned
	// with the requested provider user ids. Entries without a stored
	// connection are nil.
	FindByProviderAndAccounts(ctx context.Context, accounts map[string][]string) (map[string][]model.Connection, error)

	GetByKey(ctx context.Context, key model.ConnectionKey) (model.Connection, error)
	GetByAPITypeAndAccount(ctx context.Context, apiType provider.APIType, providerUserID string) (model.Connection, error)
	GetPrimary(ctx context.Context, apiType provider.APIType) (model.Connection, error)
	// FindPrimary is GetPrimary returning (nil, nil) when not connected.
	FindPrimary(ctx context.Context, apiType provider.APIType) (model.Connection, error)
	// GetPrimaryByProvider is GetPrimary for providers registered without an
	// API type.
	GetPrimaryByProvider(ctx context.Context, providerID string) (model.Connection, error)

	Add(ctx context.Context, conn model.Connection) error
	Update(ctx context.Context, conn model.Connection) error
	RemoveByProvider(ctx context.Context, providerID string) error
	RemoveByKey(ctx context.Context, key model.ConnectionKey) error
}
