package provider

import (
	"errors"
	"fmt"
	"sync"

	"biliticket/connhub/internal/model"
)

var ErrFactoryNotFound = errors.New("no connection factory registered")

// APIType names the client API a connection is used with, e.g. "github.v3".
// Several API types never share one provider.
type APIType string

// ConnectionFactory turns stored connection data into a provider connection.
type ConnectionFactory interface {
	ProviderID() string
	APIType() APIType
	CreateConnection(data model.ConnectionData) model.Connection
}

// Locator resolves factories by provider id or API type.
type Locator interface {
	Factory(providerID string) (ConnectionFactory, error)
	FactoryForAPI(apiType APIType) (ConnectionFactory, error)
	RegisteredProviderIDs() []string
}

// Registry is the in-memory Locator. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	byProvider map[string]ConnectionFactory
	byAPI      map[APIType]ConnectionFactory
	order      []string
}

func NewRegistry(factories ...ConnectionFactory) (*Registry, error) {
	r := &Registry{
		byProvider: make(map[string]ConnectionFactory),
		byAPI:      make(map[APIType]ConnectionFactory),
	}
	for _, f := range factories {
		if err := r.Register(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a factory. Provider ids and API types must be unique.
func (r *Registry) Register(f ConnectionFactory) error {
	if f == nil || f.ProviderID() == "" {
		return errors.New("register connection factory: provider id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byProvider[f.ProviderID()]; ok {
		return fmt.Errorf("register connection factory: provider %q already registered", f.ProviderID())
	}
	if f.APIType() != "" {
		if _, ok := r.byAPI[f.APIType()]; ok {
			return fmt.Errorf("register connection factory: api type %q already registered", f.APIType())
		}
		r.byAPI[f.APIType()] = f
	}
	r.byProvider[f.ProviderID()] = f
	r.order = append(r.order, f.ProviderID())
	return nil
}

func (r *Registry) Factory(providerID string) (ConnectionFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.byProvider[providerID]
	if !ok {
		return nil, fmt.Errorf("%w: provider %q", ErrFactoryNotFound, providerID)
	}
	return f, nil
}

func (r *Registry) FactoryForAPI(apiType APIType) (ConnectionFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.byAPI[apiType]
	if !ok {
		return nil, fmt.Errorf("%w: api type %q", ErrFactoryNotFound, apiType)
	}
	return f, nil
}

// RegisteredProviderIDs returns provider ids in registration order.
func (r *Registry) RegisteredProviderIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

var _ Locator = (*Registry)(nil)
