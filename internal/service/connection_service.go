package service

import (
	"context"

	"github.com/markbates/goth"

	"biliticket/connhub/internal/model"
	"biliticket/connhub/internal/provider"
	"biliticket/connhub/internal/repository"
)

// ConnectionService exposes the connection repositories to the HTTP layer.
// Methods taking a userID act on that user's connections only.
type ConnectionService interface {
	List(ctx context.Context, userID string) (map[string][]model.Connection, error)
	ListByProvider(ctx context.Context, userID, providerID string) ([]model.Connection, error)
	Get(ctx context.Context, userID string, key model.ConnectionKey) (model.Connection, error)
	Primary(ctx context.Context, userID, providerID string) (model.Connection, error)
	Lookup(ctx context.Context, userID string, accounts map[string][]string) (map[string][]model.Connection, error)
	Add(ctx context.Context, userID string, data model.ConnectionData) (model.Connection, error)
	Update(ctx context.Context, userID string, data model.ConnectionData) (model.Connection, error)
	RemoveProvider(ctx context.Context, userID, providerID string) error
	Remove(ctx context.Context, userID string, key model.ConnectionKey) error

	Owners(ctx context.Context, providerID string, providerUserIDs []string) ([]string, error)
	Resolve(ctx context.Context, data model.ConnectionData) ([]string, error)
	ResolveGothUser(ctx context.Context, user goth.User) ([]string, error)
}

type connectionService struct {
	directory repository.UsersConnectionRepository
	locator   provider.Locator
}

func NewConnectionService(directory repository.UsersConnectionRepository, locator provider.Locator) ConnectionService {
	return &connectionService{
		directory: directory,
		locator:   locator,
	}
}

func (s *connectionService) List(ctx context.Context, userID string) (map[string][]model.Connection, error) {
	repo, err := s.directory.CreateConnectionRepository(userID)
	if err != nil {
		return nil, err
	}
	return repo.FindAll(ctx)
}

func (s *connectionService) ListByProvider(ctx context.Context, userID, providerID string) ([]model.Connection, error) {
	repo, err := s.directory.CreateConnectionRepository(userID)
	if err != nil {
		return nil, err
	}
	return repo.FindByProvider(ctx, providerID)
}

func (s *connectionService) Get(ctx context.Context, userID string, key model.ConnectionKey) (model.Connection, error) {
	repo, err := s.directory.CreateConnectionRepository(userID)
	if err != nil {
		return nil, err
	}
	return repo.GetByKey(ctx, key)
}

// Primary returns the rank 1 connection of a registered provider. Providers
// without an API type are resolved by id.
func (s *connectionService) Primary(ctx context.Context, userID, providerID string) (model.Connection, error) {
	f, err := s.locator.Factory(providerID)
	if err != nil {
		return nil, err
	}
	repo, err := s.directory.CreateConnectionRepository(userID)
	if err != nil {
		return nil, err
	}
	if f.APIType() == "" {
		return repo.GetPrimaryByProvider(ctx, f.ProviderID())
	}
	return repo.GetPrimary(ctx, f.APIType())
}

func (s *connectionService) Lookup(ctx context.Context, userID string, accounts map[string][]string) (map[string][]model.Connection, error) {
	repo, err := s.directory.CreateConnectionRepository(userID)
	if err != nil {
		return nil, err
	}
	return repo.FindByProviderAndAccounts(ctx, accounts)
}

// Add stores data as a new connection and returns it as read back, rank
// included.
func (s *connectionService) Add(ctx context.Context, userID string, data model.ConnectionData) (model.Connection, error) {
	conn, err := s.connection(data)
	if err != nil {
		return nil, err
	}
	repo, err := s.directory.CreateConnectionRepository(userID)
	if err != nil {
		return nil, err
	}
	if err := repo.Add(ctx, conn); err != nil {
		return nil, err
	}
	return repo.GetByKey(ctx, data.Key())
}

// Update fails with repository.ErrNoSuchConnection when the key is unknown.
func (s *connectionService) Update(ctx context.Context, userID string, data model.ConnectionData) (model.Connection, error) {
	conn, err := s.connection(data)
	if err != nil {
		return nil, err
	}
	repo, err := s.directory.CreateConnectionRepository(userID)
	if err != nil {
		return nil, err
	}
	if _, err := repo.GetByKey(ctx, data.Key()); err != nil {
		return nil, err
	}
	if err := repo.Update(ctx, conn); err != nil {
		return nil, err
	}
	return repo.GetByKey(ctx, data.Key())
}

func (s *connectionService) RemoveProvider(ctx context.Context, userID, providerID string) error {
	repo, err := s.directory.CreateConnectionRepository(userID)
	if err != nil {
		return err
	}
	return repo.RemoveByProvider(ctx, providerID)
}

func (s *connectionService) Remove(ctx context.Context, userID string, key model.ConnectionKey) error {
	repo, err := s.directory.CreateConnectionRepository(userID)
	if err != nil {
		return err
	}
	return repo.RemoveByKey(ctx, key)
}

func (s *connectionService) Owners(ctx context.Context, providerID string, providerUserIDs []string) ([]string, error) {
	return s.directory.FindUserIDsConnectedTo(ctx, providerID, providerUserIDs)
}

func (s *connectionService) Resolve(ctx context.Context, data model.ConnectionData) ([]string, error) {
	conn, err := s.connection(data)
	if err != nil {
		return nil, err
	}
	return s.directory.FindUserIDsWithConnection(ctx, conn)
}

// ResolveGothUser is Resolve for the result of a goth login.
func (s *connectionService) ResolveGothUser(ctx context.Context, user goth.User) ([]string, error) {
	conn, err := provider.ConnectionFromGothUser(s.locator, user)
	if err != nil {
		return nil, err
	}
	return s.directory.FindUserIDsWithConnection(ctx, conn)
}

func (s *connectionService) connection(data model.ConnectionData) (model.Connection, error) {
	f, err := s.locator.Factory(data.ProviderID)
	if err != nil {
		return nil, err
	}
	return f.CreateConnection(data), nil
}

var _ ConnectionService = (*connectionService)(nil)
