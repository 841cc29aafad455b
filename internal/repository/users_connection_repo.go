package repository

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"biliticket/connhub/internal/model"
	"biliticket/connhub/internal/provider"
	"biliticket/connhub/pkg/crypto"
)

// ConnectionSignUp provisions a local user for a connection nobody owns yet.
// An empty user id means no user was created.
type ConnectionSignUp interface {
	Execute(ctx context.Context, conn model.Connection) (string, error)
}

type ConnectionSignUpFunc func(ctx context.Context, conn model.Connection) (string, error)

func (f ConnectionSignUpFunc) Execute(ctx context.Context, conn model.Connection) (string, error) {
	return f(ctx, conn)
}

// UsersConnectionRepository answers cross-user questions about connections
// and hands out per-user repositories.
type UsersConnectionRepository interface {
	// FindUserIDsWithConnection returns the owners of conn. With no owner and
	// a sign-up policy set, a new user may be created and conn stored for it.
	FindUserIDsWithConnection(ctx context.Context, conn model.Connection) ([]string, error)
	// FindUserIDsConnectedTo returns the distinct, sorted ids of users
	// connected to any of the given provider accounts.
	FindUserIDsConnectedTo(ctx context.Context, providerID string, providerUserIDs []string) ([]string, error)
	CreateConnectionRepository(userID string) (ConnectionRepository, error)
	SetConnectionSignUp(signUp ConnectionSignUp) error
}

type storage struct {
	db *gorm.DB
	q  *queries
}

type sqlUsersConnectionRepository struct {
	locator   provider.Locator
	encryptor crypto.TextEncryptor
	locker    RankLocker
	logger    *zap.Logger
	storage   func() (*storage, error)

	mu     sync.RWMutex
	signUp ConnectionSignUp
}

// NewUsersConnectionRepository uses an already opened handle.
func NewUsersConnectionRepository(
	locator provider.Locator,
	db *gorm.DB,
	schema SchemaConfig,
	encryptor crypto.TextEncryptor,
	opts ...Option,
) (UsersConnectionRepository, error) {
	if db == nil {
		return nil, invalidArgument("db")
	}
	q, err := buildQueries(db, schema)
	if err != nil {
		return nil, err
	}
	st := &storage{db: db, q: q}
	return newSQLUsersConnectionRepository(locator, func() (*storage, error) { return st, nil }, encryptor, opts)
}

// NewLazyUsersConnectionRepository defers opening the handle to first use.
// open runs at most once, even under concurrent first calls; its result,
// error included, is kept for the lifetime of the repository.
func NewLazyUsersConnectionRepository(
	locator provider.Locator,
	open func() (*gorm.DB, error),
	schema SchemaConfig,
	encryptor crypto.TextEncryptor,
	opts ...Option,
) (UsersConnectionRepository, error) {
	if open == nil {
		return nil, invalidArgument("open")
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	st := sync.OnceValues(func() (*storage, error) {
		db, err := open()
		if err != nil {
			return nil, err
		}
		q, err := buildQueries(db, schema)
		if err != nil {
			return nil, err
		}
		return &storage{db: db, q: q}, nil
	})
	return newSQLUsersConnectionRepository(locator, st, encryptor, opts)
}

func newSQLUsersConnectionRepository(
	locator provider.Locator,
	st func() (*storage, error),
	encryptor crypto.TextEncryptor,
	opts []Option,
) (*sqlUsersConnectionRepository, error) {
	if locator == nil {
		return nil, invalidArgument("locator")
	}
	if encryptor == nil {
		return nil, invalidArgument("encryptor")
	}
	o := applyOptions(opts)
	return &sqlUsersConnectionRepository{
		locator:   locator,
		encryptor: encryptor,
		locker:    o.locker,
		logger:    o.logger,
		storage:   st,
		signUp:    o.signUp,
	}, nil
}

func (r *sqlUsersConnectionRepository) FindUserIDsWithConnection(ctx context.Context, conn model.Connection) ([]string, error) {
	if conn == nil {
		return nil, invalidArgument("connection")
	}
	st, err := r.storage()
	if err != nil {
		return nil, err
	}

	key := conn.Key()
	userIDs, err := readUserIDs(st.db.WithContext(ctx).Raw(st.q.userIDsByKey, key.ProviderID, key.ProviderUserID))
	if err != nil {
		return nil, err
	}
	if len(userIDs) > 0 {
		return userIDs, nil
	}

	signUp := r.connectionSignUp()
	if signUp == nil {
		return userIDs, nil
	}

	userID, err := signUp.Execute(ctx, conn)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		r.logger.Debug("sign-up declined connection", zap.Stringer("connection", key))
		return userIDs, nil
	}

	repo, err := r.CreateConnectionRepository(userID)
	if err != nil {
		return nil, err
	}
	if err := repo.Add(ctx, conn); err != nil {
		// The signed up user is kept and may be left without connections.
		r.logger.Warn("store connection for signed up user",
			zap.String("user_id", userID),
			zap.Stringer("connection", key),
			zap.Error(err),
		)
		return nil, err
	}
	r.logger.Info("signed up user from connection",
		zap.String("user_id", userID),
		zap.Stringer("connection", key),
	)
	return []string{userID}, nil
}

func (r *sqlUsersConnectionRepository) FindUserIDsConnectedTo(
	ctx context.Context, providerID string, providerUserIDs []string,
) ([]string, error) {
	if providerID == "" {
		return nil, invalidArgument("provider id")
	}
	if len(providerUserIDs) == 0 {
		return []string{}, nil
	}
	st, err := r.storage()
	if err != nil {
		return nil, err
	}
	return readUserIDs(st.db.WithContext(ctx).Raw(st.q.userIDsConnectedTo, providerID, providerUserIDs))
}

func (r *sqlUsersConnectionRepository) CreateConnectionRepository(userID string) (ConnectionRepository, error) {
	if userID == "" {
		return nil, invalidArgument("user id")
	}
	st, err := r.storage()
	if err != nil {
		return nil, err
	}
	return newSQLConnectionRepository(r.locator, st.db, st.q, r.encryptor, r.locker, userID), nil
}

func (r *sqlUsersConnectionRepository) SetConnectionSignUp(signUp ConnectionSignUp) error {
	if signUp == nil {
		return invalidArgument("connection sign-up")
	}
	r.mu.Lock()
	r.signUp = signUp
	r.mu.Unlock()
	return nil
}

func (r *sqlUsersConnectionRepository) connectionSignUp() ConnectionSignUp {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.signUp
}

func readUserIDs(tx *gorm.DB) ([]string, error) {
	rows, err := tx.Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ UsersConnectionRepository = (*sqlUsersConnectionRepository)(nil)
