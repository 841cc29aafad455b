package repository

import (
	"context"
	"database/sql"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"biliticket/connhub/internal/model"
	"biliticket/connhub/internal/provider"
	"biliticket/connhub/pkg/crypto"
)

type sqlConnectionRepository struct {
	db      *gorm.DB
	q       *queries
	mapper  rowMapper
	locator provider.Locator
	locker  RankLocker
	userID  string
}

// NewConnectionRepository builds a repository for userID. Repositories handed
// out by a UsersConnectionRepository share its statements; this constructor
// prepares its own.
func NewConnectionRepository(
	locator provider.Locator,
	db *gorm.DB,
	schema SchemaConfig,
	encryptor crypto.TextEncryptor,
	userID string,
	opts ...Option,
) (ConnectionRepository, error) {
	if locator == nil {
		return nil, invalidArgument("locator")
	}
	if encryptor == nil {
		return nil, invalidArgument("encryptor")
	}
	if userID == "" {
		return nil, invalidArgument("user id")
	}
	q, err := buildQueries(db, schema)
	if err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	return newSQLConnectionRepository(locator, db, q, encryptor, o.locker, userID), nil
}

func newSQLConnectionRepository(
	locator provider.Locator,
	db *gorm.DB,
	q *queries,
	encryptor crypto.TextEncryptor,
	locker RankLocker,
	userID string,
) *sqlConnectionRepository {
	return &sqlConnectionRepository{
		db:      db,
		q:       q,
		mapper:  rowMapper{locator: locator, encryptor: encryptor},
		locator: locator,
		locker:  locker,
		userID:  userID,
	}
}

func (r *sqlConnectionRepository) UserID() string { return r.userID }

func (r *sqlConnectionRepository) FindAll(ctx context.Context) (map[string][]model.Connection, error) {
	conns, err := r.query(ctx, r.q.findAll, r.userID)
	if err != nil {
		return nil, err
	}

	result := make(map[string][]model.Connection)
	for _, id := range r.locator.RegisteredProviderIDs() {
		result[id] = []model.Connection{}
	}
	for _, c := range conns {
		id := c.Key().ProviderID
		result[id] = append(result[id], c)
	}
	return result, nil
}

func (r *sqlConnectionRepository) FindByProvider(ctx context.Context, providerID string) ([]model.Connection, error) {
	if providerID == "" {
		return nil, invalidArgument("provider id")
	}
	return r.query(ctx, r.q.findByProvider, r.userID, providerID)
}

func (r *sqlConnectionRepository) FindByAPIType(ctx context.Context, apiType provider.APIType) ([]model.Connection, error) {
	providerID, err := r.providerID(apiType)
	if err != nil {
		return nil, err
	}
	return r.FindByProvider(ctx, providerID)
}

func (r *sqlConnectionRepository) FindByProviderAndAccounts(
	ctx context.Context, accounts map[string][]string,
) (map[string][]model.Connection, error) {
	if len(accounts) == 0 {
		return nil, invalidArgument("provider accounts")
	}

	providerIDs := make([]string, 0, len(accounts))
	for id := range accounts {
		if id == "" {
			return nil, invalidArgument("provider id")
		}
		providerIDs = append(providerIDs, id)
	}
	sort.Strings(providerIDs)

	s := r.q.schema
	result := make(map[string][]model.Connection, len(accounts))
	groups := make([]clause.Expression, 0, len(accounts))
	for _, id := range providerIDs {
		userIDs := accounts[id]
		result[id] = make([]model.Connection, len(userIDs))

		values := make([]interface{}, len(userIDs))
		for i, v := range userIDs {
			values[i] = v
		}
		groups = append(groups, clause.And(
			clause.Eq{Column: r.q.column(s.ProviderID), Value: id},
			clause.IN{Column: r.q.column(s.ProviderUserID), Values: values},
		))
	}

	rows, err := r.db.WithContext(ctx).
		Table(s.Table).
		Clauses(r.q.selectClause()).
		Where(clause.Eq{Column: r.q.column(s.UserID), Value: r.userID}).
		Where(anyOf(groups)).
		Order(clause.OrderByColumn{Column: r.q.column(s.ProviderID)}).
		Order(clause.OrderByColumn{Column: r.q.column(s.Rank)}).
		Rows()
	if err != nil {
		return nil, err
	}
	conns, err := r.collect(rows)
	if err != nil {
		return nil, err
	}

	for _, c := range conns {
		key := c.Key()
		for i, want := range accounts[key.ProviderID] {
			if want == key.ProviderUserID {
				result[key.ProviderID][i] = c
			}
		}
	}
	return result, nil
}

func (r *sqlConnectionRepository) GetByKey(ctx context.Context, key model.ConnectionKey) (model.Connection, error) {
	if key.ProviderID == "" || key.ProviderUserID == "" {
		return nil, invalidArgument("connection key")
	}
	c, err := r.queryOne(ctx, r.q.getByKey, r.userID, key.ProviderID, key.ProviderUserID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, noSuchConnection(key)
	}
	return c, nil
}

func (r *sqlConnectionRepository) GetByAPITypeAndAccount(
	ctx context.Context, apiType provider.APIType, providerUserID string,
) (model.Connection, error) {
	providerID, err := r.providerID(apiType)
	if err != nil {
		return nil, err
	}
	return r.GetByKey(ctx, model.ConnectionKey{ProviderID: providerID, ProviderUserID: providerUserID})
}

func (r *sqlConnectionRepository) GetPrimary(ctx context.Context, apiType provider.APIType) (model.Connection, error) {
	providerID, err := r.providerID(apiType)
	if err != nil {
		return nil, err
	}
	return r.GetPrimaryByProvider(ctx, providerID)
}

func (r *sqlConnectionRepository) GetPrimaryByProvider(ctx context.Context, providerID string) (model.Connection, error) {
	if providerID == "" {
		return nil, invalidArgument("provider id")
	}
	c, err := r.queryOne(ctx, r.q.findPrimary, r.userID, providerID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, notConnected(providerID)
	}
	return c, nil
}

func (r *sqlConnectionRepository) FindPrimary(ctx context.Context, apiType provider.APIType) (model.Connection, error) {
	providerID, err := r.providerID(apiType)
	if err != nil {
		return nil, err
	}
	return r.queryOne(ctx, r.q.findPrimary, r.userID, providerID)
}

func (r *sqlConnectionRepository) Add(ctx context.Context, conn model.Connection) error {
	if conn == nil {
		return invalidArgument("connection")
	}
	data := conn.CreateData()
	key := data.Key()
	if key.ProviderID == "" || key.ProviderUserID == "" {
		return invalidArgument("connection key")
	}
	stored, err := r.mapper.toStored(data)
	if err != nil {
		return err
	}

	lockKey := rankLockKey(r.userID, key.ProviderID)
	unlock, err := r.locker.Lock(ctx, lockKey)
	if err != nil {
		return err
	}
	defer unlock()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.q.rankGuard != "" {
			if err := tx.Exec(r.q.rankGuard, lockKey).Error; err != nil {
				return err
			}
		}

		var rank int
		if err := tx.Raw(r.q.nextRank, r.userID, key.ProviderID).Scan(&rank).Error; err != nil {
			return err
		}

		return tx.Exec(r.q.insert,
			r.userID, key.ProviderID, key.ProviderUserID, rank,
			stored.displayName, stored.profileURL, stored.imageURL,
			stored.accessToken, stored.secret, stored.refreshToken,
			stored.expireTime,
		).Error
	})
	if isDuplicateKey(r.db, err) {
		return duplicateConnection(key)
	}
	return err
}

func (r *sqlConnectionRepository) Update(ctx context.Context, conn model.Connection) error {
	if conn == nil {
		return invalidArgument("connection")
	}
	data := conn.CreateData()
	if data.ProviderID == "" || data.ProviderUserID == "" {
		return invalidArgument("connection key")
	}
	stored, err := r.mapper.toStored(data)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Exec(r.q.update,
			stored.displayName, stored.profileURL, stored.imageURL,
			stored.accessToken, stored.secret, stored.refreshToken,
			stored.expireTime,
			r.userID, data.ProviderID, data.ProviderUserID,
		).Error
	})
}

func (r *sqlConnectionRepository) RemoveByProvider(ctx context.Context, providerID string) error {
	if providerID == "" {
		return invalidArgument("provider id")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Exec(r.q.deleteByProvider, r.userID, providerID).Error
	})
}

func (r *sqlConnectionRepository) RemoveByKey(ctx context.Context, key model.ConnectionKey) error {
	if key.ProviderID == "" || key.ProviderUserID == "" {
		return invalidArgument("connection key")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Exec(r.q.deleteByKey, r.userID, key.ProviderID, key.ProviderUserID).Error
	})
}

func (r *sqlConnectionRepository) providerID(apiType provider.APIType) (string, error) {
	if apiType == "" {
		return "", invalidArgument("api type")
	}
	f, err := r.locator.FactoryForAPI(apiType)
	if err != nil {
		return "", err
	}
	return f.ProviderID(), nil
}

func (r *sqlConnectionRepository) query(ctx context.Context, query string, args ...interface{}) ([]model.Connection, error) {
	rows, err := r.db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// queryOne returns (nil, nil) when the query matches nothing.
func (r *sqlConnectionRepository) queryOne(ctx context.Context, query string, args ...interface{}) (model.Connection, error) {
	conns, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(conns) == 0 {
		return nil, nil
	}
	return conns[0], nil
}

func (r *sqlConnectionRepository) collect(rows *sql.Rows) ([]model.Connection, error) {
	defer rows.Close()

	conns := []model.Connection{}
	for rows.Next() {
		c, err := r.mapper.mapRow(rows)
		if err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return conns, nil
}

// anyOf ORs predicate groups. A lone group is returned as is: gorm joins a
// single-element OR condition to the preceding WHERE with OR.
func anyOf(groups []clause.Expression) clause.Expression {
	if len(groups) == 1 {
		return groups[0]
	}
	return clause.Or(groups...)
}

var _ ConnectionRepository = (*sqlConnectionRepository)(nil)
