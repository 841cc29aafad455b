package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// queries holds the SQL for one schema on one dialect. It is built once and
// shared read-only by every repository of a directory.
type queries struct {
	schema SchemaConfig

	findAll            string
	findByProvider     string
	getByKey           string
	findPrimary        string
	nextRank           string
	rankGuard          string
	insert             string
	update             string
	deleteByProvider   string
	deleteByKey        string
	userIDsByKey       string
	userIDsConnectedTo string
}

func buildQueries(db *gorm.DB, s SchemaConfig) (*queries, error) {
	if db == nil {
		return nil, invalidArgument("db")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	q := db.Statement.Quote
	var (
		table          = q(s.Table)
		userID         = q(s.UserID)
		providerID     = q(s.ProviderID)
		providerUserID = q(s.ProviderUserID)
		rank           = q(s.Rank)
	)

	selectFrom := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoteAll(db, selectColumns(s)), ", "), table)
	insertCols := quoteAll(db, s.columns())

	qs := &queries{
		schema:         s,
		findAll:        fmt.Sprintf("%s WHERE %s = ? ORDER BY %s, %s", selectFrom, userID, providerID, rank),
		findByProvider: fmt.Sprintf("%s WHERE %s = ? AND %s = ? ORDER BY %s", selectFrom, userID, providerID, rank),
		getByKey: fmt.Sprintf("%s WHERE %s = ? AND %s = ? AND %s = ?",
			selectFrom, userID, providerID, providerUserID),
		findPrimary: fmt.Sprintf("%s WHERE %s = ? AND %s = ? ORDER BY %s LIMIT 1",
			selectFrom, userID, providerID, rank),
		nextRank: fmt.Sprintf("SELECT COALESCE(MAX(%s) + 1, 1) FROM %s WHERE %s = ? AND %s = ?",
			rank, table, userID, providerID),
		insert: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(insertCols, ", "), placeholders(len(insertCols))),
		update: fmt.Sprintf("UPDATE %s SET %s = ?, %s = ?, %s = ?, %s = ?, %s = ?, %s = ?, %s = ? WHERE %s = ? AND %s = ? AND %s = ?",
			table,
			q(s.DisplayName), q(s.ProfileURL), q(s.ImageURL),
			q(s.AccessToken), q(s.Secret), q(s.RefreshToken), q(s.ExpireTime),
			userID, providerID, providerUserID),
		deleteByProvider: fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND %s = ?", table, userID, providerID),
		deleteByKey: fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND %s = ? AND %s = ?",
			table, userID, providerID, providerUserID),
		userIDsByKey: fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? AND %s = ? ORDER BY %s",
			userID, table, providerID, providerUserID, userID),
		userIDsConnectedTo: fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s = ? AND %s IN ? ORDER BY %s",
			userID, table, providerID, providerUserID, userID),
	}

	// SQLite serialises writers on its own. PostgreSQL cannot lock an empty
	// range, so rank assignment takes a transaction scoped advisory lock.
	switch db.Dialector.Name() {
	case "postgres":
		qs.rankGuard = "SELECT pg_advisory_xact_lock(hashtext(?))"
	case "mysql":
		qs.nextRank += " FOR UPDATE"
	}
	return qs, nil
}

// selectColumns is the scan order used by scanConnectionData.
func selectColumns(s SchemaConfig) []string {
	return []string{
		s.ProviderID, s.ProviderUserID, s.Rank,
		s.DisplayName, s.ProfileURL, s.ImageURL,
		s.AccessToken, s.Secret, s.RefreshToken, s.ExpireTime,
	}
}

func (q *queries) selectClause() clause.Select {
	names := selectColumns(q.schema)
	cols := make([]clause.Column, len(names))
	for i, n := range names {
		cols[i] = clause.Column{Name: n}
	}
	return clause.Select{Columns: cols}
}

func (q *queries) column(name string) clause.Column {
	return clause.Column{Name: name}
}

func quoteAll(db *gorm.DB, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = db.Statement.Quote(n)
	}
	return out
}
