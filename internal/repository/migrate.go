package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureSchema creates the connection table and its indexes when missing.
// It never alters an existing table.
func EnsureSchema(ctx context.Context, db *gorm.DB, s SchemaConfig) error {
	if err := s.Validate(); err != nil {
		return err
	}
	tx := db.WithContext(ctx)
	table := clause.Table{Name: s.Table}
	col := func(name string) clause.Column { return clause.Column{Name: name} }

	if err := tx.Exec(`CREATE TABLE IF NOT EXISTS ? (
	? VARCHAR(255) NOT NULL,
	? VARCHAR(255) NOT NULL,
	? VARCHAR(255) NOT NULL,
	? INT NOT NULL,
	? VARCHAR(255),
	? VARCHAR(512),
	? VARCHAR(512),
	? TEXT,
	? TEXT,
	? TEXT,
	? BIGINT,
	PRIMARY KEY (?, ?, ?)
)`,
		table,
		col(s.UserID), col(s.ProviderID), col(s.ProviderUserID), col(s.Rank),
		col(s.DisplayName), col(s.ProfileURL), col(s.ImageURL),
		col(s.AccessToken), col(s.Secret), col(s.RefreshToken), col(s.ExpireTime),
		col(s.UserID), col(s.ProviderID), col(s.ProviderUserID),
	).Error; err != nil {
		return fmt.Errorf("create table %s: %w", s.Table, err)
	}

	indexes := []struct {
		name    string
		unique  bool
		columns []string
	}{
		{name: s.Table + "Rank", unique: true, columns: []string{s.UserID, s.ProviderID, s.Rank}},
		{name: s.Table + "ProviderUser", columns: []string{s.ProviderID, s.ProviderUserID}},
	}
	for _, idx := range indexes {
		if tx.Migrator().HasIndex(s.Table, idx.name) {
			continue
		}
		stmt := "CREATE INDEX ? ON ? (" + placeholders(len(idx.columns)) + ")"
		if idx.unique {
			stmt = "CREATE UNIQUE " + stmt[len("CREATE "):]
		}
		vars := []interface{}{col(idx.name), table}
		for _, c := range idx.columns {
			vars = append(vars, col(c))
		}
		if err := tx.Exec(stmt, vars...).Error; err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
