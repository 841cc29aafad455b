package repository

import (
	"fmt"
)

// SchemaConfig names the connection table and its columns.
type SchemaConfig struct {
	Table          string
	UserID         string
	ProviderID     string
	ProviderUserID string
	Rank           string
	DisplayName    string
	ProfileURL     string
	ImageURL       string
	AccessToken    string
	Secret         string
	RefreshToken   string
	ExpireTime     string
}

// DefaultSchema is the classic UserConnection layout.
func DefaultSchema() SchemaConfig {
	return SchemaConfig{
		Table:          "UserConnection",
		UserID:         "userId",
		ProviderID:     "providerId",
		ProviderUserID: "providerUserId",
		Rank:           "rank",
		DisplayName:    "displayName",
		ProfileURL:     "profileUrl",
		ImageURL:       "imageUrl",
		AccessToken:    "accessToken",
		Secret:         "secret",
		RefreshToken:   "refreshToken",
		ExpireTime:     "expireTime",
	}
}

// WithDefaults fills every empty name from DefaultSchema.
func (s SchemaConfig) WithDefaults() SchemaConfig {
	d := DefaultSchema()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&s.Table, d.Table)
	fill(&s.UserID, d.UserID)
	fill(&s.ProviderID, d.ProviderID)
	fill(&s.ProviderUserID, d.ProviderUserID)
	fill(&s.Rank, d.Rank)
	fill(&s.DisplayName, d.DisplayName)
	fill(&s.ProfileURL, d.ProfileURL)
	fill(&s.ImageURL, d.ImageURL)
	fill(&s.AccessToken, d.AccessToken)
	fill(&s.Secret, d.Secret)
	fill(&s.RefreshToken, d.RefreshToken)
	fill(&s.ExpireTime, d.ExpireTime)
	return s
}

func (s SchemaConfig) columns() []string {
	return []string{
		s.UserID, s.ProviderID, s.ProviderUserID, s.Rank,
		s.DisplayName, s.ProfileURL, s.ImageURL,
		s.AccessToken, s.Secret, s.RefreshToken, s.ExpireTime,
	}
}

func (s SchemaConfig) Validate() error {
	if s.Table == "" {
		return invalidArgument("schema table name")
	}
	seen := make(map[string]struct{}, 11)
	for _, c := range s.columns() {
		if c == "" {
			return invalidArgument("schema column name")
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: schema column %q used twice", ErrInvalidArgument, c)
		}
		seen[c] = struct{}{}
	}
	return nil
}
