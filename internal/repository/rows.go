package repository

import (
	"database/sql"
	"fmt"

	"biliticket/connhub/internal/model"
	"biliticket/connhub/internal/provider"
	"biliticket/connhub/pkg/crypto"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// rowMapper turns stored rows into connections: decrypt the token columns,
// then hand the data to the factory registered for the row's provider.
type rowMapper struct {
	locator   provider.Locator
	encryptor crypto.TextEncryptor
}

func (m rowMapper) mapRow(row rowScanner) (model.Connection, error) {
	var (
		data                              model.ConnectionData
		displayName, profileURL, imageURL sql.NullString
		accessToken, secret, refreshToken sql.NullString
		expireTime                        sql.NullInt64
	)
	if err := row.Scan(
		&data.ProviderID, &data.ProviderUserID, &data.Rank,
		&displayName, &profileURL, &imageURL,
		&accessToken, &secret, &refreshToken, &expireTime,
	); err != nil {
		return nil, err
	}

	data.DisplayName = displayName.String
	data.ProfileURL = profileURL.String
	data.ImageURL = imageURL.String
	data.ExpireTime = expireTime.Int64

	var err error
	if data.AccessToken, err = m.decrypt(accessToken); err != nil {
		return nil, fmt.Errorf("decrypt access token of %s: %w", data.Key(), err)
	}
	if data.Secret, err = m.decrypt(secret); err != nil {
		return nil, fmt.Errorf("decrypt secret of %s: %w", data.Key(), err)
	}
	if data.RefreshToken, err = m.decrypt(refreshToken); err != nil {
		return nil, fmt.Errorf("decrypt refresh token of %s: %w", data.Key(), err)
	}

	factory, err := m.locator.Factory(data.ProviderID)
	if err != nil {
		return nil, err
	}
	return factory.CreateConnection(data), nil
}

func (m rowMapper) decrypt(v sql.NullString) (string, error) {
	if !v.Valid || v.String == "" {
		return "", nil
	}
	return m.encryptor.Decrypt(v.String)
}

func (m rowMapper) encrypt(plaintext string) (sql.NullString, error) {
	if plaintext == "" {
		return sql.NullString{}, nil
	}
	ciphertext, err := m.encryptor.Encrypt(plaintext)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: ciphertext, Valid: true}, nil
}

// storedData is ConnectionData in column form, tokens already encrypted.
type storedData struct {
	displayName, profileURL, imageURL sql.NullString
	accessToken, secret, refreshToken sql.NullString
	expireTime                        sql.NullInt64
}

func (m rowMapper) toStored(data model.ConnectionData) (storedData, error) {
	s := storedData{
		displayName: nullString(data.DisplayName),
		profileURL:  nullString(data.ProfileURL),
		imageURL:    nullString(data.ImageURL),
		expireTime:  sql.NullInt64{Int64: data.ExpireTime, Valid: data.ExpireTime != 0},
	}
	var err error
	if s.accessToken, err = m.encrypt(data.AccessToken); err != nil {
		return storedData{}, fmt.Errorf("encrypt access token: %w", err)
	}
	if s.secret, err = m.encrypt(data.Secret); err != nil {
		return storedData{}, fmt.Errorf("encrypt secret: %w", err)
	}
	if s.refreshToken, err = m.encrypt(data.RefreshToken); err != nil {
		return storedData{}, fmt.Errorf("encrypt refresh token: %w", err)
	}
	return s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
