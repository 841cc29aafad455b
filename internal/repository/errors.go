package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"biliticket/connhub/internal/model"
)

var (
	ErrNoSuchConnection    = errors.New("no such connection")
	ErrNotConnected        = errors.New("not connected")
	ErrDuplicateConnection = errors.New("connection already exists")
	ErrInvalidArgument     = errors.New("invalid argument")
)

func noSuchConnection(key model.ConnectionKey) error {
	return fmt.Errorf("%w: %s", ErrNoSuchConnection, key)
}

func notConnected(providerID string) error {
	return fmt.Errorf("%w: provider %q", ErrNotConnected, providerID)
}

func duplicateConnection(key model.ConnectionKey) error {
	return fmt.Errorf("%w: %s", ErrDuplicateConnection, key)
}

func invalidArgument(name string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, name)
}

// isDuplicateKey reports whether err is a unique constraint violation. The
// dialector translation covers handles opened without TranslateError.
func isDuplicateKey(db *gorm.DB, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if t, ok := db.Dialector.(gorm.ErrorTranslator); ok {
		return errors.Is(t.Translate(err), gorm.ErrDuplicatedKey)
	}
	return false
}
