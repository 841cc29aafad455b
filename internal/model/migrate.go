package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for the models owned by this package.
// The connection table has configurable names and is created by
// repository.EnsureSchema instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{})
}
