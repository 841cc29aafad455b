package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStatus int

const (
	UserStatusActive   UserStatus = 1
	UserStatusDisabled UserStatus = 2
	UserStatusBanned   UserStatus = 3
)

// User is the local account a connection belongs to. Only the sign-up flow
// creates rows here; connection rows reference the id as an opaque string.
type User struct {
	ID          string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Status      UserStatus     `gorm:"type:smallint;not null;default:1" json:"status"`
	DisplayName string         `gorm:"type:varchar(255)" json:"display_name,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
