package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is a registered account. Identity and credentials are owned by the
// identity provider; this row carries what the workflow needs: role,
// delivery addresses and language.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	FirstName      string    `gorm:"size:64" json:"first_name,omitempty"`
	LastName       string    `gorm:"size:64" json:"last_name,omitempty"`
	Email          string    `gorm:"size:255" json:"-"`
	Role           Role      `gorm:"size:32;not null;index" json:"role"`
	TelegramChatID *int64    `gorm:"uniqueIndex" json:"-"`
	Language       string    `gorm:"size:8;not null;default:en" json:"-"`
	CompanyID      *uint     `gorm:"index" json:"company_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// BeforeCreate normalizes the username and fills in the default role and
// language before the row is inserted.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	if u.Role == "" {
		u.Role = RoleCitizen
	}
	if u.Language == "" {
		u.Language = "en"
	}
	return
}

// DisplayName is the full name when known, otherwise the username.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}
