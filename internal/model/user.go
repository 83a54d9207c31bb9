package model

import (
	"time"

	"bloodcare/internal/lifecycle"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User status values
const (
	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"
)

// User is a registered account. Role and Status are only changed by an admin.
type User struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name       string         `gorm:"type:varchar(255);not null" json:"name"`
	Email      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password   string         `gorm:"type:varchar(255);not null" json:"-"`
	Avatar     string         `gorm:"type:text" json:"avatar"`
	BloodGroup string         `gorm:"type:varchar(3);index" json:"bloodGroup"`
	District   string         `gorm:"type:varchar(100);index" json:"district"`
	Upazila    string         `gorm:"type:varchar(100);index" json:"upazila"`
	Role       lifecycle.Role `gorm:"type:varchar(20);not null;default:'donor';index" json:"role"`
	Status     string         `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

// Blocked reports whether the account may not create donation requests
func (u *User) Blocked() bool {
	return u.Status == UserStatusBlocked
}

// Viewer is the identity this user acts with in lifecycle checks
func (u *User) Viewer() lifecycle.Viewer {
	return lifecycle.Viewer{
		Email:   u.Email,
		Name:    u.Name,
		Role:    u.Role,
		Blocked: u.Blocked(),
	}
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ValidUserStatus reports whether s is a known account status
func ValidUserStatus(s string) bool {
	return s == UserStatusActive || s == UserStatusBlocked
}
