package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleStudent = "student"
	RoleMentor  = "mentor"
	RoleAdmin   = "admin"
)

// User rows are never hard-deleted; IsActive false is the deactivated
// state so pathway ownership and progress history stay referentially
// intact.
type User struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email               string     `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password            string     `gorm:"not null;column:password" json:"-"`
	FullName            string     `gorm:"not null;column:full_name" json:"full_name"`
	Role                string     `gorm:"not null;default:'student';column:role" json:"role"`
	IsActive            bool       `gorm:"not null;default:true;column:is_active" json:"is_active"`
	FailedLoginAttempts int        `gorm:"not null;default:0;column:failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `gorm:"column:locked_until" json:"-"`
	LastLoginAt         *time.Time `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	CreatedAt           time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string { return "user" }

func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
