package models

import "time"

// Roles a user can hold.
const (
	RoleFarmer     = "farmer"
	RoleResearcher = "researcher"
	RoleAdmin      = "admin"
)

type User struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Email         string    `json:"email" gorm:"unique;not null"`
	FullName      string    `json:"full_name"`
	Address       string    `json:"address"`
	Password      string    `json:"-"` // bcrypt hash
	Role          string    `json:"role" gorm:"default:farmer"`
	EmailVerified bool      `json:"email_verified" gorm:"default:false"`
	OTP           string    `json:"-" gorm:"column:otp"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ValidRole reports whether role is one a user may hold.
func ValidRole(role string) bool {
	switch role {
	case RoleFarmer, RoleResearcher, RoleAdmin:
		return true
	}
	return false
}

// UserHistory records account activity such as logins.
type UserHistory struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"-" gorm:"index;not null"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	Details     string    `json:"details"` // JSON document
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}
