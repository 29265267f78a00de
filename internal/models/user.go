package models

import "time"

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBlocked   UserStatus = "blocked"
)

type User struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    []byte
	Status          UserStatus
	Remark          *string
	EmailVerifiedAt *time.Time
	DeletedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type EmailVerification struct {
	ID        string
	UserID    string
	Token     string
	ExpiredAt time.Time
	CreatedAt time.Time
}

type PasswordResetToken struct {
	ID        string
	UserID    string
	Token     string
	CreatedAt time.Time
}
