package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User mirrors the users table.
type User struct {
	ID           uint64
	Email        string
	Name         string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}
