package models

import "time"

// User represents a registered account
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Not serialized
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
