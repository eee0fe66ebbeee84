package models

import "time"

// User is a persistent user record, separate from live session identity.
type User struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateUserRequest is the request body for creating a user record.
type CreateUserRequest struct {
	Name string `json:"name" binding:"required"`
	Role string `json:"role,omitempty"`
}
