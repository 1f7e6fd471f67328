package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID        int64     `json:"id" db:"id" example:"1"`                                   // Unique identifier for the user
	Username  string    `json:"username" db:"username" example:"rahul"`                   // Display name, unique
	Email     string    `json:"email" db:"email" example:"rahul@example.com"`             // User's email address, unique
	Password  string    `json:"-" db:"password"`                                          // Bcrypt hash (excluded from JSON)
	Role      RoleType  `json:"role" db:"role" example:"user"`                            // user, superuser or supremeuser
	CreatedAt time.Time `json:"createdAt" db:"created_at" example:"2024-01-01T10:00:00Z"` // Timestamp when the user was created
}
