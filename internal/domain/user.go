package domain

import "time"

// User roles (closed set)
const (
	RoleUser  = "user"  // Regular user
	RoleAdmin = "admin" // Administrator
)

// User Model
type User struct {
	ID           uint          `gorm:"primaryKey" json:"id"`                                 // Primary key
	Name         string        `gorm:"size:255;not null" json:"name"`                        // Display name
	Email        string        `gorm:"size:255;not null;unique" json:"email"`                // Unique email, used as login
	Password     string        `gorm:"not null" json:"-"`                                    // Hashed password, never serialized
	Role         string        `gorm:"type:enum('user','admin');default:'user'" json:"role"` // Role: user or admin
	CreatedAt    time.Time     `json:"created_at"`                                           // Timestamp of creation
	UpdatedAt    time.Time     `json:"updated_at"`                                           // Timestamp of last update
	Transactions []Transaction `gorm:"constraint:OnDelete:CASCADE;" json:"-"`                // One-to-many relationship, cascade delete
}

// ValidRole checks if the role is one of the closed user/admin set
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin // Only the two known roles are accepted
}
