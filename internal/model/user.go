package model

import "time"

// Roles carried in the JWT "role" claim.  ADMIN may manage the catalog
// and list every booking; USER may only book and see their own.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is an authenticated account.  Only the bcrypt hash of the
// password is ever stored.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email (unique)
	PasswordHash string    // users.password_hash
	Role         string    // users.role (USER or ADMIN)
	CreatedAt    time.Time // users.created_at
}
