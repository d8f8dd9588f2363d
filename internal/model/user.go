package model

import "time"

// User is an employee account inside a hotel. Roles reference the static
// catalog in package auth by name and are stored in user_roles.
//
// Fields:
//  Username – globally unique login handle.
//  Email    – globally unique login address.
//  Roles    – catalog role names (e.g. RECEPTION, MANAGER).
//  Active   – inactive users cannot log in.
type User struct {
	ID           uint64    `json:"id"`         // users.id
	HotelID      uint64    `json:"hotel_id"`   // users.hotel_id
	Username     string    `json:"username"`   // users.username
	Email        string    `json:"email"`      // users.email
	PasswordHash string    `json:"-"`          // users.password_hash
	FirstName    string    `json:"first_name"` // users.first_name
	LastName     string    `json:"last_name"`  // users.last_name
	Phone        string    `json:"phone"`      // users.phone
	Active       bool      `json:"active"`     // users.is_active
	Roles        []string  `json:"roles"`      // user_roles.role_name
	CreatedAt    time.Time `json:"created_at"` // users.created_at
	UpdatedAt    time.Time `json:"updated_at"` // users.updated_at
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// RefreshToken models an entry in the refresh_tokens table. Only the
// SHA-256 hash of the token value is stored. AccountType is HOTEL or USER.
type RefreshToken struct {
	ID          uint64     // refresh_tokens.id
	AccountType string     // refresh_tokens.account_type
	AccountID   uint64     // refresh_tokens.account_id
	TokenHash   string     // refresh_tokens.token_hash
	ExpiresAt   time.Time  // refresh_tokens.expires_at
	RevokedAt   *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt   time.Time  // refresh_tokens.created_at
}
