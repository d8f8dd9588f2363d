package model

import "time"

// Hotel is the tenant root. Every other business row carries its id in a
// hotel_id column. The hotel account also logs in as the owner and bypasses
// permission checks.
//
// Fields:
//  Email           – globally unique login.
//  Name            – globally unique display name.
//  Active          – soft-disable flag; inactive hotels cannot log in.
//  SubscriptionEnd – end of the paid subscription period.
type Hotel struct {
	ID              uint64    `json:"id"`               // hotels.id
	Name            string    `json:"name"`             // hotels.name
	Email           string    `json:"email"`            // hotels.email
	PasswordHash    string    `json:"-"`                // hotels.password_hash
	Phone           string    `json:"phone"`            // hotels.phone
	Address         string    `json:"address"`          // hotels.address
	City            string    `json:"city"`             // hotels.city
	Country         string    `json:"country"`          // hotels.country
	TaxNumber       string    `json:"tax_number"`       // hotels.tax_number
	Active          bool      `json:"active"`           // hotels.is_active
	SubscriptionEnd time.Time `json:"subscription_end"` // hotels.subscription_end
	CreatedAt       time.Time `json:"created_at"`       // hotels.created_at
	UpdatedAt       time.Time `json:"updated_at"`       // hotels.updated_at
}

// SubscriptionActive reports whether the subscription covers at.
func (h Hotel) SubscriptionActive(at time.Time) bool {
	return !at.After(h.SubscriptionEnd)
}
