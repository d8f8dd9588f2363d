package model

import "time"

// Client is a registered guest of a hotel. Email is unique per hotel when set.
type Client struct {
	ID             uint64    `json:"id"`
	HotelID        uint64    `json:"hotel_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone"`
	DocumentType   string    `json:"document_type,omitempty"`
	DocumentNumber string    `json:"document_number,omitempty"`
	Nationality    string    `json:"nationality,omitempty"`
	Address        string    `json:"address,omitempty"`
	City           string    `json:"city,omitempty"`
	Country        string    `json:"country,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (c Client) FullName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	return c.FirstName + " " + c.LastName
}
