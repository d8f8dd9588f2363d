package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type RoomType string

const (
	RoomSimple RoomType = "SIMPLE"
	RoomDouble RoomType = "DOUBLE"
	RoomTwin   RoomType = "TWIN"
	RoomTriple RoomType = "TRIPLE"
	RoomSuite  RoomType = "SUITE"
	RoomFamily RoomType = "FAMILY"
	RoomDeluxe RoomType = "DELUXE"
)

func (t RoomType) Valid() bool {
	switch t {
	case RoomSimple, RoomDouble, RoomTwin, RoomTriple, RoomSuite, RoomFamily, RoomDeluxe:
		return true
	}
	return false
}

type RoomStatus string

const (
	RoomAvailable    RoomStatus = "AVAILABLE"
	RoomOccupied     RoomStatus = "OCCUPIED"
	RoomReserved     RoomStatus = "RESERVED"
	RoomCleaning     RoomStatus = "CLEANING"
	RoomMaintenance  RoomStatus = "MAINTENANCE"
	RoomOutOfService RoomStatus = "OUT_OF_SERVICE"
)

func (s RoomStatus) Valid() bool {
	switch s {
	case RoomAvailable, RoomOccupied, RoomReserved, RoomCleaning, RoomMaintenance, RoomOutOfService:
		return true
	}
	return false
}

// Bookable reports whether the room can take reservations at all.
func (s RoomStatus) Bookable() bool {
	return s != RoomMaintenance && s != RoomOutOfService
}

// Room is a bookable unit; Number is unique per hotel.
type Room struct {
	ID              uint64          `json:"id"`
	HotelID         uint64          `json:"hotel_id"`
	Number          string          `json:"number"`
	Type            RoomType        `json:"type"`
	PricePerNight   decimal.Decimal `json:"price_per_night"`
	Capacity        int             `json:"capacity"`
	Floor           int             `json:"floor"`
	Description     string          `json:"description,omitempty"`
	Status          RoomStatus      `json:"status"`
	Wifi            bool            `json:"wifi"`
	AirConditioning bool            `json:"air_conditioning"`
	TV              bool            `json:"tv"`
	Minibar         bool            `json:"minibar"`
	Safe            bool            `json:"safe"`
	Balcony         bool            `json:"balcony"`
	SeaView         bool            `json:"sea_view"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
