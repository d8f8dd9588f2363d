package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-management/internal/apperr"
	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/model"
)

// RoomService manages the room inventory of a hotel.
type RoomService struct {
	store Store
}

func NewRoomService(store Store) *RoomService { return &RoomService{store: store} }

// RoomInput is the editable part of a room.
type RoomInput struct {
	Number          string
	Type            model.RoomType
	PricePerNight   decimal.Decimal
	Capacity        int
	Floor           int
	Description     string
	Wifi            bool
	AirConditioning bool
	TV              bool
	Minibar         bool
	Safe            bool
	Balcony         bool
	SeaView         bool
}

func (in RoomInput) validate() error {
	var f apperr.Fields
	f.Add(strings.TrimSpace(in.Number) == "", "number", "room number is required")
	f.Add(!in.Type.Valid(), "type", "unknown room type")
	f.Add(!in.PricePerNight.IsPositive(), "price_per_night", "price per night must be greater than zero")
	f.Add(!fitsScale(in.PricePerNight, moneyPlaces), "price_per_night", "price per night allows 2 decimals")
	f.Add(in.Capacity < 1, "capacity", "capacity must be at least 1")
	return f.Err()
}

func (in RoomInput) apply(r *model.Room) {
	r.Number = strings.TrimSpace(in.Number)
	r.Type = in.Type
	r.PricePerNight = in.PricePerNight
	r.Capacity = in.Capacity
	r.Floor = in.Floor
	r.Description = in.Description
	r.Wifi = in.Wifi
	r.AirConditioning = in.AirConditioning
	r.TV = in.TV
	r.Minibar = in.Minibar
	r.Safe = in.Safe
	r.Balcony = in.Balcony
	r.SeaView = in.SeaView
}

func (s *RoomService) Create(ctx context.Context, p auth.Principal, in RoomInput) (*model.Room, error) {
	if err := p.Require(auth.UpdateSettings); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	var out *model.Room
	err := s.store.Tx(ctx, func(r Repos) error {
		exists, err := r.Rooms().ExistsByNumber(ctx, p.HotelID, strings.TrimSpace(in.Number), 0)
		if err != nil {
			return err
		}
		if exists {
			return apperr.New(apperr.ErrConflict, "room %s already exists", in.Number)
		}
		ts := now()
		room := &model.Room{HotelID: p.HotelID, Status: model.RoomAvailable, CreatedAt: ts, UpdatedAt: ts}
		in.apply(room)
		if err := r.Rooms().Create(ctx, room); err != nil {
			return err
		}
		out = room
		return nil
	})
	return out, err
}

func (s *RoomService) Get(ctx context.Context, p auth.Principal, id uint64) (*model.Room, error) {
	if err := p.Require(auth.ViewReservations, auth.ViewSettings); err != nil {
		return nil, err
	}
	return s.store.Rooms().GetByID(ctx, p.HotelID, id)
}

func (s *RoomService) List(ctx context.Context, p auth.Principal, f RoomFilter) ([]model.Room, error) {
	if err := p.Require(auth.ViewReservations, auth.ViewSettings); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Invalid("status", "unknown room status")
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, apperr.Invalid("type", "unknown room type")
	}
	return s.store.Rooms().List(ctx, p.HotelID, f)
}

func (s *RoomService) Update(ctx context.Context, p auth.Principal, id uint64, in RoomInput) (*model.Room, error) {
	if err := p.Require(auth.UpdateSettings); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	var out *model.Room
	err := s.store.Tx(ctx, func(r Repos) error {
		room, err := r.Rooms().GetForUpdate(ctx, p.HotelID, id)
		if err != nil {
			return err
		}
		number := strings.TrimSpace(in.Number)
		if number != room.Number {
			exists, err := r.Rooms().ExistsByNumber(ctx, p.HotelID, number, room.ID)
			if err != nil {
				return err
			}
			if exists {
				return apperr.New(apperr.ErrConflict, "room %s already exists", number)
			}
		}
		in.apply(room)
		room.UpdatedAt = now()
		out = room
		return r.Rooms().Update(ctx, room)
	})
	return out, err
}

// SetStatus changes the housekeeping status, e.g. CLEANING -> AVAILABLE.
func (s *RoomService) SetStatus(ctx context.Context, p auth.Principal, id uint64, status model.RoomStatus) (*model.Room, error) {
	if err := p.Require(auth.UpdateReservation, auth.UpdateSettings); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperr.Invalid("status", "unknown room status")
	}
	var out *model.Room
	err := s.store.Tx(ctx, func(r Repos) error {
		room, err := r.Rooms().GetForUpdate(ctx, p.HotelID, id)
		if err != nil {
			return err
		}
		room.Status = status
		room.UpdatedAt = now()
		out = room
		return r.Rooms().Update(ctx, room)
	})
	return out, err
}

// Delete removes a room that has no pending, confirmed or in-progress stay.
func (s *RoomService) Delete(ctx context.Context, p auth.Principal, id uint64) error {
	if err := p.Require(auth.UpdateSettings); err != nil {
		return err
	}
	return s.store.Tx(ctx, func(r Repos) error {
		if _, err := r.Rooms().GetForUpdate(ctx, p.HotelID, id); err != nil {
			return err
		}
		n, err := r.Reservations().CountActiveByRoom(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.New(apperr.ErrConflict, "room has %d active reservation(s)", n)
		}
		return r.Rooms().Delete(ctx, p.HotelID, id)
	})
}

// Available lists bookable rooms with no blocking reservation meeting
// [arrival, departure], optionally filtered by type and minimum capacity.
func (s *RoomService) Available(ctx context.Context, p auth.Principal, arrival, departure time.Time, f RoomFilter) ([]model.Room, error) {
	if err := p.Require(auth.ViewReservations); err != nil {
		return nil, err
	}
	arrival, departure = dateOnly(arrival), dateOnly(departure)
	if !arrival.Before(departure) {
		return nil, apperr.New(apperr.ErrInvalidDateRange, "arrival must be before departure")
	}
	f.Status = ""
	rooms, err := s.store.Rooms().List(ctx, p.HotelID, f)
	if err != nil {
		return nil, err
	}
	busyIDs, err := s.store.Reservations().BusyRoomIDs(ctx, p.HotelID, arrival, departure)
	if err != nil {
		return nil, err
	}
	busy := make(map[uint64]bool, len(busyIDs))
	for _, id := range busyIDs {
		busy[id] = true
	}
	out := make([]model.Room, 0, len(rooms))
	for _, room := range rooms {
		if room.Status.Bookable() && !busy[room.ID] {
			out = append(out, room)
		}
	}
	return out, nil
}
