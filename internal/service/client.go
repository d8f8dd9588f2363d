package service

import (
	"context"
	"strings"

	"github.com/iliyamo/hotel-management/internal/apperr"
	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/model"
)

// ClientService manages the guest register of a hotel.
type ClientService struct {
	store Store
}

func NewClientService(store Store) *ClientService { return &ClientService{store: store} }

// ClientInput is the editable part of a client.
type ClientInput struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	DocumentType   string
	DocumentNumber string
	Nationality    string
	Address        string
	City           string
	Country        string
	Notes          string
}

func (in *ClientInput) normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
}

func (in ClientInput) validate() error {
	var f apperr.Fields
	f.Add(in.LastName == "", "last_name", "last name is required")
	f.Add(in.FirstName == "", "first_name", "first name is required")
	f.Add(in.Phone == "", "phone", "phone is required")
	f.Add(in.Email != "" && !strings.Contains(in.Email, "@"), "email", "email is invalid")
	return f.Err()
}

func (in ClientInput) apply(c *model.Client) {
	c.FirstName = in.FirstName
	c.LastName = in.LastName
	c.Email = in.Email
	c.Phone = in.Phone
	c.DocumentType = in.DocumentType
	c.DocumentNumber = in.DocumentNumber
	c.Nationality = in.Nationality
	c.Address = in.Address
	c.City = in.City
	c.Country = in.Country
	c.Notes = in.Notes
}

// createClient validates and inserts a client inside the caller's transaction.
func createClient(ctx context.Context, r Repos, hotelID uint64, in ClientInput) (*model.Client, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Email != "" {
		exists, err := r.Clients().ExistsByEmail(ctx, hotelID, in.Email, 0)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperr.New(apperr.ErrConflict, "a client with email %s already exists", in.Email)
		}
	}
	ts := now()
	c := &model.Client{HotelID: hotelID, CreatedAt: ts, UpdatedAt: ts}
	in.apply(c)
	if err := r.Clients().Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ClientService) Create(ctx context.Context, p auth.Principal, in ClientInput) (*model.Client, error) {
	if err := p.Require(auth.CreateReservation, auth.UpdateReservation); err != nil {
		return nil, err
	}
	var out *model.Client
	err := s.store.Tx(ctx, func(r Repos) error {
		var err error
		out, err = createClient(ctx, r, p.HotelID, in)
		return err
	})
	return out, err
}

func (s *ClientService) Get(ctx context.Context, p auth.Principal, id uint64) (*model.Client, error) {
	if err := p.Require(auth.ViewReservations); err != nil {
		return nil, err
	}
	return s.store.Clients().GetByID(ctx, p.HotelID, id)
}

// List returns the hotel's clients; search matches name, email or phone.
func (s *ClientService) List(ctx context.Context, p auth.Principal, search string) ([]model.Client, error) {
	if err := p.Require(auth.ViewReservations); err != nil {
		return nil, err
	}
	return s.store.Clients().List(ctx, p.HotelID, strings.TrimSpace(search))
}

func (s *ClientService) Update(ctx context.Context, p auth.Principal, id uint64, in ClientInput) (*model.Client, error) {
	if err := p.Require(auth.UpdateReservation); err != nil {
		return nil, err
	}
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	var out *model.Client
	err := s.store.Tx(ctx, func(r Repos) error {
		c, err := r.Clients().GetByID(ctx, p.HotelID, id)
		if err != nil {
			return err
		}
		if in.Email != "" && in.Email != c.Email {
			exists, err := r.Clients().ExistsByEmail(ctx, p.HotelID, in.Email, c.ID)
			if err != nil {
				return err
			}
			if exists {
				return apperr.New(apperr.ErrConflict, "a client with email %s already exists", in.Email)
			}
		}
		in.apply(c)
		c.UpdatedAt = now()
		out = c
		return r.Clients().Update(ctx, c)
	})
	return out, err
}

// Delete removes a client that has no reservation history.
func (s *ClientService) Delete(ctx context.Context, p auth.Principal, id uint64) error {
	if err := p.Require(auth.CancelReservation); err != nil {
		return err
	}
	return s.store.Tx(ctx, func(r Repos) error {
		if _, err := r.Clients().GetByID(ctx, p.HotelID, id); err != nil {
			return err
		}
		n, err := r.Reservations().CountByClient(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.New(apperr.ErrConflict, "client has %d reservation(s) and cannot be deleted", n)
		}
		return r.Clients().Delete(ctx, p.HotelID, id)
	})
}
