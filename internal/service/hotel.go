package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/hotel-management/internal/apperr"
	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/logger"
	"github.com/iliyamo/hotel-management/internal/model"
	"github.com/iliyamo/hotel-management/internal/utils"
)

// HotelService manages tenant accounts.
type HotelService struct {
	store      Store
	bcryptCost int
}

func NewHotelService(store Store, bcryptCost int) *HotelService {
	return &HotelService{store: store, bcryptCost: bcryptCost}
}

// RegisterHotelInput is the public sign-up form.
type RegisterHotelInput struct {
	Name      string
	Email     string
	Password  string
	Phone     string
	Address   string
	City      string
	Country   string
	TaxNumber string
}

// Register creates an active hotel with a one-year subscription.
func (s *HotelService) Register(ctx context.Context, in RegisterHotelInput) (*model.Hotel, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	var f apperr.Fields
	f.Add(in.Name == "", "name", "name is required")
	f.Add(in.Email == "" || !strings.Contains(in.Email, "@"), "email", "a valid email is required")
	f.Add(!utils.PasswordLongEnough(in.Password), "password", "password must have at least 8 characters")
	if err := f.Err(); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	var out *model.Hotel
	err = s.store.Tx(ctx, func(r Repos) error {
		if exists, err := r.Hotels().ExistsByEmail(ctx, in.Email); err != nil {
			return err
		} else if exists {
			return apperr.New(apperr.ErrConflict, "email %s is already registered", in.Email)
		}
		if exists, err := r.Hotels().ExistsByName(ctx, in.Name); err != nil {
			return err
		} else if exists {
			return apperr.New(apperr.ErrConflict, "hotel name %s is already taken", in.Name)
		}
		ts := now()
		h := &model.Hotel{
			Name:            in.Name,
			Email:           in.Email,
			PasswordHash:    hash,
			Phone:           in.Phone,
			Address:         in.Address,
			City:            in.City,
			Country:         in.Country,
			TaxNumber:       in.TaxNumber,
			Active:          true,
			SubscriptionEnd: ts.AddDate(1, 0, 0),
			CreatedAt:       ts,
			UpdatedAt:       ts,
		}
		if err := r.Hotels().Create(ctx, h); err != nil {
			return err
		}
		out = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("hotel registered", zap.Uint64("hotel_id", out.ID), zap.String("name", out.Name))
	return out, nil
}

// Get returns the caller's hotel.
func (s *HotelService) Get(ctx context.Context, p auth.Principal) (*model.Hotel, error) {
	if err := p.Require(auth.ViewSettings); err != nil {
		return nil, err
	}
	return s.store.Hotels().GetByID(ctx, p.HotelID)
}

// HotelProfileInput carries the editable profile fields.
type HotelProfileInput struct {
	Name      string
	Phone     string
	Address   string
	City      string
	Country   string
	TaxNumber string
}

func (s *HotelService) UpdateProfile(ctx context.Context, p auth.Principal, in HotelProfileInput) (*model.Hotel, error) {
	if err := p.Require(auth.UpdateSettings); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperr.Invalid("name", "name is required")
	}
	return s.mutate(ctx, p.HotelID, func(r Repos, h *model.Hotel) error {
		if in.Name != h.Name {
			exists, err := r.Hotels().ExistsByName(ctx, in.Name)
			if err != nil {
				return err
			}
			if exists {
				return apperr.New(apperr.ErrConflict, "hotel name %s is already taken", in.Name)
			}
		}
		h.Name = in.Name
		h.Phone = in.Phone
		h.Address = in.Address
		h.City = in.City
		h.Country = in.Country
		h.TaxNumber = in.TaxNumber
		return nil
	})
}

// ChangePassword is reserved to the hotel account itself.
func (s *HotelService) ChangePassword(ctx context.Context, p auth.Principal, current, next string) error {
	if err := p.RequireOwner(); err != nil {
		return err
	}
	if !utils.PasswordLongEnough(next) {
		return apperr.Invalid("new_password", "password must have at least 8 characters")
	}
	hash, err := utils.HashPassword(next, s.bcryptCost)
	if err != nil {
		return err
	}
	_, err = s.mutate(ctx, p.HotelID, func(_ Repos, h *model.Hotel) error {
		if !utils.VerifyPassword(h.PasswordHash, current) {
			return apperr.New(apperr.ErrInvalidCredentials, "current password is incorrect")
		}
		h.PasswordHash = hash
		return nil
	})
	return err
}

// ToggleActive flips the hotel's active flag. A disabled hotel and all of its
// users are refused at the next login or refresh.
func (s *HotelService) ToggleActive(ctx context.Context, p auth.Principal) (*model.Hotel, error) {
	if err := p.RequireOwner(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p.HotelID, func(_ Repos, h *model.Hotel) error {
		h.Active = !h.Active
		return nil
	})
}

// ExtendSubscription adds months to the later of today and the current end.
func (s *HotelService) ExtendSubscription(ctx context.Context, p auth.Principal, months int) (*model.Hotel, error) {
	if err := p.RequireOwner(); err != nil {
		return nil, err
	}
	if months < 1 || months > 36 {
		return nil, apperr.Invalid("months", "months must be between 1 and 36")
	}
	return s.mutate(ctx, p.HotelID, func(_ Repos, h *model.Hotel) error {
		from := h.SubscriptionEnd
		if t := now(); from.Before(t) {
			from = t
		}
		h.SubscriptionEnd = from.AddDate(0, months, 0)
		return nil
	})
}

func (s *HotelService) mutate(ctx context.Context, hotelID uint64, fn func(Repos, *model.Hotel) error) (*model.Hotel, error) {
	var out *model.Hotel
	err := s.store.Tx(ctx, func(r Repos) error {
		h, err := r.Hotels().GetByID(ctx, hotelID)
		if err != nil {
			return err
		}
		if err := fn(r, h); err != nil {
			return err
		}
		h.UpdatedAt = now()
		out = h
		return r.Hotels().Update(ctx, h)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SubscriptionDaysLeft counts whole days until the subscription ends.
func SubscriptionDaysLeft(h *model.Hotel, at time.Time) int {
	d := h.SubscriptionEnd.Sub(at)
	if d <= 0 {
		return 0
	}
	return int(d.Hours() / 24)
}
