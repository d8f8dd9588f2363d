package service

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/hotel-management/internal/apperr"
	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/logger"
	"github.com/iliyamo/hotel-management/internal/model"
	"github.com/iliyamo/hotel-management/internal/utils"
)

// UserService manages employee accounts of a hotel.
type UserService struct {
	store      Store
	bcryptCost int
}

func NewUserService(store Store, bcryptCost int) *UserService {
	return &UserService{store: store, bcryptCost: bcryptCost}
}

// UserInput is used for both creation and update. Password is ignored on
// update; Roles is ignored on update as well (see SetRoles).
type UserInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Roles     []string
}

func (in *UserInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
}

// checkRoles validates names against the catalog and returns them sorted
// without duplicates.
func checkRoles(names []string) ([]string, error) {
	seen := map[string]bool{}
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToUpper(strings.TrimSpace(n))
		if _, ok := auth.LookupRole(n); !ok {
			return nil, apperr.Invalid("roles", "unknown role "+n)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *UserService) checkUnique(ctx context.Context, r Repos, username, email string, excludeID uint64) error {
	if exists, err := r.Users().ExistsByUsername(ctx, username, excludeID); err != nil {
		return err
	} else if exists {
		return apperr.New(apperr.ErrConflict, "username %s is already taken", username)
	}
	if exists, err := r.Users().ExistsByEmail(ctx, email, excludeID); err != nil {
		return err
	} else if exists {
		return apperr.New(apperr.ErrConflict, "email %s is already registered", email)
	}
	return nil
}

// Create adds an employee to the caller's hotel.
func (s *UserService) Create(ctx context.Context, p auth.Principal, in UserInput) (*model.User, error) {
	if err := p.Require(auth.ManageEmployees); err != nil {
		return nil, err
	}
	in.normalize()
	var f apperr.Fields
	f.Add(in.Username == "", "username", "username is required")
	f.Add(in.Email == "" || !strings.Contains(in.Email, "@"), "email", "a valid email is required")
	f.Add(!utils.PasswordLongEnough(in.Password), "password", "password must have at least 8 characters")
	f.Add(in.FirstName == "" && in.LastName == "", "last_name", "a name is required")
	if err := f.Err(); err != nil {
		return nil, err
	}
	roles, err := checkRoles(in.Roles)
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	var out *model.User
	err = s.store.Tx(ctx, func(r Repos) error {
		if err := s.checkUnique(ctx, r, in.Username, in.Email, 0); err != nil {
			return err
		}
		ts := now()
		u := &model.User{
			HotelID:      p.HotelID,
			Username:     in.Username,
			Email:        in.Email,
			PasswordHash: hash,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Phone:        in.Phone,
			Active:       true,
			CreatedAt:    ts,
			UpdatedAt:    ts,
		}
		if err := r.Users().Create(ctx, u); err != nil {
			return err
		}
		if err := r.Users().SetRoles(ctx, u.ID, roles); err != nil {
			return err
		}
		u.Roles = roles
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("user created",
		zap.Uint64("hotel_id", p.HotelID),
		zap.Uint64("user_id", out.ID),
		zap.Strings("roles", roles))
	return out, nil
}

// Get returns one employee. Users may always read their own account.
func (s *UserService) Get(ctx context.Context, p auth.Principal, id uint64) (*model.User, error) {
	if !(p.AccountType == auth.AccountUser && p.AccountID == id) {
		if err := p.Require(auth.ViewEmployees, auth.ManageEmployees); err != nil {
			return nil, err
		}
	}
	return s.store.Users().GetByID(ctx, p.HotelID, id)
}

func (s *UserService) List(ctx context.Context, p auth.Principal) ([]model.User, error) {
	if err := p.Require(auth.ViewEmployees, auth.ManageEmployees); err != nil {
		return nil, err
	}
	return s.store.Users().ListByHotel(ctx, p.HotelID)
}

// Update changes the profile fields of an employee.
func (s *UserService) Update(ctx context.Context, p auth.Principal, id uint64, in UserInput) (*model.User, error) {
	if err := p.Require(auth.ManageEmployees); err != nil {
		return nil, err
	}
	in.normalize()
	var f apperr.Fields
	f.Add(in.Username == "", "username", "username is required")
	f.Add(in.Email == "" || !strings.Contains(in.Email, "@"), "email", "a valid email is required")
	if err := f.Err(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p.HotelID, id, func(r Repos, u *model.User) error {
		if err := s.checkUnique(ctx, r, in.Username, in.Email, u.ID); err != nil {
			return err
		}
		u.Username = in.Username
		u.Email = in.Email
		u.FirstName = in.FirstName
		u.LastName = in.LastName
		u.Phone = in.Phone
		return nil
	})
}

// SetRoles replaces the roles of an employee. Tokens issued earlier keep the
// old permissions until they expire.
func (s *UserService) SetRoles(ctx context.Context, p auth.Principal, id uint64, names []string) (*model.User, error) {
	if err := p.Require(auth.ManageEmployees); err != nil {
		return nil, err
	}
	roles, err := checkRoles(names)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, p.HotelID, id, func(r Repos, u *model.User) error {
		if err := r.Users().SetRoles(ctx, u.ID, roles); err != nil {
			return err
		}
		u.Roles = roles
		return nil
	})
}

// ToggleActive enables or disables an employee. Disabling also revokes the
// employee's refresh tokens.
func (s *UserService) ToggleActive(ctx context.Context, p auth.Principal, id uint64) (*model.User, error) {
	if err := p.Require(auth.ManageEmployees); err != nil {
		return nil, err
	}
	if p.AccountType == auth.AccountUser && p.AccountID == id {
		return nil, apperr.New(apperr.ErrInvalidState, "cannot disable your own account")
	}
	return s.mutate(ctx, p.HotelID, id, func(r Repos, u *model.User) error {
		u.Active = !u.Active
		if !u.Active {
			return r.Tokens().RevokeAllFor(ctx, string(auth.AccountUser), u.ID)
		}
		return nil
	})
}

// ChangeOwnPassword lets an employee replace their password.
func (s *UserService) ChangeOwnPassword(ctx context.Context, p auth.Principal, current, next string) error {
	if p.AccountType != auth.AccountUser {
		return apperr.New(apperr.ErrForbidden, "only employee accounts can use this operation")
	}
	if !utils.PasswordLongEnough(next) {
		return apperr.Invalid("new_password", "password must have at least 8 characters")
	}
	hash, err := utils.HashPassword(next, s.bcryptCost)
	if err != nil {
		return err
	}
	_, err = s.mutate(ctx, p.HotelID, p.AccountID, func(_ Repos, u *model.User) error {
		if !utils.VerifyPassword(u.PasswordHash, current) {
			return apperr.New(apperr.ErrInvalidCredentials, "current password is incorrect")
		}
		u.PasswordHash = hash
		return nil
	})
	return err
}

// ListRoles returns the static role catalog.
func (s *UserService) ListRoles(p auth.Principal) ([]auth.Role, error) {
	if err := p.Require(auth.ViewEmployees, auth.ManageEmployees); err != nil {
		return nil, err
	}
	return auth.Roles(), nil
}

func (s *UserService) mutate(ctx context.Context, hotelID, id uint64, fn func(Repos, *model.User) error) (*model.User, error) {
	var out *model.User
	err := s.store.Tx(ctx, func(r Repos) error {
		u, err := r.Users().GetByID(ctx, hotelID, id)
		if err != nil {
			return err
		}
		if err := fn(r, u); err != nil {
			return err
		}
		u.UpdatedAt = now()
		out = u
		return r.Users().Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
