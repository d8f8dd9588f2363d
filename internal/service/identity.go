package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/hotel-management/internal/apperr"
	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/logger"
	"github.com/iliyamo/hotel-management/internal/model"
	"github.com/iliyamo/hotel-management/internal/utils"
)

// TokenConfig parameterises token issuance.
type TokenConfig struct {
	Secret         string
	AccessTTLMin   int
	RefreshTTLDays int
}

// IdentityService authenticates hotel and user accounts and issues tokens.
type IdentityService struct {
	store Store
	cfg   TokenConfig
}

func NewIdentityService(store Store, cfg TokenConfig) *IdentityService {
	return &IdentityService{store: store, cfg: cfg}
}

// Session is the result of a successful authentication.
type Session struct {
	Token        string            `json:"token"`
	ExpiresAt    time.Time         `json:"expires_at"`
	RefreshToken string            `json:"refresh_token"`
	RefreshExp   time.Time         `json:"refresh_expires_at"`
	AccountType  auth.AccountType  `json:"account_type"`
	AccountID    uint64            `json:"account_id"`
	HotelID      uint64            `json:"hotel_id"`
	Roles        []string          `json:"roles"`
	Permissions  []auth.Permission `json:"permissions"`
}

func invalidCredentials() error {
	return apperr.New(apperr.ErrInvalidCredentials, "invalid email or password")
}

// Authenticate checks email and password against the hotel or user table.
// Unknown accounts, wrong passwords and disabled accounts all fail the same way.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string, accountType auth.AccountType) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalidCredentials()
	}
	p, hash, err := s.loadPrincipal(ctx, accountType, email, 0)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, err
	}
	if !utils.VerifyPassword(hash, password) {
		logger.FromContext(ctx).Info("login rejected",
			zap.String("account_type", string(accountType)),
			zap.Uint64("account_id", p.AccountID))
		return nil, invalidCredentials()
	}
	return s.issue(ctx, p)
}

// loadPrincipal resolves an active account by email, or by id when email is
// empty, and returns it with its password hash.
func (s *IdentityService) loadPrincipal(ctx context.Context, accountType auth.AccountType, email string, id uint64) (auth.Principal, string, error) {
	switch accountType {
	case auth.AccountHotel:
		var (
			h   *model.Hotel
			err error
		)
		if email != "" {
			h, err = s.store.Hotels().GetByEmail(ctx, email)
		} else {
			h, err = s.store.Hotels().GetByID(ctx, id)
		}
		if err != nil {
			return auth.Principal{}, "", err
		}
		if !h.Active {
			return auth.Principal{}, "", invalidCredentials()
		}
		return auth.Principal{AccountType: auth.AccountHotel, AccountID: h.ID, HotelID: h.ID}, h.PasswordHash, nil

	case auth.AccountUser:
		var (
			u   *model.User
			err error
		)
		if email != "" {
			u, err = s.store.Users().GetByEmail(ctx, email)
		} else {
			u, err = s.store.Users().GetByID(ctx, 0, id)
		}
		if err != nil {
			return auth.Principal{}, "", err
		}
		if !u.Active {
			return auth.Principal{}, "", invalidCredentials()
		}
		h, err := s.store.Hotels().GetByID(ctx, u.HotelID)
		if err != nil {
			return auth.Principal{}, "", err
		}
		if !h.Active {
			return auth.Principal{}, "", invalidCredentials()
		}
		return auth.Principal{
			AccountType: auth.AccountUser,
			AccountID:   u.ID,
			HotelID:     u.HotelID,
			Roles:       u.Roles,
			Permissions: auth.PermissionsFor(u.Roles),
		}, u.PasswordHash, nil
	}
	return auth.Principal{}, "", apperr.Invalid("account_type", "account type must be HOTEL or USER")
}

// issue signs an access token for p and stores a fresh refresh token.
func (s *IdentityService) issue(ctx context.Context, p auth.Principal) (*Session, error) {
	perms := make([]string, len(p.Permissions))
	for i, perm := range p.Permissions {
		perms[i] = string(perm)
	}
	access, err := utils.NewAccessToken(s.cfg.Secret, p.AccountID, utils.Claims{
		AccountType: string(p.AccountType),
		HotelID:     p.HotelID,
		Roles:       p.Roles,
		Permissions: perms,
	}, s.cfg.AccessTTLMin)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return nil, err
	}
	if err := s.store.Tokens().StoreRefresh(ctx, string(p.AccountType), p.AccountID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, err
	}
	return &Session{
		Token:        access.Token,
		ExpiresAt:    access.Exp,
		RefreshToken: refresh.Raw,
		RefreshExp:   refresh.Exp,
		AccountType:  p.AccountType,
		AccountID:    p.AccountID,
		HotelID:      p.HotelID,
		Roles:        p.Roles,
		Permissions:  p.Permissions,
	}, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued with the account's current roles.
func (s *IdentityService) Refresh(ctx context.Context, raw string) (*Session, error) {
	hash := utils.HashRefreshRaw(raw)
	accountType, accountID, err := s.store.Tokens().ValidateRefresh(ctx, hash)
	if err != nil {
		return nil, apperr.New(apperr.ErrInvalidCredentials, "invalid refresh token")
	}
	revoked, err := s.store.Tokens().RevokeByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if !revoked {
		// another refresh consumed the token between the lookup and now
		return nil, apperr.New(apperr.ErrInvalidCredentials, "invalid refresh token")
	}
	p, _, err := s.loadPrincipal(ctx, auth.AccountType(accountType), "", accountID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, err
	}
	return s.issue(ctx, p)
}

// Logout revokes one refresh token. Unknown tokens are ignored.
func (s *IdentityService) Logout(ctx context.Context, raw string) error {
	_, err := s.store.Tokens().RevokeByHash(ctx, utils.HashRefreshRaw(raw))
	return err
}

// LogoutAll revokes every refresh token of the caller.
func (s *IdentityService) LogoutAll(ctx context.Context, p auth.Principal) error {
	return s.store.Tokens().RevokeAllFor(ctx, string(p.AccountType), p.AccountID)
}

// Me describes the authenticated caller.
type Me struct {
	AccountType auth.AccountType  `json:"account_type"`
	AccountID   uint64            `json:"account_id"`
	HotelID     uint64            `json:"hotel_id"`
	Roles       []string          `json:"roles"`
	Permissions []auth.Permission `json:"permissions"`
	Hotel       *model.Hotel      `json:"hotel,omitempty"`
	User        *model.User       `json:"user,omitempty"`

	SubscriptionDaysLeft int `json:"subscription_days_left"`
}

// Me loads the caller's account row.
func (s *IdentityService) Me(ctx context.Context, p auth.Principal) (*Me, error) {
	out := &Me{
		AccountType: p.AccountType,
		AccountID:   p.AccountID,
		HotelID:     p.HotelID,
		Roles:       p.Roles,
		Permissions: p.Permissions,
	}
	h, err := s.store.Hotels().GetByID(ctx, p.HotelID)
	if err != nil {
		return nil, err
	}
	out.Hotel = h
	out.SubscriptionDaysLeft = SubscriptionDaysLeft(h, now())
	if p.AccountType == auth.AccountUser {
		u, err := s.store.Users().GetByID(ctx, p.HotelID, p.AccountID)
		if err != nil {
			return nil, err
		}
		out.User = u
	}
	return out, nil
}
