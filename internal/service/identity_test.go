package service

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/hotel-management/internal/apperr"
	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/utils"
)

const testCost = 4

func testTokens() TokenConfig {
	return TokenConfig{Secret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 7}
}

func TestRegisterAndAuthenticateHotel(t *testing.T) {
	f := newFixture(t)
	hotels := NewHotelService(f.store, testCost)
	ids := NewIdentityService(f.store, testTokens())

	h, err := hotels.Register(f.ctx, RegisterHotelInput{Name: "Riad Zitoun", Email: " Contact@Riad.test ", Password: "supersecret"})
	if err != nil {
		t.Fatal(err)
	}
	if h.Email != "contact@riad.test" || !h.Active || !h.SubscriptionActive(now().AddDate(0, 11, 0)) {
		t.Fatalf("hotel = %+v", h)
	}

	_, err = hotels.Register(f.ctx, RegisterHotelInput{Name: "Other", Email: "contact@riad.test", Password: "supersecret"})
	wantKind(t, err, apperr.ErrConflict)
	_, err = hotels.Register(f.ctx, RegisterHotelInput{Name: "riad zitoun", Email: "x@riad.test", Password: "supersecret"})
	wantKind(t, err, apperr.ErrConflict)
	_, err = hotels.Register(f.ctx, RegisterHotelInput{Name: "Short", Email: "s@riad.test", Password: "short"})
	wantKind(t, err, apperr.ErrValidation)

	sess, err := ids.Authenticate(f.ctx, "CONTACT@riad.test", "supersecret", auth.AccountHotel)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := utils.ParseAccessToken("test-secret", sess.Token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.HotelID != h.ID || claims.AccountType != string(auth.AccountHotel) {
		t.Fatalf("claims = %+v", claims)
	}

	_, err = ids.Authenticate(f.ctx, "contact@riad.test", "wrong-password", auth.AccountHotel)
	wantKind(t, err, apperr.ErrInvalidCredentials)
	_, err = ids.Authenticate(f.ctx, "nobody@riad.test", "supersecret", auth.AccountHotel)
	wantKind(t, err, apperr.ErrInvalidCredentials)
	_, err = ids.Authenticate(f.ctx, "contact@riad.test", "supersecret", auth.AccountUser)
	wantKind(t, err, apperr.ErrInvalidCredentials)
}

func TestEmployeeLoginCarriesRolePermissions(t *testing.T) {
	f := newFixture(t)
	users := NewUserService(f.store, testCost)
	ids := NewIdentityService(f.store, testTokens())

	u, err := users.Create(f.ctx, f.owner, UserInput{
		Username: "chef", Email: "chef@atlas.test", Password: "kitchen123",
		FirstName: "Rachid", LastName: "Naciri", Roles: []string{"restaurant", auth.RoleStorekeeper},
	})
	if err != nil {
		t.Fatal(err)
	}
	sess, err := ids.Authenticate(f.ctx, "chef@atlas.test", "kitchen123", auth.AccountUser)
	if err != nil {
		t.Fatal(err)
	}
	if sess.AccountID != u.ID || sess.HotelID != f.hotel.ID {
		t.Fatalf("session = %+v", sess)
	}
	p := auth.Principal{AccountType: sess.AccountType, AccountID: sess.AccountID, HotelID: sess.HotelID, Permissions: sess.Permissions}
	if !p.Can(auth.CreateOrder) || !p.Can(auth.UpdateStock) || p.Can(auth.ViewAccounting) {
		t.Fatalf("permissions = %v", sess.Permissions)
	}

	// disabling the employee blocks the next login and the refresh path
	if _, err := users.ToggleActive(f.ctx, f.owner, u.ID); err != nil {
		t.Fatal(err)
	}
	_, err = ids.Authenticate(f.ctx, "chef@atlas.test", "kitchen123", auth.AccountUser)
	wantKind(t, err, apperr.ErrInvalidCredentials)
	_, err = ids.Refresh(f.ctx, sess.RefreshToken)
	wantKind(t, err, apperr.ErrInvalidCredentials)
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newFixture(t)
	hotels := NewHotelService(f.store, testCost)
	ids := NewIdentityService(f.store, testTokens())
	if _, err := hotels.Register(f.ctx, RegisterHotelInput{Name: "Dar Salam", Email: "dar@salam.test", Password: "password1"}); err != nil {
		t.Fatal(err)
	}
	first, err := ids.Authenticate(f.ctx, "dar@salam.test", "password1", auth.AccountHotel)
	if err != nil {
		t.Fatal(err)
	}

	second, err := ids.Refresh(f.ctx, first.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("refresh token not rotated")
	}
	_, err = ids.Refresh(f.ctx, first.RefreshToken)
	wantKind(t, err, apperr.ErrInvalidCredentials)

	if err := ids.Logout(f.ctx, second.RefreshToken); err != nil {
		t.Fatal(err)
	}
	_, err = ids.Refresh(f.ctx, second.RefreshToken)
	wantKind(t, err, apperr.ErrInvalidCredentials)
}

// staleLookupStore answers ValidateRefresh from the first read of each hash,
// the way two requests racing on one token both see it live.
type staleLookupStore struct {
	*memStore
	seen map[string]memToken
}

func (s *staleLookupStore) Tokens() TokenRepository { return staleTokens{memTokens{s.memStore}, s.seen} }

type staleTokens struct {
	memTokens
	seen map[string]memToken
}

func (r staleTokens) ValidateRefresh(ctx context.Context, hash string) (string, uint64, error) {
	if t, ok := r.seen[hash]; ok {
		return t.accountType, t.accountID, nil
	}
	accountType, accountID, err := r.memTokens.ValidateRefresh(ctx, hash)
	if err == nil {
		r.seen[hash] = memToken{accountType: accountType, accountID: accountID}
	}
	return accountType, accountID, err
}

func TestRefreshTokenSpentOnce(t *testing.T) {
	f := newFixture(t)
	if _, err := NewHotelService(f.store, testCost).Register(f.ctx, RegisterHotelInput{Name: "Kasbah", Email: "k@kasbah.test", Password: "password1"}); err != nil {
		t.Fatal(err)
	}
	ids := NewIdentityService(&staleLookupStore{memStore: f.store, seen: map[string]memToken{}}, testTokens())
	sess, err := ids.Authenticate(f.ctx, "k@kasbah.test", "password1", auth.AccountHotel)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ids.Refresh(f.ctx, sess.RefreshToken); err != nil {
		t.Fatal(err)
	}
	// the lookup still reports the token live; only the revoke decides
	_, err = ids.Refresh(f.ctx, sess.RefreshToken)
	wantKind(t, err, apperr.ErrInvalidCredentials)
}

func TestMeReportsSubscriptionDaysLeft(t *testing.T) {
	tests := []struct {
		name string
		end  time.Time
		min  int
		max  int
	}{
		{"a year ahead", time.Now().AddDate(1, 0, 0), 364, 366},
		{"ten days and a bit", time.Now().Add(10*24*time.Hour + time.Hour), 10, 10},
		{"expired", time.Now().AddDate(0, 0, -3), 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.hotel.SubscriptionEnd = tt.end
			if err := f.store.Hotels().Update(f.ctx, f.hotel); err != nil {
				t.Fatal(err)
			}
			me, err := NewIdentityService(f.store, testTokens()).Me(f.ctx, f.owner)
			if err != nil {
				t.Fatal(err)
			}
			if me.SubscriptionDaysLeft < tt.min || me.SubscriptionDaysLeft > tt.max {
				t.Fatalf("days left = %d, want %d..%d", me.SubscriptionDaysLeft, tt.min, tt.max)
			}
		})
	}
}

func TestUserManagement(t *testing.T) {
	f := newFixture(t)
	users := NewUserService(f.store, testCost)

	_, err := users.Create(f.ctx, f.owner, UserInput{Username: "x", Email: "x@a.test", Password: "password1", LastName: "X", Roles: []string{"JANITOR"}})
	wantKind(t, err, apperr.ErrValidation)

	u, err := users.Create(f.ctx, f.owner, UserInput{Username: "desk", Email: "desk@a.test", Password: "password1", LastName: "Desk", Roles: []string{auth.RoleReception}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = users.Create(f.ctx, f.owner, UserInput{Username: "DESK", Email: "other@a.test", Password: "password1", LastName: "Y"})
	wantKind(t, err, apperr.ErrConflict)

	desk := auth.Principal{AccountType: auth.AccountUser, AccountID: u.ID, HotelID: f.hotel.ID, Roles: u.Roles, Permissions: auth.PermissionsFor(u.Roles)}
	_, err = users.Create(f.ctx, desk, UserInput{Username: "z", Email: "z@a.test", Password: "password1", LastName: "Z"})
	wantKind(t, err, apperr.ErrForbidden)
	if _, err := users.Get(f.ctx, desk, u.ID); err != nil {
		t.Fatalf("self read: %v", err)
	}
	_, err = users.List(f.ctx, desk)
	wantKind(t, err, apperr.ErrForbidden)

	updated, err := users.SetRoles(f.ctx, f.owner, u.ID, []string{auth.RoleManager, auth.RoleReception, auth.RoleManager})
	if err != nil {
		t.Fatal(err)
	}
	if len(updated.Roles) != 2 || updated.Roles[0] != auth.RoleManager {
		t.Fatalf("roles = %v", updated.Roles)
	}

	wantKind(t, users.ChangeOwnPassword(f.ctx, desk, "wrong", "newpassword"), apperr.ErrInvalidCredentials)
	if err := users.ChangeOwnPassword(f.ctx, desk, "password1", "newpassword"); err != nil {
		t.Fatal(err)
	}
	if _, err := NewIdentityService(f.store, testTokens()).Authenticate(f.ctx, "desk@a.test", "newpassword", auth.AccountUser); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	roles, err := users.ListRoles(f.owner)
	if err != nil || len(roles) != 5 {
		t.Fatalf("roles = %v, %v", roles, err)
	}
}

func TestHotelSettings(t *testing.T) {
	f := newFixture(t)
	hotels := NewHotelService(f.store, testCost)

	h, err := hotels.UpdateProfile(f.ctx, f.owner, HotelProfileInput{Name: "Hotel Atlas & Spa", City: "Fes"})
	if err != nil {
		t.Fatal(err)
	}
	if h.Name != "Hotel Atlas & Spa" || h.City != "Fes" {
		t.Fatalf("hotel = %+v", h)
	}

	end := h.SubscriptionEnd
	h, err = hotels.ExtendSubscription(f.ctx, f.owner, 6)
	if err != nil {
		t.Fatal(err)
	}
	if !h.SubscriptionEnd.Equal(end.AddDate(0, 6, 0)) {
		t.Fatalf("subscription end = %s, want %s", h.SubscriptionEnd, end.AddDate(0, 6, 0))
	}
	_, err = hotels.ExtendSubscription(f.ctx, f.owner, 0)
	wantKind(t, err, apperr.ErrValidation)

	manager := f.employee(t, auth.RoleManager)
	_, err = hotels.ExtendSubscription(f.ctx, manager, 1)
	wantKind(t, err, apperr.ErrForbidden)
	if _, err := hotels.Get(f.ctx, manager); err != nil {
		t.Fatal(err)
	}
}
