package auth

import "github.com/iliyamo/hotel-management/internal/apperr"

// AccountType distinguishes the hotel owner account from employee accounts.
type AccountType string

const (
	AccountHotel AccountType = "HOTEL"
	AccountUser  AccountType = "USER"
)

// Principal is the authenticated caller. It is built from a verified access
// token and passed explicitly to every use case; the tenant key of every
// query comes from HotelID.
type Principal struct {
	AccountType AccountType
	AccountID   uint64
	HotelID     uint64
	Roles       []string
	Permissions []Permission
}

// IsOwner reports whether the caller is the hotel account itself.
func (p Principal) IsOwner() bool { return p.AccountType == AccountHotel }

// Can reports whether the caller holds perm. Hotel owners hold everything.
func (p Principal) Can(perm Permission) bool {
	if p.IsOwner() {
		return true
	}
	for _, have := range p.Permissions {
		if have == perm {
			return true
		}
	}
	return false
}

// Require returns a Forbidden error unless the caller holds one of perms.
func (p Principal) Require(perms ...Permission) error {
	for _, perm := range perms {
		if p.Can(perm) {
			return nil
		}
	}
	if len(perms) == 0 && p.IsOwner() {
		return nil
	}
	return apperr.New(apperr.ErrForbidden, "missing permission %v", perms)
}

// RequireOwner rejects every caller except the hotel account.
func (p Principal) RequireOwner() error {
	if p.IsOwner() {
		return nil
	}
	return apperr.New(apperr.ErrForbidden, "hotel account required")
}

// ActorID returns the user id to stamp on audit columns, or nil when the
// hotel account itself acted.
func (p Principal) ActorID() *uint64 {
	if p.AccountType != AccountUser {
		return nil
	}
	id := p.AccountID
	return &id
}
