package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenCarriesPrincipalClaims(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 42, Claims{
		AccountType: "USER",
		HotelID:     7,
		Roles:       []string{"RECEPTION"},
		Permissions: []string{"VIEW_RESERVATIONS"},
	}, 15)
	if err != nil {
		t.Fatal(err)
	}
	if !tok.Exp.After(time.Now()) {
		t.Fatal("token already expired")
	}

	c, err := ParseAccessToken("s3cret", tok.Token)
	if err != nil {
		t.Fatal(err)
	}
	id, _ := c.AccountID()
	if id != 42 || c.HotelID != 7 || c.AccountType != "USER" {
		t.Fatalf("claims = %+v", c)
	}
	if len(c.Permissions) != 1 || c.Permissions[0] != "VIEW_RESERVATIONS" {
		t.Fatalf("permissions = %v", c.Permissions)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, _ := NewAccessToken("s3cret", 1, Claims{AccountType: "HOTEL", HotelID: 1}, 15)
	expired, _ := NewAccessToken("s3cret", 1, Claims{AccountType: "HOTEL", HotelID: 1}, -5)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := map[string]struct{ secret, raw string }{
		"wrong secret": {"other", good.Token},
		"expired":      {"s3cret", expired.Token},
		"alg none":     {"s3cret", none},
		"garbage":      {"s3cret", "not-a-jwt"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseAccessToken(tt.secret, tt.raw); err == nil {
				t.Fatal("expected rejection")
			}
		})
	}
}

func TestRefreshTokenHashing(t *testing.T) {
	a, err := NewRefreshToken(30)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewRefreshToken(30)
	if len(a.Raw) != 96 || a.Raw == b.Raw {
		t.Fatalf("unexpected raw tokens %q %q", a.Raw, b.Raw)
	}
	if HashRefreshRaw(a.Raw) != HashRefreshRaw(a.Raw) || HashRefreshRaw(a.Raw) == HashRefreshRaw(b.Raw) {
		t.Fatal("hash must be deterministic and distinct")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword(hash, "correct horse") || VerifyPassword(hash, "wrong") {
		t.Fatal("bcrypt round trip failed")
	}
	if PasswordLongEnough("short") || !PasswordLongEnough("long enough") {
		t.Fatal("length policy")
	}
}
