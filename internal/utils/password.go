package utils

import (
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is enforced on every password set through the API.
const MinPasswordLength = 8

// HashPassword returns a bcrypt hash using cost, clamped to bcrypt's range.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// PasswordLongEnough reports whether plain has at least MinPasswordLength
// characters.
func PasswordLongEnough(plain string) bool {
	return utf8.RuneCountInString(plain) >= MinPasswordLength
}
