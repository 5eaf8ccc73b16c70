package utils

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for stored credentials.
const PasswordCost = 10

// bcrypt only looks at the first 72 bytes; longer passwords are refused
// instead of silently truncated.
const maxPasswordBytes = 72

var ErrPasswordTooLong = errors.New("password must be at most 72 bytes")

// HashPassword returns a salted bcrypt hash of plaintext.
func HashPassword(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plaintext matches hash. A malformed hash is a
// mismatch, not an error.
func CheckPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("poems-timing-equalizer"), PasswordCost)
	if err != nil {
		panic(err)
	}
	return h
})

// BurnPasswordCheck runs a bcrypt comparison that always fails. Login calls it
// for unknown emails so that path costs about as much as a wrong password.
func BurnPasswordCheck(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(plaintext))
}
