package chat

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLength is the longest input bcrypt accepts.
const MaxPasswordLength = 72

var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// hashPassword returns nil for an empty password, meaning an open room.
func hashPassword(password string, cost int) ([]byte, error) {
	if password == "" {
		return nil, nil
	}
	if len(password) > MaxPasswordLength {
		return nil, ErrPasswordTooLong
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return bcrypt.GenerateFromPassword([]byte(password), cost)
}

func checkPassword(hash []byte, supplied string) bool {
	if len(hash) == 0 {
		return true
	}
	if len(supplied) > MaxPasswordLength {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(supplied)) == nil
}
