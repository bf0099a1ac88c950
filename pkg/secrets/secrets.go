// Package secrets mints and checks operator tokens. Only bcrypt hashes of
// tokens are ever configured on the server.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	dErrors "coffeereg/pkg/domain-errors"
)

// TokenPrefix marks generated operator tokens so they are easy to spot in
// shell history and secret scanners.
const TokenPrefix = "creg_"

const tokenBytes = 24

// Generate returns a fresh operator token.
func Generate() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate token")
	}
	return TokenPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash returns the bcrypt hash to configure for token.
func Hash(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", dErrors.New(dErrors.CodeValidation, "token cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeValidation, "token is longer than 72 bytes")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not hash token")
	}
	return string(hashed), nil
}

// Matches reports whether token hashes to hash. Empty inputs and malformed
// hashes never match.
func Matches(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}

// ValidateHash rejects values that are not bcrypt hashes, such as a token
// pasted where its hash belongs.
func ValidateHash(hash string) error {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return dErrors.New(dErrors.CodeValidation, "not a bcrypt hash")
	}
	return nil
}
