// Package secretcode validates, hashes, and verifies the 5-digit presence
// codes participants register with. The stored form is a bcrypt hash; raw
// codes never leave the registration and confirmation paths.
package secretcode

import (
	"golang.org/x/crypto/bcrypt"

	dErrors "tombola/pkg/domain-errors"
)

// Length is the exact number of decimal digits a code must have.
const Length = 5

// Validate checks that code is exactly five ASCII decimal digits.
func Validate(code string) error {
	if len(code) != Length {
		return dErrors.New(dErrors.CodeValidation, "secret code must be exactly 5 digits")
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return dErrors.New(dErrors.CodeValidation, "secret code must be exactly 5 digits")
		}
	}
	return nil
}

// Hash derives the stored form of a code.
func Hash(code string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash secret code")
	}
	return string(hashed), nil
}

// Compare reports whether code matches the stored hash. bcrypt's comparison
// does not short-circuit on the presented code, which satisfies the
// constant-time contract for the confirmation path.
func Compare(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
