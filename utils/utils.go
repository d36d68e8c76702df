package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// BcryptCost is the work factor used by HashPassword. Tests lower it.
var BcryptCost = 12

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// NormalizeEmail trims and lowercases an address for case-insensitive
// comparisons. Stored values keep the casing the user typed.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail accepts a bare address (no display name, no angle brackets)
// whose domain has at least one dot.
func IsValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}
