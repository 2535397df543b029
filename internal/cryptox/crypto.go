// Package cryptox wraps password hashing.
package cryptox

import "golang.org/x/crypto/bcrypt"

// PasswordCost is the bcrypt work factor used for stored passwords.
const PasswordCost = 12

// HashPassword returns a salted bcrypt hash of password.
func HashPassword(password string) (string, error) {
	return hashPasswordWithCost(password, PasswordCost)
}

func hashPasswordWithCost(password string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether password matches the stored hash.
// A malformed hash is treated as a mismatch.
func CheckPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
