// Package security provides password hashing for stored credentials.
package security

import (
	"github.com/matthewhartstonge/argon2"
)

// HashPassword hashes password with argon2id and returns the PHC encoded hash,
// which carries its own salt and parameters.
func HashPassword(password string) (string, error) {
	argon := argon2.DefaultConfig()

	encoded, err := argon.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// VerifyPassword reports whether password matches encodedHash.
// An error is returned only when encodedHash cannot be decoded.
func VerifyPassword(password, encodedHash string) (bool, error) {
	return argon2.VerifyEncoded([]byte(password), []byte(encodedHash))
}
