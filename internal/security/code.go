package security

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"
)

// GenerateCode returns a 6-digit numeric verification code drawn from
// crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// HashToken is the at-rest form of a refresh token. Session rows store this
// hash so a database leak never exposes a usable credential.
func HashToken(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}
