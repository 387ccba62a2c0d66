package credentials

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/acedema/acedema-back/internal/common"
)

// Alphabet is the character set of generated passwords.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890!@#$%^&*"

// PasswordGenerator produces temporary passwords from a cryptographically
// secure source. Every character is picked uniformly from Alphabet.
type PasswordGenerator struct {
	random io.Reader
}

func NewPasswordGenerator() *PasswordGenerator {
	return &PasswordGenerator{random: rand.Reader}
}

// Generate returns a password of length characters.
// length <= 0 yields common.ErrInvalidArgument.
func (g *PasswordGenerator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("%w: password length %d", common.ErrInvalidArgument, length)
	}

	max := big.NewInt(int64(len(Alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(g.random, max)
		if err != nil {
			return "", fmt.Errorf("read random source: %w", err)
		}
		out[i] = Alphabet[n.Int64()]
	}
	return string(out), nil
}
