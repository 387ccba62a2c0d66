// Package credentials turns plaintext passwords into storable hashes and
// generates temporary passwords for accounts created by an administrator.
package credentials

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Hasher hashes and verifies passwords. Implementations are stateless and
// safe for concurrent use.
type Hasher interface {
	// Hash returns the storable form of plaintext.
	Hash(plaintext string) (string, error)

	// Verify reports whether plaintext matches storedHash.
	Verify(plaintext, storedHash string) bool

	// NeedsUpgrade reports whether storedHash was produced by a weaker scheme
	// than the one Hash currently uses.
	NeedsUpgrade(storedHash string) bool
}

// Scheme names accepted by New.
const (
	SchemeSHA256   = "sha256"
	SchemeArgon2id = "argon2id"
)

// New returns the hasher for a configured scheme.
func New(scheme string) (Hasher, error) {
	switch scheme {
	case SchemeSHA256:
		return SHA256Hasher{}, nil
	case SchemeArgon2id:
		return NewArgon2idHasher(DefaultArgon2Params), nil
	default:
		return nil, fmt.Errorf("unknown hash scheme %q", scheme)
	}
}

// SHA256Hasher is the legacy scheme: unsalted SHA-256, lowercase hex.
// Equal plaintexts always produce equal hashes, which keeps existing stored
// credentials valid.
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(plaintext string) (string, error) {
	return sha256Hex(plaintext), nil
}

func (SHA256Hasher) Verify(plaintext, storedHash string) bool {
	return constantTimeEqual(sha256Hex(plaintext), storedHash)
}

func (SHA256Hasher) NeedsUpgrade(string) bool { return false }

func sha256Hex(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Argon2Params tunes Argon2idHasher.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	SaltLen int
	KeyLen  uint32
}

// DefaultArgon2Params follows the OWASP baseline for argon2id.
var DefaultArgon2Params = Argon2Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

const argon2Prefix = "$argon2id$"

var errMalformedHash = errors.New("malformed argon2id hash")

// Argon2idHasher stores salted argon2id hashes in PHC string format:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
//
// Verify also accepts legacy SHA-256 hex hashes so accounts keep working
// until their next successful login upgrades them.
type Argon2idHasher struct {
	params Argon2Params
	legacy SHA256Hasher
}

func NewArgon2idHasher(p Argon2Params) *Argon2idHasher {
	return &Argon2idHasher{params: p}
}

func (h *Argon2idHasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix,
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2idHasher) Verify(plaintext, storedHash string) bool {
	if !strings.HasPrefix(storedHash, argon2Prefix) {
		return h.legacy.Verify(plaintext, storedHash)
	}

	p, salt, key, err := decodeArgon2(storedHash)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(plaintext), salt, p.Time, p.Memory, p.Threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(computed, key) == 1
}

func (h *Argon2idHasher) NeedsUpgrade(storedHash string) bool {
	if !strings.HasPrefix(storedHash, argon2Prefix) {
		return true
	}
	p, _, _, err := decodeArgon2(storedHash)
	if err != nil {
		return true
	}
	return p.Time < h.params.Time || p.Memory < h.params.Memory
}

func decodeArgon2(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errMalformedHash
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &threads); err != nil {
		return p, nil, nil, errMalformedHash
	}
	if threads == 0 || threads > 255 {
		return p, nil, nil, errMalformedHash
	}
	p.Threads = uint8(threads)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, errMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, errMalformedHash
	}

	p.SaltLen = len(salt)
	p.KeyLen = uint32(len(key))
	return p, salt, key, nil
}
