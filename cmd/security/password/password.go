package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"
)

const argon2Version = 19 // argon2.Version (0x13)

// Public, stable errors for callers.
var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrInvalidHash      = errors.New("invalid password hash")
)

// Params controls Argon2id hashing cost. MemoryKiB is in KiB as required by
// argon2.IDKey.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Hasher is the single configuration surface for this package.
type Hasher struct {
	Params Params

	// MinLength/MaxLength bound new passwords (runes, not bytes).
	// The default minimum is deliberately low: the bootstrap credential
	// uses a well-known throwaway password the admin is told to change.
	MinLength int
	MaxLength int
}

// DefaultHasher returns a baseline tuned for a single-admin site:
// interactive logins are rare, so cost leans toward the strong side.
func DefaultHasher() Hasher {
	// Clamp parallelism to [1..4] to keep resource usage predictable in
	// small containers.
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Hasher{
		Params: Params{
			MemoryKiB:   64 * 1024, // 64 MiB
			Iterations:  3,
			Parallelism: uint8(threads),
			SaltLength:  16,
			KeyLength:   32,
		},
		MinLength: 6,
		MaxLength: 256,
	}
}

// Validate checks length policy for a candidate new password.
func (h Hasher) Validate(password string) error {
	n := utf8.RuneCountInString(password)
	if n < h.MinLength {
		return ErrPasswordTooShort
	}
	if n > h.MaxLength {
		return ErrPasswordTooLong
	}
	return nil
}

// Hash hashes a password with Argon2id and returns the encoded hash string.
func (h Hasher) Hash(password string) (string, error) {
	if err := h.Validate(password); err != nil {
		return "", err
	}

	salt := make([]byte, h.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		h.Params.Iterations,
		h.Params.MemoryKiB,
		h.Params.Parallelism,
		h.Params.KeyLength,
	)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		h.Params.MemoryKiB,
		h.Params.Iterations,
		h.Params.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

// Verify checks whether password matches the encoded hash.
// Returns (true, nil) on match, (false, nil) on mismatch, and
// (false, ErrInvalidHash) for malformed or unreasonable hashes.
func (h Hasher) Verify(encodedHash, password string) (bool, error) {
	params, salt, expected, err := decode(encodedHash)
	if err != nil {
		return false, err
	}

	// Anti-DoS boundary: a stored hash should never demand wildly more
	// resources than our own configuration would produce.
	if !withinReasonableBounds(params, h.Params) {
		return false, ErrInvalidHash
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		params.Iterations,
		params.MemoryKiB,
		params.Parallelism,
		uint32(len(expected)), // #nosec G115 -- length is bounded by decode(); safe conversion.
	)

	if subtle.ConstantTimeCompare(key, expected) == 1 {
		return true, nil
	}
	return false, nil
}

func withinReasonableBounds(got Params, limits Params) bool {
	// Allow hashes generated with older/smaller settings, reject wildly
	// larger ones.
	if got.MemoryKiB > limits.MemoryKiB*2 {
		return false
	}
	if got.Iterations > limits.Iterations*2 {
		return false
	}
	if got.Parallelism > limits.Parallelism*2 {
		return false
	}
	if got.SaltLength < 8 || got.SaltLength > 64 {
		return false
	}
	if got.KeyLength < 16 || got.KeyLength > 128 {
		return false
	}
	return true
}

// decode parses the encoded hash and returns params, salt and expected key.
func decode(encoded string) (Params, []byte, []byte, error) {
	// Expected: $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrInvalidHash
	}

	if parts[2] != fmt.Sprintf("v=%d", argon2Version) {
		return Params{}, nil, nil, ErrInvalidHash
	}

	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return Params{}, nil, nil, ErrInvalidHash
	}
	if mem == 0 || it == 0 || par == 0 || par > 255 {
		return Params{}, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return Params{}, nil, nil, ErrInvalidHash
	}

	params := Params{
		MemoryKiB:   mem,
		Iterations:  it,
		Parallelism: uint8(par),       // #nosec G115 -- bounded above; safe conversion.
		SaltLength:  uint32(len(salt)), // #nosec G115 -- bounded by base64 decode; safe conversion.
		KeyLength:   uint32(len(key)),  // #nosec G115 -- bounded by base64 decode; safe conversion.
	}

	return params, salt, key, nil
}
