package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Password hashing algorithms understood by NewPasswordHasher.
const (
	HashAlgorithmBcrypt   = "bcrypt"
	HashAlgorithmArgon2id = "argon2id"
)

const argon2idPrefix = "$argon2id$"

var errInvalidHash = errors.New("invalid password hash format")

// PasswordHasher hashes and verifies passwords. Verify never compares plaintext.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// NewPasswordHasher returns a hasher producing hashes with the named
// algorithm. Verification accepts either format so stored hashes keep
// working after the algorithm is switched.
func NewPasswordHasher(algorithm string, bcryptCost int) (PasswordHasher, error) {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	bc := bcryptHasher{cost: bcryptCost}
	ar := newArgon2idHasher()

	switch algorithm {
	case "", HashAlgorithmBcrypt:
		return &dispatchHasher{primary: bc, bcrypt: bc, argon2id: ar}, nil
	case HashAlgorithmArgon2id:
		return &dispatchHasher{primary: ar, bcrypt: bc, argon2id: ar}, nil
	default:
		return nil, fmt.Errorf("unsupported password hash algorithm %q", algorithm)
	}
}

type dispatchHasher struct {
	primary  PasswordHasher
	bcrypt   PasswordHasher
	argon2id PasswordHasher
}

func (h *dispatchHasher) Hash(password string) (string, error) {
	return h.primary.Hash(password)
}

func (h *dispatchHasher) Verify(password, encoded string) (bool, error) {
	if strings.HasPrefix(encoded, argon2idPrefix) {
		return h.argon2id.Verify(password, encoded)
	}
	return h.bcrypt.Verify(password, encoded)
}

type bcryptHasher struct {
	cost int
}

func (h bcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h bcryptHasher) Verify(password, encoded string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

type argon2idHasher struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
}

func newArgon2idHasher() argon2idHasher {
	return argon2idHasher{
		memory:      64 * 1024,
		iterations:  3,
		parallelism: 2,
		saltLength:  16,
		keyLength:   32,
	}
}

// Hash returns a PHC string: $argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<hash>
func (h argon2idHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, h.iterations, h.memory, h.parallelism, h.keyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memory,
		h.iterations,
		h.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h argon2idHasher) Verify(password, encoded string) (bool, error) {
	vals := strings.Split(encoded, "$")
	if len(vals) != 6 || vals[1] != "argon2id" {
		return false, errInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(vals[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, errInvalidHash
	}

	var memory, iterations uint32
	var parallelism uint8
	if n, err := fmt.Sscanf(vals[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil || n != 3 {
		return false, errInvalidHash
	}
	// Reject parameters far above what this service produces.
	if memory == 0 || memory > 4*h.memory || iterations == 0 || iterations > 4*h.iterations || parallelism == 0 {
		return false, errInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(vals[4])
	if err != nil {
		return false, errInvalidHash
	}
	want, err := base64.RawStdEncoding.DecodeString(vals[5])
	if err != nil || len(want) == 0 {
		return false, errInvalidHash
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}
