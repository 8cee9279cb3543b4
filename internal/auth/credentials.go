package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// CredentialVerifier decides whether secret is valid for username.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, secret string) (bool, error)
}

// SharedPasswordVerifier accepts one deployment-wide password for every user.
type SharedPasswordVerifier struct {
	password []byte
}

func NewSharedPasswordVerifier(password string) SharedPasswordVerifier {
	return SharedPasswordVerifier{password: []byte(password)}
}

func (v SharedPasswordVerifier) Verify(_ context.Context, _ string, secret string) (bool, error) {
	if len(v.password) == 0 {
		return false, nil
	}
	return subtle.ConstantTimeCompare(v.password, []byte(secret)) == 1, nil
}

// HashedPasswordVerifier checks the secret against a single argon2id hash.
type HashedPasswordVerifier struct {
	hash string
}

func NewHashedPasswordVerifier(hash string) (HashedPasswordVerifier, error) {
	if _, err := decodeArgon2id(hash); err != nil {
		return HashedPasswordVerifier{}, err
	}
	return HashedPasswordVerifier{hash: hash}, nil
}

func (v HashedPasswordVerifier) Verify(_ context.Context, _ string, secret string) (bool, error) {
	return VerifyPassword(v.hash, secret)
}

type argon2idParams struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLen     uint32
	keyLen      uint32
}

var defaultArgon2id = argon2idParams{
	memory:      64 * 1024,
	iterations:  3,
	parallelism: 2,
	saltLen:     16,
	keyLen:      32,
}

type argon2idHash struct {
	params argon2idParams
	salt   []byte
	key    []byte
}

// HashPassword encodes plaintext in the PHC argon2id format.
func HashPassword(plaintext string) (string, error) {
	p := defaultArgon2id
	salt := make([]byte, p.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	h := argon2idHash{
		params: p,
		salt:   salt,
		key:    argon2.IDKey([]byte(plaintext), salt, p.iterations, p.memory, p.parallelism, p.keyLen),
	}
	return h.String(), nil
}

func VerifyPassword(hash, plaintext string) (bool, error) {
	h, err := decodeArgon2id(hash)
	if err != nil {
		return false, err
	}
	p := h.params
	other := argon2.IDKey([]byte(plaintext), h.salt, p.iterations, p.memory, p.parallelism, p.keyLen)
	return subtle.ConstantTimeCompare(h.key, other) == 1, nil
}

func (h argon2idHash) String() string {
	enc := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.memory,
		h.params.iterations,
		h.params.parallelism,
		enc.EncodeToString(h.salt),
		enc.EncodeToString(h.key),
	)
}

var errMalformedHash = errors.New("malformed argon2id hash")

func decodeArgon2id(encoded string) (argon2idHash, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return argon2idHash{}, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return argon2idHash{}, errMalformedHash
	}
	if version != argon2.Version {
		return argon2idHash{}, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var h argon2idHash
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &h.params.memory, &h.params.iterations, &h.params.parallelism); err != nil {
		return argon2idHash{}, fmt.Errorf("%w: params: %v", errMalformedHash, err)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(fields[4]); err != nil || len(h.salt) == 0 {
		return argon2idHash{}, fmt.Errorf("%w: salt", errMalformedHash)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(fields[5]); err != nil || len(h.key) == 0 {
		return argon2idHash{}, fmt.Errorf("%w: key", errMalformedHash)
	}
	h.params.saltLen = uint32(len(h.salt))
	h.params.keyLen = uint32(len(h.key))
	return h, nil
}
