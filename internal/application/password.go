package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Owner passwords are stored as argon2id hashes in the PHC string format:
//
//	$argon2id$v=19$m=<kib>,t=<passes>,p=<lanes>$<salt>$<key>
//
// Salt and key are unpadded standard base64. The cost parameters travel inside
// the string, so hashes created under older defaults keep verifying after the
// defaults are raised.

var (
	ErrInvalidPasswordHash         = errors.New("application: malformed password hash")
	ErrIncompatiblePasswordVersion = errors.New("application: unsupported argon2 version")
)

// Argon2idParams sets the key derivation cost and output sizes.
type Argon2idParams struct {
	MemoryKiB uint32
	Passes    uint32
	Lanes     uint8
	SaltBytes uint32
	KeyBytes  uint32
}

// DefaultArgon2idParams targets roughly 20 MiB and a few tens of milliseconds
// per hash, enough for an owner-facing login that is also rate limited by the
// session layer.
var DefaultArgon2idParams = Argon2idParams{
	MemoryKiB: 19 * 1024,
	Passes:    2,
	Lanes:     1,
	SaltBytes: 16,
	KeyBytes:  32,
}

// CreatePasswordHash derives an argon2id hash for the password using a fresh
// random salt and encodes it in the PHC format described above.
func CreatePasswordHash(password string, params Argon2idParams) (string, error) {
	salt := make([]byte, params.SaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("application: generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, params.Passes, params.MemoryKiB, params.Lanes, params.KeyBytes)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		params.MemoryKiB, params.Passes, params.Lanes,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword re-derives the key with the parameters recorded in the stored
// hash and compares in constant time. A mismatch reports
// ErrInvalidCredentials, same as an unknown account.
func VerifyPassword(hashedPassword, password string) error {
	params, salt, key, err := decodePasswordHash(hashedPassword)
	if err != nil {
		return err
	}

	candidate := argon2.IDKey([]byte(password), salt, params.Passes, params.MemoryKiB, params.Lanes, params.KeyBytes)
	if subtle.ConstantTimeCompare(key, candidate) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

func decodePasswordHash(encoded string) (Argon2idParams, []byte, []byte, error) {
	var params Argon2idParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return params, nil, nil, ErrInvalidPasswordHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params, nil, nil, ErrInvalidPasswordHash
	}
	if version != argon2.Version {
		return params, nil, nil, ErrIncompatiblePasswordVersion
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.MemoryKiB, &params.Passes, &params.Lanes); err != nil {
		return params, nil, nil, ErrInvalidPasswordHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, ErrInvalidPasswordHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params, nil, nil, ErrInvalidPasswordHash
	}

	params.SaltBytes = uint32(len(salt))
	params.KeyBytes = uint32(len(key))
	return params, salt, key, nil
}
