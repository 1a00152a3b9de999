package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

var encoding = base64.RawStdEncoding

// Credential is a salted password derivative as persisted on an account.
type Credential struct {
	Salt string
	Hash string
}

// CreateCredential checks the policy, draws a fresh salt and derives the hash.
func (c Config) CreateCredential(plaintext string) (Credential, error) {
	if err := c.Validate(plaintext); err != nil {
		return Credential{}, err
	}
	return c.derive(plaintext, rand.Reader)
}

func (c Config) derive(plaintext string, entropy io.Reader) (Credential, error) {
	salt := make([]byte, c.Params.SaltLength)
	if _, err := io.ReadFull(entropy, salt); err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrEntropy, err)
	}
	key := c.key(plaintext, salt, c.Params.KeyLength)
	return Credential{
		Salt: encoding.EncodeToString(salt),
		Hash: encoding.EncodeToString(key),
	}, nil
}

// Verify reports whether plaintext matches the stored salt and hash.
// Undecodable or out-of-bounds stored values never match.
func (c Config) Verify(plaintext, salt, hash string) bool {
	saltRaw, err := encoding.DecodeString(salt)
	if err != nil || len(saltRaw) < minSaltLength || len(saltRaw) > maxSaltLength {
		return false
	}
	expected, err := encoding.DecodeString(hash)
	if err != nil || len(expected) < minKeyLength || len(expected) > maxKeyLength {
		return false
	}

	got := c.key(plaintext, saltRaw, uint32(len(expected))) // #nosec G115 -- bounded above.
	return subtle.ConstantTimeCompare(got, expected) == 1
}

// VerifyDummy burns the same work as Verify against a throwaway credential.
// Sign-in uses it when the account does not exist.
func (c Config) VerifyDummy(plaintext string) {
	salt := make([]byte, c.Params.SaltLength)
	_ = c.key(plaintext, salt, c.Params.KeyLength)
}

func (c Config) key(plaintext string, salt []byte, keyLen uint32) []byte {
	return argon2.IDKey(
		[]byte(plaintext),
		salt,
		c.Params.Iterations,
		c.Params.MemoryKiB,
		c.Params.Parallelism,
		keyLen,
	)
}
