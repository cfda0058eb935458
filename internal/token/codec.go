// Package token generates and verifies raw login tokens. It is pure
// computation: persistence and lookup live in the repositories.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// Params fixes the codec's shape at construction so tests can run with
// alternate values. Zero fields fall back to Default().
type Params struct {
	// EntropyBytes is the number of random bytes behind each raw token.
	EntropyBytes int
	// DefaultTTL applies when the issuer does not pass an explicit TTL.
	DefaultTTL time.Duration
}

// Default returns the production parameters: 96 bits of entropy
// (16 URL-safe characters) and a one hour TTL.
func Default() Params {
	return Params{
		EntropyBytes: 12,
		DefaultTTL:   time.Hour,
	}
}

// Codec turns random bytes into URL-safe raw tokens and raw tokens into
// the SHA-256 hex digests used as storage keys.
type Codec struct {
	params Params
	rawLen int
}

func NewCodec(params Params) *Codec {
	def := Default()
	if params.EntropyBytes == 0 {
		params.EntropyBytes = def.EntropyBytes
	}
	if params.DefaultTTL == 0 {
		params.DefaultTTL = def.DefaultTTL
	}
	return &Codec{
		params: params,
		rawLen: base64.RawURLEncoding.EncodedLen(params.EntropyBytes),
	}
}

func (c *Codec) Params() Params { return c.params }

// RawLen is the exact length of every raw token this codec produces.
func (c *Codec) RawLen() int { return c.rawLen }

// Generate returns a fresh raw token from crypto/rand, encoded with the
// unpadded URL-safe base64 alphabet.
func (c *Codec) Generate() (string, error) {
	buf := make([]byte, c.params.EntropyBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash returns the lowercase hex SHA-256 digest of the raw token. This is
// the only form of the token that may be persisted or logged.
func (c *Codec) Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ValidFormat reports whether the candidate could have come out of
// Generate: exact length, URL-safe alphabet only. It gates every lookup so
// garbage input never reaches the database.
func (c *Codec) ValidFormat(candidate string) bool {
	if len(candidate) != c.rawLen {
		return false
	}
	for i := 0; i < len(candidate); i++ {
		ch := candidate[i]
		switch {
		case ch >= 'a' && ch <= 'z':
		case ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9':
		case ch == '-' || ch == '_':
		default:
			return false
		}
	}
	return true
}

// Matches recomputes the digest of raw and compares it to storedDigest in
// constant time. Any direct digest comparison outside the atomic-update
// path must go through here to avoid leaking match position through
// timing.
func (c *Codec) Matches(raw, storedDigest string) bool {
	digest := c.Hash(raw)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(storedDigest)) == 1
}
