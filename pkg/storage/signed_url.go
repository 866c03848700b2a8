package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidToken covers malformed tokens and bad signatures.
	ErrInvalidToken = errors.New("invalid download token")
	// ErrTokenExpired is returned for a well signed token past its expiry.
	ErrTokenExpired = errors.New("download token expired")
)

// SignedToken is the verified content of a download token.
type SignedToken struct {
	Scope     string
	Key       string
	ExpiresAt time.Time
}

// SignedURLSigner mints tokens of the form scope.expiry.key.mac, each part
// URL safe so the token fits in a single path segment.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer. Links live for ttl, 30 minutes when unset.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate binds key to scope until the TTL elapses.
func (s *SignedURLSigner) Generate(scope, key string) (string, time.Time, error) {
	if scope == "" || key == "" || strings.Contains(scope, ".") {
		return "", time.Time{}, fmt.Errorf("sign %q/%q: scope and key required", scope, key)
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	body := scope + "." + strconv.FormatInt(expiresAt.Unix(), 10) + "." + base64.RawURLEncoding.EncodeToString([]byte(key))
	return body + "." + s.mac(body), expiresAt, nil
}

// Verify checks the signature and expiry of token.
func (s *SignedURLSigner) Verify(token string) (SignedToken, error) {
	parsed, err := s.decode(token)
	if err != nil {
		return SignedToken{}, err
	}
	if s.now().After(parsed.ExpiresAt) {
		return SignedToken{}, ErrTokenExpired
	}
	return parsed, nil
}

func (s *SignedURLSigner) decode(token string) (SignedToken, error) {
	cut := strings.LastIndexByte(token, '.')
	if cut < 0 {
		return SignedToken{}, ErrInvalidToken
	}
	body, sig := token[:cut], token[cut+1:]
	if !hmac.Equal([]byte(sig), []byte(s.mac(body))) {
		return SignedToken{}, ErrInvalidToken
	}
	parts := strings.Split(body, ".")
	if len(parts) != 3 {
		return SignedToken{}, ErrInvalidToken
	}
	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return SignedToken{}, ErrInvalidToken
	}
	key, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return SignedToken{}, ErrInvalidToken
	}
	return SignedToken{Scope: parts[0], Key: string(key), ExpiresAt: time.Unix(expUnix, 0)}, nil
}

func (s *SignedURLSigner) mac(body string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
