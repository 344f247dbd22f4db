package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the only error Verify ever returns. Bad signature,
// wrong segment count, bad encoding, bad JSON and expiry all look the same
// to the caller so the verifier cannot be used as an oracle.
var ErrInvalidToken = errors.New("jwtx: invalid token")

// ErrEmptySecret is returned when a codec is built without a key.
var ErrEmptySecret = errors.New("jwtx: empty signing secret")

// Signer is our interface for anything that can sign session tokens.
type Signer interface {
	Sign(Claims) (string, error)
}

// Verifier validates a session token and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HS256Codec issues and verifies HMAC-SHA256 signed session tokens using a
// single shared secret. It holds no per-token state.
type HS256Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// CodecOption tweaks an HS256Codec.
type CodecOption func(*HS256Codec)

// WithClock overrides the time source. Tests use it to move past expiry.
func WithClock(now func() time.Time) CodecOption {
	return func(c *HS256Codec) { c.now = now }
}

// NewHS256 builds a codec. A ttl of zero selects DefaultSessionTTL.
func NewHS256(secret []byte, ttl time.Duration, opts ...CodecOption) (*HS256Codec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	c := &HS256Codec{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the lifetime given to issued tokens.
func (c *HS256Codec) TTL() time.Duration { return c.ttl }

// Sign implements Signer.
func (c *HS256Codec) Sign(claims Claims) (string, error) {
	return issueAt(claims, c.secret, c.ttl, c.now())
}

// Verify implements Verifier.
func (c *HS256Codec) Verify(token string) (Claims, error) {
	return verifyAt(token, c.secret, c.now)
}

// Issue stamps claims with iat=now and exp=now+ttl (Unix seconds) and
// returns the compact header.payload.signature form.
func Issue(claims Claims, secret []byte, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return issueAt(claims, secret, ttl, time.Now())
}

// Verify checks the signature and expiry of token and returns its claims.
// Every failure is reported as ErrInvalidToken.
func Verify(token string, secret []byte) (Claims, error) {
	return verifyAt(token, secret, time.Now)
}

func issueAt(claims Claims, secret []byte, ttl time.Duration, now time.Time) (string, error) {
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

func verifyAt(token string, secret []byte, now func() time.Time) (Claims, error) {
	if len(secret) == 0 || token == "" {
		return Claims{}, ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(now),
		jwt.WithLeeway(time.Second),
	)

	var claims Claims
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	// The leeway above covers the exp second; this drops anything past it.
	if err := claims.ValidateExpiry(now()); err != nil {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
