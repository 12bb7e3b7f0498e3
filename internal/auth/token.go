// Package auth holds the credential primitives: bcrypt password hashing,
// signed bearer tokens and the revocation registry contract.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for every verification failure.  Callers
// must not be able to tell a bad signature from an expired token.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the claims carried by an access token.  Subject holds the
// manager id, ID holds the jti used for revocation.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// ManagerID parses the subject claim.
func (c *Claims) ManagerID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenManager issues and verifies HMAC-signed access tokens.  It is safe
// for concurrent use.
type TokenManager struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager validates the signing configuration.  Only the HMAC
// family is accepted and the secret must not be empty.
func NewTokenManager(secret, alg string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("auth: empty signing secret")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("auth: token ttl must be positive, got %s", ttl)
	}
	var method jwt.SigningMethod
	switch strings.ToUpper(alg) {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("auth: unsupported signing algorithm %q", alg)
	}
	return &TokenManager{secret: []byte(secret), method: method, ttl: ttl, now: time.Now}, nil
}

// WithClock replaces the time source.  Intended for tests.
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	cp := *tm
	cp.now = now
	return &cp
}

// TTL returns the default token lifetime.
func (tm *TokenManager) TTL() time.Duration { return tm.ttl }

// Issue signs a token for the given claims.  jti, iat and exp are always
// overwritten: jti gets a fresh random UUID and exp is iat+ttl (the default
// ttl when ttl <= 0).  The completed claims are returned with the token.
func (tm *TokenManager) Issue(claims Claims, ttl time.Duration) (string, Claims, error) {
	if ttl <= 0 {
		ttl = tm.ttl
	}
	// NumericDate has second precision; truncate so exp-iat is exactly ttl.
	now := tm.now().UTC().Truncate(time.Second)
	claims.ID = uuid.NewString()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	signed, err := jwt.NewWithClaims(tm.method, claims).SignedString(tm.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Verify checks signature, algorithm and expiry and returns the claims.
// A token is valid only while now < exp and only if it carries a jti and
// a subject.
func (tm *TokenManager) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return tm.secret, nil },
		jwt.WithValidMethods([]string{tm.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	if _, err := claims.ManagerID(); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
