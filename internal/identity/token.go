// Package identity issues and verifies the signed tokens that carry a caller's
// favorites partition key.
package identity

import (
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultIssuer   = "pokedex-api"
	DefaultAudience = "pokedex-clients"
	DefaultTTL      = 24 * time.Hour
)

var (
	// ErrInvalidToken is returned for tokens that fail to parse or verify.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrEmptyUser is returned when issuing a token without a user id.
	ErrEmptyUser = errors.New("userId is required")
)

// Claims represents the JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 identity tokens.
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewIssuer creates an Issuer with the default issuer, audience and lifetime.
func NewIssuer(secret string) *Issuer {
	return &Issuer{
		secret:   []byte(secret),
		issuer:   DefaultIssuer,
		audience: DefaultAudience,
		ttl:      DefaultTTL,
		now:      time.Now,
	}
}

// Issue generates a token for userID and returns it with its expiry.
func (i *Issuer) Issue(userID string) (string, time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, ErrEmptyUser
	}

	now := i.now()
	expires := now.Add(i.ttl)
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "signing token")
	}
	return signed, expires, nil
}

// Parse validates a token and returns its claims. Every failure matches ErrInvalidToken.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, errors.Mark(err, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != i.issuer {
		return nil, errors.Wrap(ErrInvalidToken, "issuer")
	}
	// jwt v5 audience types are checked by hand
	if !slices.Contains(claims.Audience, i.audience) {
		return nil, errors.Wrap(ErrInvalidToken, "audience")
	}
	if claims.UserID == "" {
		return nil, errors.Wrap(ErrInvalidToken, "missing user id")
	}
	return claims, nil
}
