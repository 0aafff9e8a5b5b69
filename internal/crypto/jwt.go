package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer   = "mealscan"
	tokenAudience = "mealscan-api"
)

var (
	ErrNoSecret             = errors.New("token secret is not configured")
	ErrUnsupportedAlgorithm = errors.New("unsupported token algorithm")
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenMalformed       = errors.New("invalid token")
)

// Claims is the fixed claim set carried by mealscan bearer tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email string         `json:"email,omitempty"`
	Extra map[string]any `json:"ext,omitempty"`
}

// TokenIssuer signs and verifies bearer tokens with a symmetric key.
type TokenIssuer struct {
	secret     []byte
	method     jwt.SigningMethod
	defaultTTL time.Duration
}

// NewTokenIssuer returns an issuer for one of HS256, HS384 or HS512.
func NewTokenIssuer(secret, algorithm string, defaultTTL time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	var method jwt.SigningMethod
	switch algorithm {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
	}

	return &TokenIssuer{
		secret:     []byte(secret),
		method:     method,
		defaultTTL: defaultTTL,
	}, nil
}

type issueOptions struct {
	email string
	ttl   time.Duration
	extra map[string]any
}

// IssueOption customizes a single Issue call.
type IssueOption func(*issueOptions)

// WithEmail sets the email claim.
func WithEmail(email string) IssueOption {
	return func(o *issueOptions) { o.email = email }
}

// WithTTL overrides the issuer's default lifetime. Non-positive values are ignored.
func WithTTL(ttl time.Duration) IssueOption {
	return func(o *issueOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithExtra attaches additional claims under ext.
func WithExtra(extra map[string]any) IssueOption {
	return func(o *issueOptions) { o.extra = extra }
}

// Issue creates a signed token for subject.
func (t *TokenIssuer) Issue(subject string, opts ...IssueOption) (string, error) {
	if t == nil || len(t.secret) == 0 {
		return "", ErrNoSecret
	}

	o := issueOptions{ttl: t.defaultTTL}
	for _, opt := range opts {
		opt(&o)
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(o.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: o.email,
		Extra: o.extra,
	}

	return jwt.NewWithClaims(t.method, claims).SignedString(t.secret)
}

// Verify parses token and returns its claims. Expired tokens yield
// ErrTokenExpired; every other failure yields ErrTokenMalformed.
func (t *TokenIssuer) Verify(token string) (*Claims, error) {
	if t == nil || len(t.secret) == 0 {
		return nil, ErrNoSecret
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
