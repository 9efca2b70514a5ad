package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrMissingBearerToken = errors.New("missing bearer token")
	ErrInvalidToken       = errors.New("invalid bearer token")
	ErrInvalidClaims      = errors.New("invalid claims")
	ErrForbidden          = errors.New("forbidden access")
)

// Verifier checks a raw identity token and returns its verified claims.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Claims, error)
}

// Claims is the verified payload of an identity token.
type Claims struct {
	Subject       string         `json:"sub"`
	Issuer        string         `json:"iss"`
	Email         string         `json:"email"`
	EmailVerified bool           `json:"email_verified"`
	Name          string         `json:"name,omitempty"`
	Picture       string         `json:"picture,omitempty"`
	AuthTime      time.Time      `json:"auth_time"`
	Raw           map[string]any `json:"-"`
}

// CheckOwner fails with ErrForbidden unless the verified email is exactly
// email. Nil claims count as unauthenticated.
func CheckOwner(claims *Claims, email string) error {
	if claims == nil {
		return ErrMissingBearerToken
	}
	if claims.Email != email {
		return ErrForbidden
	}
	return nil
}

type claimsContextKey struct{}

func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the claims stored by the authentication guard.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*Claims)
	return claims, ok && claims != nil
}
