package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	// GoogleJWKSURL publishes the keys that sign Firebase ID tokens.
	GoogleJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

	firebaseIssuerPrefix = "https://securetoken.google.com/"
)

var jwkRefreshInterval = time.Hour

// FirebaseVerifier verifies Firebase ID tokens against Google's public keys.
type FirebaseVerifier struct {
	ProjectID string
	JWKs      *keyfunc.JWKS

	parser *jwt.Parser
}

var _ Verifier = (*FirebaseVerifier)(nil)

// NewFirebaseVerifier fetches the key set at jwksURL and keeps it refreshed
// in the background until Close is called.
func NewFirebaseVerifier(projectID, jwksURL string) (*FirebaseVerifier, error) {
	client := retryablehttp.NewClient()
	client.Logger = nil

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Client:            client.StandardClient(),
		RefreshInterval:   jwkRefreshInterval,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching keys from %v: %w", jwksURL, err)
	}

	return &FirebaseVerifier{
		ProjectID: projectID,
		JWKs:      jwks,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"RS256"}),
			jwt.WithIssuer(firebaseIssuerPrefix+projectID),
			jwt.WithAudience(projectID),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
	}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	if rawToken == "" {
		return nil, ErrMissingBearerToken
	}

	token, err := v.parser.Parse(rawToken, v.JWKs.Keyfunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}
	return claimsFromMap(mapClaims)
}

func (v *FirebaseVerifier) Close() {
	v.JWKs.EndBackground()
}

func claimsFromMap(m jwt.MapClaims) (*Claims, error) {
	sub, err := m.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidClaims)
	}
	iss, _ := m.GetIssuer()

	email, _ := m["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: missing email", ErrInvalidClaims)
	}

	claims := &Claims{
		Subject: sub,
		Issuer:  iss,
		Email:   email,
		Raw:     m,
	}
	claims.EmailVerified, _ = m["email_verified"].(bool)
	claims.Name, _ = m["name"].(string)
	claims.Picture, _ = m["picture"].(string)

	if at, ok := m["auth_time"].(float64); ok {
		claims.AuthTime = time.Unix(int64(at), 0)
		if claims.AuthTime.After(time.Now()) {
			return nil, fmt.Errorf("%w: auth_time in the future", ErrInvalidClaims)
		}
	}
	return claims, nil
}
