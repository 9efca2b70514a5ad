package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ayush/food-nest/backend/internal/auth"
	"github.com/ayush/food-nest/backend/internal/logger"
)

const (
	msgUnauthorized = `{"message":"unauthorized access"}`
	msgForbidden    = `{"message":"forbidden access"}`
)

// Authenticate is middleware that verifies the bearer token and injects
// the verified claims into the request context.
func Authenticate(verifier auth.Verifier, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				log.DebugWithContext(r.Context(), "token rejected", zap.Error(err))
				writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}
			log.DebugWithContext(r.Context(), "decoded token",
				zap.String("sub", claims.Subject),
				zap.String("email", claims.Email),
				zap.Any("claims", claims.Raw),
			)

			ctx := auth.ContextWithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOwner rejects requests whose {param} path value differs from the
// verified email. It must be mounted after Authenticate.
func RequireOwner(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := auth.ClaimsFromContext(r.Context())
			err := auth.CheckOwner(claims, URLParam(r, param))
			switch {
			case errors.Is(err, auth.ErrForbidden):
				writeMessage(w, http.StatusForbidden, msgForbidden)
				return
			case err != nil:
				writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func writeMessage(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
