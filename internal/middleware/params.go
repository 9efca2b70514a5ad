package middleware

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// URLParam returns the decoded value of a route parameter. chi hands back the
// escaped segment when the request path carried percent-encoding, so
// alice%40x.com and alice@x.com name the same owner. A segment that does not
// decode is returned as is.
func URLParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	v, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return v
}
