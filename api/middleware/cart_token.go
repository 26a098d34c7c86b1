package middleware

import (
	"net/http"
	"strings"
)

const (
	CartTokenParam  = "cart_id"
	CartTokenCookie = "cart_token"
)

// CartToken returns the client-supplied cart token. The cart_id query
// parameter wins over the legacy cart_token cookie.
func CartToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	if token := strings.TrimSpace(r.URL.Query().Get(CartTokenParam)); token != "" {
		return token
	}
	if cookie, err := r.Cookie(CartTokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
