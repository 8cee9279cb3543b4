package auth

import "strings"

const bearerPrefix = "bearer "

// BearerToken extracts the token from an Authorization header value. The
// scheme match is case-insensitive. ok is false when the header is absent or
// uses another scheme; an empty token after the scheme still reports ok.
func BearerToken(header string) (token string, ok bool) {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(bearerPrefix):]), true
}
