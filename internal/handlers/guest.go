// internal/handlers/guest.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"doudizhu/internal/auth"
)

const sessionCookieName = "session_token"

// EnsureGuestSession resolves the caller to a stable guest identity. A valid
// session cookie yields its existing ID; anything else mints a fresh guest ID
// and sets a new cookie. The identity is what lets a dropped guest reclaim
// their seat on reconnect.
func EnsureGuestSession(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	cookieHeader := r.Header.Get("Cookie")
	if strings.Contains(cookieHeader, sessionCookieName+"=") {
		token := extractCookieToken(cookieHeader, sessionCookieName)
		if subject, err := auth.AuthenticateSessionToken(token); err == nil {
			guestID, parseErr := uuid.Parse(subject)
			if parseErr == nil {
				return guestID, nil
			}
		}
		// Fall through: expired or malformed token gets a fresh identity.
	}

	guestID := uuid.New()
	token, err := auth.CreateSessionToken(guestID.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create guest session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	return guestID, nil
}

// extractCookieToken extracts a named cookie value from "Cookie" header, or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}
