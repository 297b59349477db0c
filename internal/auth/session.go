// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// privateKey and publicKey sign and verify guest session tokens.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// sessionTTL is how long a guest session stays valid (0 => no expiry).
	sessionTTL time.Duration
)

// Init generates a fresh ed25519 key pair at boot and reads the session TTL
// from SESSION_EXPIRE_TIME. Restarting the host invalidates all sessions,
// which matches the room lifetime.
func Init() {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		fmt.Printf("failed to generate ed25519 key pair: %v\n", err)
		os.Exit(1)
	}

	ttl := os.Getenv("SESSION_EXPIRE_TIME")
	switch ttl {
	case "", "0", "never":
		sessionTTL = 0
	default:
		d, err := time.ParseDuration(ttl)
		if err != nil {
			fmt.Printf("failed to parse SESSION_EXPIRE_TIME: %v\n", err)
			os.Exit(1)
		}
		sessionTTL = d
	}
}

// CreateSessionToken issues a signed JWT whose subject is the guest's stable
// channel identity.
func CreateSessionToken(guestID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": guestID,
	}
	if sessionTTL > 0 {
		claims["exp"] = time.Now().Add(sessionTTL).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateSessionToken verifies a token and returns its subject.
func AuthenticateSessionToken(tokenString string) (string, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return "", fmt.Errorf("invalid token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid jwt claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return "", fmt.Errorf("missing sub in jwt")
	}
	return sub, nil
}
