// internal/pkg/auth/session.go
package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/your-org/bookstore-storefront/internal/config"
)

// User is the identity carried by an external provider token
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Session is the read-only {user, token} pair consumed by the storefront.
// The zero value is an anonymous session; the service never issues or
// refreshes tokens itself.
type Session struct {
	User  *User
	Token string
}

// SignedIn reports whether the session carries an authenticated user
func (s *Session) SignedIn() bool {
	return s != nil && s.User != nil && s.User.ID != ""
}

// Anonymous returns the session for an unauthenticated visitor
func Anonymous() *Session {
	return &Session{}
}

// Claims represents the identity-provider token claims we consume
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier parses identity-provider bearer tokens into sessions
type Verifier struct {
	config *config.Config
}

// NewVerifier creates a token verifier
func NewVerifier(cfg *config.Config) *Verifier {
	return &Verifier{config: cfg}
}

// ParseSession validates a bearer token and returns the session it carries.
// An empty, malformed or expired token yields an anonymous session rather
// than an error: authentication is optional everywhere the cart is involved
// and enforced per-route where it is not.
func (v *Verifier) ParseSession(tokenString string) *Session {
	if tokenString == "" {
		return Anonymous()
	}

	claims, err := v.validateToken(tokenString)
	if err != nil {
		return Anonymous()
	}

	return &Session{
		User: &User{
			ID:    claims.Subject,
			Email: claims.Email,
			Name:  claims.Name,
		},
		Token: tokenString,
	}
}

// validateToken validates and parses a provider token
func (v *Verifier) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.config.Auth.TokenSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("token subject not specified")
	}

	if v.config.Auth.Issuer != "" && claims.Issuer != v.config.Auth.Issuer {
		return nil, fmt.Errorf("unexpected token issuer: %s", claims.Issuer)
	}

	return claims, nil
}

// ExtractTokenFromHeader extracts the bearer token from an Authorization header
func ExtractTokenFromHeader(authHeader string) string {
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
