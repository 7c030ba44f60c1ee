package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the fields read from a bearer token.
type TokenClaims struct {
	Subject   string
	Email     string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Claims    map[string]any
}

// ParseToken reads the claims of a JWT without verifying its signature.
// The client only uses them to learn when its own session expires; the
// server remains the authority on validity. A "Bearer " prefix is
// accepted.
func ParseToken(token string) (TokenClaims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return TokenClaims{}, ErrMissingToken
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return TokenClaims{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, ErrTokenMalformed
	}

	out := TokenClaims{Claims: make(map[string]any, len(claims))}
	for k, v := range claims {
		out.Claims[k] = v
	}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = role
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	return out, nil
}

// Apply fills identity fields the server response left empty.
func (c TokenClaims) Apply(id *Identity) {
	if id == nil {
		return
	}
	if id.ID == "" {
		id.ID = c.Subject
	}
	if id.Email == "" {
		id.Email = c.Email
	}
	if id.Role == "" {
		id.Role = c.Role
	}
	if id.IssuedAt.IsZero() {
		id.IssuedAt = c.IssuedAt
	}
	if id.ExpiresAt.IsZero() {
		id.ExpiresAt = c.ExpiresAt
	}
}
