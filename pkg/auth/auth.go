// Package auth verifies bearer credentials issued by an external identity
// provider and carries the resulting principal through the request context.
package auth

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrMissingCredential is returned when no bearer token was supplied.
	ErrMissingCredential = errors.New("auth: missing bearer credential")
	// ErrInvalidCredential is returned when the token fails verification.
	ErrInvalidCredential = errors.New("auth: invalid credential")
)

// Principal is the authenticated actor of a request.
type Principal struct {
	Email   string
	Subject string
}

// Verifier turns a raw bearer token into a verified Principal.
type Verifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, token string) (Principal, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (Principal, error) {
	return f(ctx, token)
}

type ctxKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFrom returns the principal bound by the authentication
// middleware, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok && p.Email != ""
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingCredential
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingCredential
	}
	return token, nil
}

// NormalizeEmail lower-cases and trims an email so lookups are stable.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
