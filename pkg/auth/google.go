package auth

import (
	"context"
	"fmt"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
)

// GoogleVerifier validates Google-issued ID tokens against the configured
// OAuth client id(s) and Google's published signing certificates.
type GoogleVerifier struct {
	audience []string
	verifier googleAuthIDTokenVerifier.Verifier
}

func NewGoogleVerifier(clientIDs ...string) *GoogleVerifier {
	return &GoogleVerifier{audience: clientIDs}
}

func (g *GoogleVerifier) Verify(_ context.Context, raw string) (Principal, error) {
	if err := g.verifier.VerifyIDToken(raw, g.audience); err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	claimSet, err := googleAuthIDTokenVerifier.Decode(raw)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if claimSet.Email == "" {
		return Principal{}, fmt.Errorf("%w: token carries no email", ErrInvalidCredential)
	}

	return Principal{Email: NormalizeEmail(claimSet.Email), Subject: claimSet.Sub}, nil
}
