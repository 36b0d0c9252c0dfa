package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

const pkceEntropyBytes = 32

// OAuthState carries the values a browser login round trip needs.
type OAuthState struct {
	State         string
	CodeVerifier  string
	CodeChallenge string
}

// NewOAuthState generates a random state and an S256 PKCE pair.
func NewOAuthState() (OAuthState, error) {
	state, err := randomToken(pkceEntropyBytes)
	if err != nil {
		return OAuthState{}, err
	}
	verifier, err := randomToken(pkceEntropyBytes)
	if err != nil {
		return OAuthState{}, err
	}
	return OAuthState{State: state, CodeVerifier: verifier, CodeChallenge: CodeChallengeFromVerifier(verifier)}, nil
}

// CodeChallengeFromVerifier computes the S256 code challenge.
func CodeChallengeFromVerifier(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func randomToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
