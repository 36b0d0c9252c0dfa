package util

import (
	gonanoid "github.com/matoous/go-nanoid"
)

const (
	keyAlphabet       = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	referenceAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	referenceLength   = 10
)

// NewSecret returns a random alphanumeric token of length n.
func NewSecret(n int) (string, error) {
	return gonanoid.Generate(keyAlphabet, n)
}

// NewReference returns a short human-readable code without ambiguous characters.
func NewReference(prefix string) (string, error) {
	code, err := gonanoid.Generate(referenceAlphabet, referenceLength)
	if err != nil {
		return "", err
	}
	return prefix + code, nil
}
