// Package jose signs, verifies and serializes compact JOSE tokens (JWS).
package jose

import (
	"maps"

	"github.com/cybergodev/jose/internal/signing"
)

// Header is the JOSE header. It carries alg, and typ once the token is signed.
type Header map[string]any

// Claims is the token payload. exp and iat hold epoch seconds as decimal strings.
type Claims map[string]any

// Registered header parameter and claim names.
const (
	HeaderAlgorithm = "alg"
	HeaderType      = "typ"

	ClaimExpiresAt = "exp"
	ClaimIssuedAt  = "iat"
	ClaimIssuer    = "iss"
	ClaimSubject   = "sub"
	ClaimID        = "jti"
)

// TypeJOSE is the typ header value written by Sign.
const TypeJOSE = "JOSE"

// Accepted alg header values.
const (
	AlgNone  = "none"
	AlgHS256 = "HS256"
	AlgHS384 = "HS384"
	AlgHS512 = "HS512"
	AlgRS256 = "RS256"
	AlgRS384 = "RS384"
	AlgRS512 = "RS512"
	AlgES256 = "ES256"
	AlgES384 = "ES384"
	AlgES512 = "ES512"
)

// Algorithms lists every accepted alg header value.
func Algorithms() []string {
	return signing.Algorithms()
}

// State is the signing state of a SignedToken.
type State int

const (
	StateUnsigned State = iota
	StateSigned
)

func (s State) String() string {
	switch s {
	case StateSigned:
		return "signed"
	case StateUnsigned:
		return "unsigned"
	default:
		return "unknown"
	}
}

// Clone returns a shallow copy; nil stays nil.
func (h Header) Clone() Header {
	return maps.Clone(h)
}

// Clone returns a shallow copy; nil stays nil.
func (c Claims) Clone() Claims {
	return maps.Clone(c)
}
