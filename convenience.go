package jose

import (
	"strings"
)

// Sign builds a token from claims, signs it with alg and key and returns the
// compact form. It is a one-shot helper with no defaults, rate limiting or
// revocation; use a Processor for those.
func Sign(claims Claims, alg string, key any) (string, error) {
	tok := NewSignedToken(Header{}, claims)
	if _, err := tok.Sign(alg, key); err != nil {
		return "", err
	}
	return tok.Serialize()
}

// Parse decodes token and returns it only if the signature verifies under key
// and exp has not passed. Tokens with alg none are refused; callers that
// really want them can use Decode and Verify.
func Parse(token string, key any) (*SignedToken, error) {
	tok, err := Decode(token)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(strings.TrimSpace(tok.Algorithm()), AlgNone) {
		return nil, ErrInvalidToken
	}
	if !tok.Validate(key, true) {
		return nil, ErrInvalidToken
	}
	return tok, nil
}
