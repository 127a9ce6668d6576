package jose

import (
	"strings"

	"github.com/cybergodev/jose/internal/codec"
	"github.com/cybergodev/jose/internal/signing"
)

// SignedToken is a JWS: a Token plus its signature. The provider is resolved
// from the alg header on every Sign and Verify, never cached, so a SignedToken
// whose header changes between calls always verifies against the current alg.
type SignedToken struct {
	*Token

	signature []byte
	state     State
}

// NewSignedToken returns an unsigned JWS over copies of header and payload.
func NewSignedToken(header Header, payload Claims) *SignedToken {
	return &SignedToken{Token: NewToken(header, payload)}
}

// Sign sets alg and typ, signs the signing input with key and returns the
// signature. An unknown alg fails before the header is touched.
func (s *SignedToken) Sign(alg string, key any) ([]byte, error) {
	alg = strings.TrimSpace(alg)
	provider, err := signing.Resolve(alg)
	if err != nil {
		return nil, err
	}

	header := s.header.Clone()
	header[HeaderAlgorithm] = alg
	header[HeaderType] = TypeJOSE

	staged := &Token{header: header, payload: s.payload, raw: s.raw}
	input, err := staged.SigningInput()
	if err != nil {
		return nil, err
	}

	sig, err := provider.Sign([]byte(input), key)
	if err != nil {
		return nil, err
	}

	s.header[HeaderAlgorithm] = alg
	s.header[HeaderType] = TypeJOSE
	s.SetSignature(sig)
	return sig, nil
}

// Signature returns the signature, or nil while the token is unsigned.
func (s *SignedToken) Signature() []byte {
	if s.state != StateSigned {
		return nil
	}
	return s.signature
}

// SetSignature installs sig and marks the token signed. A nil sig marks it
// unsigned; an empty non-nil sig is a valid signature for alg none.
func (s *SignedToken) SetSignature(sig []byte) {
	if sig == nil {
		s.signature, s.state = nil, StateUnsigned
		return
	}
	s.signature, s.state = sig, StateSigned
}

// State reports whether the token carries a signature.
func (s *SignedToken) State() State {
	return s.state
}

// IsSigned is shorthand for State() == StateSigned.
func (s *SignedToken) IsSigned() bool {
	return s.state == StateSigned
}

// Algorithm returns the alg header, or "" when absent or not a string.
func (s *SignedToken) Algorithm() string {
	alg, _ := s.header[HeaderAlgorithm].(string)
	return alg
}

// Verify checks the signature against key under the current alg header. Any
// failure, including an unknown alg, is reported as false.
func (s *SignedToken) Verify(key any) bool {
	if s.state != StateSigned {
		return false
	}

	alg, ok := s.header[HeaderAlgorithm].(string)
	if !ok {
		return false
	}
	provider, err := signing.Resolve(alg)
	if err != nil {
		return false
	}

	input, err := s.SigningInput()
	if err != nil {
		return false
	}
	return provider.Verify(key, s.signature, []byte(input))
}

// Validate is Verify(key) plus, when checkExpires is set, the expiry check.
func (s *SignedToken) Validate(key any, checkExpires bool) bool {
	return s.Verify(key) && s.Token.Validate(key, checkExpires)
}

// Serialize renders the compact form: signing input "." base64url(signature).
func (s *SignedToken) Serialize() (string, error) {
	if s.state != StateSigned {
		return "", ErrNotSigned
	}

	input, err := s.SigningInput()
	if err != nil {
		return "", err
	}
	return input + "." + codec.EncodeSegment(s.signature), nil
}
