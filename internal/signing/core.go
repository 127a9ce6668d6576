// Package signing implements the JWA providers (none, HMAC, RSA/ECDSA) and the
// static dispatch table that maps an alg header value onto one of them.
package signing

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cybergodev/jose/internal/joseerr"
)

// ErrInvalidKey is returned by Sign when the key material does not fit the provider.
var ErrInvalidKey = errors.New("invalid key for algorithm")

// Provider signs and verifies a signing input. Implementations are immutable
// after construction and safe for concurrent use.
type Provider interface {
	Sign(input []byte, key any) ([]byte, error)
	Verify(key any, signature []byte, input []byte) bool
}

// Factory builds a provider for a digest size.
type Factory func(bits int) (Provider, error)

const familyNone = "none"

var registry = map[string]Factory{
	familyNone: func(int) (Provider, error) { return None{}, nil },
	"HS":       func(bits int) (Provider, error) { return NewHMAC(bits) },
	"RS":       func(bits int) (Provider, error) { return NewAsymmetric(bits) },
	"ES":       func(bits int) (Provider, error) { return NewAsymmetric(bits) },
}

var algorithms = []string{
	"HS256", "HS384", "HS512",
	"RS256", "RS384", "RS512",
	"ES256", "ES384", "ES512",
	familyNone,
}

var algPattern = regexp.MustCompile(`(?i)^(RS|ES|HS|none)(256|384|512)?$`)

// Algorithms lists every accepted alg header value.
func Algorithms() []string {
	out := make([]string, len(algorithms))
	copy(out, algorithms)
	return out
}

// Canonical normalizes alg to its registered spelling ("hs256" becomes "HS256",
// "NONE" becomes "none") or fails with ErrUnsupportedAlgorithm.
func Canonical(alg string) (string, error) {
	family, bits, err := split(alg)
	if err != nil {
		return "", err
	}
	return family + bits, nil
}

// Resolve returns a fresh provider for alg. Matching is case-insensitive; "none"
// takes no bits suffix and every other family requires one.
func Resolve(alg string) (Provider, error) {
	family, suffix, err := split(alg)
	if err != nil {
		return nil, err
	}

	factory, ok := registry[family]
	if !ok {
		return nil, unsupported(alg)
	}
	if family == familyNone {
		return factory(0)
	}

	bits, err := ParseBits(suffix)
	if err != nil {
		return nil, err
	}
	return factory(bits)
}

func split(alg string) (family, bits string, err error) {
	m := algPattern.FindStringSubmatch(strings.TrimSpace(alg))
	if m == nil {
		return "", "", unsupported(alg)
	}

	family, bits = strings.ToUpper(m[1]), m[2]
	if family == "NONE" {
		family = familyNone
	}

	if (family == familyNone) != (bits == "") {
		return "", "", unsupported(alg)
	}
	return family, bits, nil
}

// ParseBits converts a textual digest size, rejecting anything but 256, 384 or 512.
func ParseBits(s string) (int, error) {
	bits, err := strconv.Atoi(s)
	if err != nil {
		return 0, joseerr.NewArgumentError(joseerr.MsgInvalidBits, err)
	}
	if err := checkBits(bits); err != nil {
		return 0, err
	}
	return bits, nil
}

func checkBits(bits int) error {
	switch bits {
	case 256, 384, 512:
		return nil
	default:
		return joseerr.NewArgumentError(joseerr.MsgInvalidBits, nil)
	}
}

func unsupported(alg string) error {
	return fmt.Errorf("%w (got %q)", joseerr.ErrUnsupportedAlgorithm, alg)
}
