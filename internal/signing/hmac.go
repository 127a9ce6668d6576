package signing

import (
	"crypto"
	"crypto/hmac"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"fmt"

	"github.com/cybergodev/jose/internal/security"
)

// HMAC implements HS256, HS384 and HS512.
type HMAC struct {
	bits     int
	hashFunc crypto.Hash
}

// NewHMAC returns the HMAC provider for bits.
func NewHMAC(bits int) (*HMAC, error) {
	if err := checkBits(bits); err != nil {
		return nil, err
	}
	return &HMAC{bits: bits, hashFunc: hashFor(bits)}, nil
}

// Bits reports the SHA-2 digest size.
func (h *HMAC) Bits() int {
	return h.bits
}

func (h *HMAC) Sign(input []byte, key any) ([]byte, error) {
	secureKey, err := hmacKey(key)
	if err != nil {
		return nil, err
	}
	defer secureKey.Destroy()

	if !h.hashFunc.Available() {
		return nil, fmt.Errorf("hash function %v not available", h.hashFunc)
	}

	mac := hmac.New(h.hashFunc.New, secureKey.Bytes())
	mac.Write(input)
	return mac.Sum(nil), nil
}

func (h *HMAC) Verify(key any, signature []byte, input []byte) bool {
	expected, err := h.Sign(input, key)
	if err != nil {
		return false
	}
	defer security.ZeroBytes(expected)

	return security.SecureCompare(signature, expected)
}

func hmacKey(key any) (*security.SecureBytes, error) {
	switch k := key.(type) {
	case []byte:
		return security.NewSecureBytesFromSlice(k), nil
	case string:
		// strings are immutable, only the copy gets zeroed
		return security.NewSecureBytesFromSlice([]byte(k)), nil
	default:
		return nil, fmt.Errorf("%w: HMAC key must be []byte or string, got %T", ErrInvalidKey, key)
	}
}

func hashFor(bits int) crypto.Hash {
	switch bits {
	case 384:
		return crypto.SHA384
	case 512:
		return crypto.SHA512
	default:
		return crypto.SHA256
	}
}
