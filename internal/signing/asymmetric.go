package signing

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Asymmetric implements RS256/384/512 and ES256/384/512. The bits select the
// digest; whether RSA or ECDSA is used follows from the key handed to Sign or
// Verify, so one provider serves both families.
type Asymmetric struct {
	bits  int
	rsa   *jwt.SigningMethodRSA
	ecdsa *jwt.SigningMethodECDSA
}

// NewAsymmetric returns the RSA/ECDSA provider for bits.
func NewAsymmetric(bits int) (*Asymmetric, error) {
	if err := checkBits(bits); err != nil {
		return nil, err
	}

	a := &Asymmetric{bits: bits}
	switch bits {
	case 256:
		a.rsa, a.ecdsa = jwt.SigningMethodRS256, jwt.SigningMethodES256
	case 384:
		a.rsa, a.ecdsa = jwt.SigningMethodRS384, jwt.SigningMethodES384
	case 512:
		a.rsa, a.ecdsa = jwt.SigningMethodRS512, jwt.SigningMethodES512
	}
	return a, nil
}

// Bits reports the SHA-2 digest size.
func (a *Asymmetric) Bits() int {
	return a.bits
}

// Sign accepts *rsa.PrivateKey, *ecdsa.PrivateKey or a PEM private key as []byte or string.
func (a *Asymmetric) Sign(input []byte, key any) ([]byte, error) {
	priv, err := privateKey(key)
	if err != nil {
		return nil, err
	}

	switch k := priv.(type) {
	case *rsa.PrivateKey:
		return a.rsa.Sign(string(input), k)
	case *ecdsa.PrivateKey:
		return a.ecdsa.Sign(string(input), k)
	default:
		return nil, fmt.Errorf("%w: unsupported private key type %T", ErrInvalidKey, priv)
	}
}

// Verify accepts public keys, private keys (their public half is used) or PEM.
func (a *Asymmetric) Verify(key any, signature []byte, input []byte) bool {
	pub, err := publicKey(key)
	if err != nil {
		return false
	}

	switch k := pub.(type) {
	case *rsa.PublicKey:
		return a.rsa.Verify(string(input), signature, k) == nil
	case *ecdsa.PublicKey:
		return a.ecdsa.Verify(string(input), signature, k) == nil
	default:
		return false
	}
}

func privateKey(key any) (any, error) {
	switch k := key.(type) {
	case *rsa.PrivateKey, *ecdsa.PrivateKey:
		return k, nil
	case string:
		return parsePrivatePEM([]byte(k))
	case []byte:
		return parsePrivatePEM(k)
	default:
		return nil, fmt.Errorf("%w: unsupported private key type %T", ErrInvalidKey, key)
	}
}

func publicKey(key any) (any, error) {
	switch k := key.(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey:
		return k, nil
	case *rsa.PrivateKey:
		return &k.PublicKey, nil
	case *ecdsa.PrivateKey:
		return &k.PublicKey, nil
	case string:
		return parsePublicPEM([]byte(k))
	case []byte:
		return parsePublicPEM(k)
	default:
		return nil, fmt.Errorf("%w: unsupported public key type %T", ErrInvalidKey, key)
	}
}

func parsePrivatePEM(data []byte) (any, error) {
	if k, err := jwt.ParseRSAPrivateKeyFromPEM(data); err == nil {
		return k, nil
	}
	if k, err := jwt.ParseECPrivateKeyFromPEM(data); err == nil {
		return k, nil
	}
	return nil, fmt.Errorf("%w: no RSA or EC private key in PEM data", ErrInvalidKey)
}

func parsePublicPEM(data []byte) (any, error) {
	if k, err := jwt.ParseRSAPublicKeyFromPEM(data); err == nil {
		return k, nil
	}
	if k, err := jwt.ParseECPublicKeyFromPEM(data); err == nil {
		return k, nil
	}
	if priv, err := parsePrivatePEM(data); err == nil {
		return publicKey(priv)
	}
	return nil, fmt.Errorf("%w: no RSA or EC public key in PEM data", ErrInvalidKey)
}

// ParsePrivateKeyPEM parses an RSA or EC private key.
func ParsePrivateKeyPEM(data []byte) (any, error) {
	return parsePrivatePEM(data)
}

// ParsePublicKeyPEM parses an RSA or EC public key, falling back to the public
// half of a private key.
func ParsePublicKeyPEM(data []byte) (any, error) {
	return parsePublicPEM(data)
}
