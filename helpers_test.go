package jose

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecretKey = "Kx9#mP2$vL8@nQ5!wR7&tY3^uI6*oE4%aS1+dF0-gH9~jK2#bN5$cM8@xZ7&vB4!"

var (
	testRSAKey *rsa.PrivateKey
	testECKeys map[int]*ecdsa.PrivateKey
)

func init() {
	var err error
	testRSAKey, err = rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}

	testECKeys = make(map[int]*ecdsa.PrivateKey)
	for bits, curve := range map[int]elliptic.Curve{256: elliptic.P256(), 384: elliptic.P384(), 512: elliptic.P521()} {
		k, err := ecdsa.GenerateKey(curve, rand.Reader)
		if err != nil {
			panic(err)
		}
		testECKeys[bits] = k
	}
}

// keyFor returns a signing key and its verification key for alg.
func keyFor(alg string) (sign, verify any) {
	switch alg[:2] {
	case "HS":
		return []byte(testSecretKey), []byte(testSecretKey)
	case "RS":
		return testRSAKey, &testRSAKey.PublicKey
	case "ES":
		k := testECKeys[bitsOf(alg)]
		return k, &k.PublicKey
	default:
		return nil, nil
	}
}

func bitsOf(alg string) int {
	switch alg[len(alg)-3:] {
	case "384":
		return 384
	case "512":
		return 512
	default:
		return 256
	}
}

// setClock pins nowFunc for the duration of the test.
func setClock(t *testing.T, now time.Time) {
	t.Helper()
	prev := nowFunc
	nowFunc = func() time.Time { return now }
	t.Cleanup(func() { nowFunc = prev })
}

func pemEncode(t *testing.T, key any) (private, public string) {
	t.Helper()

	var privBlock *pem.Block
	var pub any
	switch k := key.(type) {
	case *rsa.PrivateKey:
		privBlock = &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(k)}
		pub = &k.PublicKey
	case *ecdsa.PrivateKey:
		der, err := x509.MarshalECPrivateKey(k)
		require.NoError(t, err)
		privBlock = &pem.Block{Type: "EC PRIVATE KEY", Bytes: der}
		pub = &k.PublicKey
	default:
		t.Fatalf("unsupported key type %T", key)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)

	return string(pem.EncodeToMemory(privBlock)),
		string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
}
