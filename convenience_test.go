package jose

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvenienceSignAndParse(t *testing.T) {
	for _, alg := range []string{AlgHS256, AlgRS384, AlgES512} {
		t.Run(alg, func(t *testing.T) {
			signKey, verifyKey := keyFor(alg)

			text, err := Sign(Claims{"sub": "u"}, alg, signKey)
			require.NoError(t, err)

			tok, err := Parse(text, verifyKey)
			require.NoError(t, err)
			assert.Equal(t, "u", tok.Payload()["sub"])
			assert.Equal(t, alg, tok.Algorithm())
		})
	}
}

func TestConvenienceSignErrors(t *testing.T) {
	_, err := Sign(Claims{}, "XS256", []byte(testSecretKey))
	assert.True(t, errors.Is(err, ErrUnsupportedAlgorithm))

	_, err = Sign(Claims{}, AlgES256, []byte(testSecretKey))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestConvenienceParseRejects(t *testing.T) {
	key := []byte(testSecretKey)

	_, err := Parse("one", key)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	text, err := Sign(Claims{"sub": "u"}, AlgHS256, key)
	require.NoError(t, err)
	_, err = Parse(text, []byte("wrong-key-wrong-key-wrong-key-wrong"))
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := Sign(Claims{ClaimExpiresAt: formatEpoch(time.Now().Add(-time.Minute))}, AlgHS256, key)
	require.NoError(t, err)
	_, err = Parse(expired, key)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := Sign(Claims{"sub": "u"}, "None", nil)
	require.NoError(t, err)
	_, err = Parse(unsigned, nil)
	assert.ErrorIs(t, err, ErrInvalidToken)

	tok, err := Decode(unsigned)
	require.NoError(t, err)
	assert.True(t, tok.Verify(nil), "Decode and Verify still accept none explicitly")
}
