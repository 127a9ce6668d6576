package jose

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cybergodev/jose/internal/codec"
)

func newTestProcessor(t *testing.T, mutate func(*Config), opts ...Option) *Processor {
	t.Helper()

	cfg := hmacConfig()
	cfg.Revocation.EnableAutoCleanup = false
	if mutate != nil {
		mutate(&cfg)
	}

	p, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestProcessorCreation(t *testing.T) {
	tests := []struct {
		name      string
		secretKey string
		wantError bool
	}{
		{"Valid secret key", testSecretKey, false},
		{"Short secret key", "short", true},
		{"Empty secret key", "", true},
		{"Weak secret key", "passwordpasswordpasswordpassword", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.SigningKey = tt.secretKey

			p, err := New(cfg)
			if tt.wantError {
				assert.Error(t, err)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			defer p.Close()
		})
	}
}

func TestProcessorIssueAndParse(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	setClock(t, now)

	p := newTestProcessor(t, func(c *Config) { c.Issuer = "issuer-a" })

	claims := Claims{"sub": "user-1", "role": "admin"}
	text, err := p.Issue(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, Claims{"sub": "user-1", "role": "admin"}, claims, "caller's claims are not modified")

	tok, err := p.Parse(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, AlgHS256, tok.Algorithm())
	assert.Equal(t, TypeJOSE, tok.Header()[HeaderType])
	assert.Equal(t, "user-1", tok.Payload()["sub"])
	assert.Equal(t, "issuer-a", tok.Payload()[ClaimIssuer])
	assert.Equal(t, "1700000000", tok.Payload()[ClaimIssuedAt])
	assert.Equal(t, "1700000900", tok.Payload()[ClaimExpiresAt])

	id, ok := tok.Payload()[ClaimID].(string)
	require.True(t, ok)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
}

func TestProcessorKeepsExplicitClaims(t *testing.T) {
	p := newTestProcessor(t, func(c *Config) { c.Issuer = "" })

	exp := formatEpoch(time.Now().Add(time.Minute))
	text, err := p.Issue(context.Background(), Claims{
		ClaimExpiresAt: exp,
		ClaimID:        "fixed-id",
		ClaimIssuer:    "someone",
	})
	require.NoError(t, err)

	tok, err := p.Parse(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, exp, tok.Payload()[ClaimExpiresAt])
	assert.Equal(t, "fixed-id", tok.Payload()[ClaimID])
	assert.Equal(t, "someone", tok.Payload()[ClaimIssuer])
}

func TestProcessorAsymmetric(t *testing.T) {
	for _, alg := range []string{AlgRS256, AlgRS512, AlgES256, AlgES384, AlgES512} {
		t.Run(alg, func(t *testing.T) {
			signKey, _ := keyFor(alg)
			priv, pub := pemEncode(t, signKey)

			p := newTestProcessor(t, func(c *Config) {
				c.Algorithm = alg
				c.SigningKey = priv
				c.VerifyKey = pub
			})

			text, err := p.Issue(context.Background(), Claims{"sub": "svc"})
			require.NoError(t, err)

			tok, err := p.Parse(context.Background(), text)
			require.NoError(t, err)
			assert.Equal(t, alg, tok.Algorithm())
		})
	}
}

func TestProcessorRejectsAlgorithmConfusion(t *testing.T) {
	priv, pub := pemEncode(t, testRSAKey)
	p := newTestProcessor(t, func(c *Config) {
		c.Algorithm = AlgRS256
		c.SigningKey = priv
		c.VerifyKey = pub
		c.Issuer = ""
	})

	// HS256 keyed with the public key text: the classic RS/HS confusion
	forged, err := Sign(Claims{"sub": "attacker"}, AlgHS256, []byte(pub))
	require.NoError(t, err)
	_, err = p.Parse(context.Background(), forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned := seg(`{"alg":"none"}`) + "." + seg(`{"sub":"attacker"}`) + "."
	_, err = p.Parse(context.Background(), unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	text, err := p.Issue(context.Background(), Claims{"sub": "user"})
	require.NoError(t, err)
	parts := strings.Split(text, ".")
	lower := seg(`{"alg":"rs256","typ":"JOSE"}`) + "." + parts[1] + "." + parts[2]
	_, err = p.Parse(context.Background(), lower)
	assert.ErrorIs(t, err, ErrInvalidToken, "alg must match exactly")
}

func TestProcessorRejects(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	setClock(t, now)

	p := newTestProcessor(t, func(c *Config) { c.Issuer = "issuer-a" })
	other := newTestProcessor(t, func(c *Config) {
		c.Issuer = "issuer-a"
		c.SigningKey = "aB3$fG7*kL9#pQ2&vX5!zC8@mN4%rT6^wY1+eH0-iJ3~oU7$bD9#gK2&sF5*nM8@"
	})
	wrongIssuer := newTestProcessor(t, func(c *Config) { c.Issuer = "issuer-b" })

	good, err := p.Issue(context.Background(), Claims{"sub": "u"})
	require.NoError(t, err)
	fromOther, err := other.Issue(context.Background(), Claims{"sub": "u"})
	require.NoError(t, err)
	fromWrongIssuer, err := wrongIssuer.Issue(context.Background(), Claims{"sub": "u"})
	require.NoError(t, err)
	expired, err := p.Issue(context.Background(), Claims{ClaimExpiresAt: formatEpoch(now.Add(-time.Second))})
	require.NoError(t, err)

	parts := strings.Split(good, ".")
	tampered := parts[0] + "." + seg(`{"sub":"admin"}`) + "." + parts[2]

	tests := map[string]string{
		"empty":         "",
		"oversized":     strings.Repeat("a", maxTokenSize+1),
		"garbage":       "not-a-token",
		"jwe":           "a.b.c.d.e",
		"tampered":      tampered,
		"other key":     fromOther,
		"wrong issuer":  fromWrongIssuer,
		"expired":       expired,
		"no signature":  parts[0] + "." + parts[1] + ".",
		"bad signature": parts[0] + "." + parts[1] + "." + codec.EncodeSegment([]byte("forged")),
	}

	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			tok, err := p.Parse(context.Background(), text)
			assert.Nil(t, tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestProcessorNone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Algorithm = AlgNone
	_, err := New(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	p := newTestProcessor(t, func(c *Config) {
		c.Algorithm = "NONE"
		c.AllowNone = true
		c.SigningKey = ""
	})
	assert.Equal(t, AlgNone, p.Algorithm())

	text, err := p.Issue(context.Background(), Claims{"sub": "u"})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(text, "."))

	_, err = p.Parse(context.Background(), text)
	assert.NoError(t, err)
}

func TestProcessorRevocation(t *testing.T) {
	p := newTestProcessor(t, nil)
	ctx := context.Background()

	text, err := p.Issue(ctx, Claims{"sub": "u"})
	require.NoError(t, err)

	revoked, err := p.IsRevoked(text)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, p.Revoke(text))

	revoked, err = p.IsRevoked(text)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = p.Parse(ctx, text)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	second, err := p.Issue(ctx, Claims{"sub": "u"})
	require.NoError(t, err)
	_, err = p.Parse(ctx, second)
	assert.NoError(t, err, "other tokens are unaffected")
}

func TestProcessorRevokeByID(t *testing.T) {
	p := newTestProcessor(t, nil)
	ctx := context.Background()

	text, err := p.Issue(ctx, Claims{ClaimID: "known-id"})
	require.NoError(t, err)

	require.NoError(t, p.RevokeByID("known-id", time.Now().Add(time.Hour)))
	_, err = p.Parse(ctx, text)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	assert.Error(t, p.RevokeByID("", time.Now().Add(time.Hour)))
}

func TestProcessorRevokeRequiresValidSignature(t *testing.T) {
	p := newTestProcessor(t, nil)

	forged, err := Sign(Claims{ClaimID: "victim"}, AlgHS256, []byte("some-other-secret-some-other-secret"))
	require.NoError(t, err)
	assert.ErrorIs(t, p.Revoke(forged), ErrInvalidToken)

	noID, err := Sign(Claims{"sub": "u"}, AlgHS256, []byte(testSecretKey))
	require.NoError(t, err)
	assert.ErrorIs(t, p.Revoke(noID), ErrTokenMissingID)

	_, err = p.IsRevoked("garbage")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestProcessorRevokeExpiredToken(t *testing.T) {
	p := newTestProcessor(t, nil)

	text, err := p.Issue(context.Background(), Claims{
		ClaimExpiresAt: formatEpoch(time.Now().Add(-time.Minute)),
	})
	require.NoError(t, err)

	// expiry is ignored for revocation; the entry simply never matches
	require.NoError(t, p.Revoke(text))
	revoked, err := p.IsRevoked(text)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestProcessorRateLimit(t *testing.T) {
	p := newTestProcessor(t, func(c *Config) {
		c.EnableRateLimit = true
		c.RateLimitRate = 3
		c.RateLimitWindow = time.Hour
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := p.Issue(ctx, Claims{"sub": "alice"})
		require.NoError(t, err)
	}
	_, err := p.Issue(ctx, Claims{"sub": "alice"})
	assert.ErrorIs(t, err, ErrRateLimitExceeded)

	_, err = p.Issue(ctx, Claims{"sub": "bob"})
	assert.NoError(t, err, "limits are per subject")

	for i := 0; i < 3; i++ {
		_, err = p.Issue(ctx, nil)
		require.NoError(t, err)
	}
	_, err = p.Issue(ctx, nil)
	assert.ErrorIs(t, err, ErrRateLimitExceeded, "subjectless claims share one bucket")
}

func TestProcessorSharedRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	defer rl.Close()

	p := newTestProcessor(t, nil, WithRateLimiter(rl))
	_, err := p.Issue(context.Background(), Claims{"sub": "x"})
	require.NoError(t, err)
	_, err = p.Issue(context.Background(), Claims{"sub": "x"})
	assert.ErrorIs(t, err, ErrRateLimitExceeded)

	require.NoError(t, p.Close())
	assert.False(t, rl.Allow("x"))
	assert.True(t, rl.Allow("y"), "the caller's limiter stays open")
}

func TestProcessorClaimsValidation(t *testing.T) {
	p := newTestProcessor(t, nil)

	_, err := p.Issue(context.Background(), Claims{"note": "bad\x00value"})
	require.Error(t, err)

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "note", vErr.Field)
}

func TestProcessorContext(t *testing.T) {
	p := newTestProcessor(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Issue(ctx, Claims{"sub": "u"})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = p.Parse(ctx, "a.b.c")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessorClose(t *testing.T) {
	cfg := hmacConfig()
	p, err := New(cfg)
	require.NoError(t, err)

	text, err := p.Issue(context.Background(), Claims{"sub": "u"})
	require.NoError(t, err)

	assert.False(t, p.IsClosed())
	require.NoError(t, p.Close())
	assert.True(t, p.IsClosed())

	assert.ErrorIs(t, p.Close(), ErrProcessorClosed)

	_, err = p.Issue(context.Background(), Claims{"sub": "u"})
	assert.ErrorIs(t, err, ErrProcessorClosed)
	_, err = p.Parse(context.Background(), text)
	assert.ErrorIs(t, err, ErrProcessorClosed)
	assert.ErrorIs(t, p.Revoke(text), ErrProcessorClosed)
	assert.ErrorIs(t, p.RevokeByID("id", time.Now()), ErrProcessorClosed)
	_, err = p.IsRevoked(text)
	assert.ErrorIs(t, err, ErrProcessorClosed)
}

func TestProcessorLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := newTestProcessor(t, nil, WithLogger(zap.New(core)))

	text, err := p.Issue(context.Background(), Claims{"sub": "u"})
	require.NoError(t, err)
	_, err = p.Parse(context.Background(), text)
	require.NoError(t, err)
	_, err = p.Parse(context.Background(), "garbage")
	require.Error(t, err)

	assert.Equal(t, 1, logs.FilterMessage("token issued").Len())
	assert.Equal(t, 1, logs.FilterMessage("token parsed").Len())

	rejected := logs.FilterMessage("token rejected").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, zapcore.WarnLevel, rejected[0].Level)
	assert.Equal(t, "malformed token", rejected[0].ContextMap()["reason"])

	for _, entry := range logs.All() {
		for _, v := range entry.ContextMap() {
			assert.NotContains(t, fmt.Sprint(v), testSecretKey)
		}
	}
}

func TestProcessorConcurrentUse(t *testing.T) {
	p := newTestProcessor(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				text, err := p.Issue(ctx, Claims{"sub": fmt.Sprintf("user-%d", g)})
				if !assert.NoError(t, err) {
					return
				}
				_, err = p.Parse(ctx, text)
				assert.NoError(t, err)
			}
		}(g)
	}
	wg.Wait()
}
