package jose

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cybergodev/jose/internal/revocation"
	"github.com/cybergodev/jose/internal/security"
	"github.com/cybergodev/jose/internal/signing"
)

const (
	maxTokenSize          = 8192
	anonymousRateLimitKey = "anonymous"
	defaultRevocationTTL  = 24 * time.Hour
)

// Processor issues and parses compact tokens under one configured algorithm
// and key pair. It is safe for concurrent use.
type Processor struct {
	algorithm string
	secret    *security.SecureBytes // HMAC only
	signKey   any                   // RS/ES private key
	verifyKey any                   // RS/ES public key
	ttl       time.Duration
	issuer    string

	revocation  *revocation.Manager
	rateLimiter *RateLimiter
	ownsLimiter bool
	logger      *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// Option customizes a Processor.
type Option func(*processorOptions)

type processorOptions struct {
	logger      *zap.Logger
	rateLimiter *RateLimiter
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *processorOptions) {
		o.logger = logger
	}
}

// WithRateLimiter installs a shared limiter for Issue, overriding the one built
// from Config. The caller keeps ownership; Close does not close it.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(o *processorOptions) {
		o.rateLimiter = rl
	}
}

// New creates a Processor from cfg.
func New(cfg Config, opts ...Option) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	var o processorOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	alg, err := signing.Canonical(cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	p := &Processor{
		algorithm: alg,
		ttl:       cfg.AccessTokenTTL,
		issuer:    cfg.Issuer,
		logger:    o.logger.Named("jose"),
	}

	switch {
	case alg == AlgNone:
	case strings.HasPrefix(alg, "HS"):
		p.secret = security.NewSecureBytesFromSlice([]byte(cfg.SigningKey))
	default:
		p.signKey, p.verifyKey, err = cfg.asymmetricKeys(alg)
		if err != nil {
			return nil, err
		}
	}

	store := revocation.NewMemoryStore(cfg.Revocation.MaxSize)
	p.revocation = revocation.NewManager(store, cfg.Revocation, p.logger)

	switch {
	case o.rateLimiter != nil:
		p.rateLimiter = o.rateLimiter
	case cfg.EnableRateLimit:
		p.rateLimiter = NewRateLimiter(cfg.RateLimitRate, cfg.RateLimitWindow)
		p.ownsLimiter = true
	}

	if alg == AlgNone {
		p.logger.Warn("processor accepts unsigned tokens", zap.String("alg", alg))
	}

	runtime.SetFinalizer(p, (*Processor).finalize)
	return p, nil
}

// Algorithm returns the canonical alg this processor signs with and requires.
func (p *Processor) Algorithm() string {
	return p.algorithm
}

// Issue signs claims and returns the compact token. iat, exp, iss and jti are
// filled in when absent; the caller's map is not modified.
func (p *Processor) Issue(ctx context.Context, claims Claims) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := validateClaims(claims); err != nil {
		return "", fmt.Errorf("claims validation failed: %w", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return "", ErrProcessorClosed
	}

	if p.rateLimiter != nil {
		key, _ := claims[ClaimSubject].(string)
		if key == "" {
			key = anonymousRateLimitKey
		}
		if !p.rateLimiter.Allow(key) {
			p.logger.Warn("issue rate limited", zap.String("key", key))
			return "", ErrRateLimitExceeded
		}
	}

	tok := NewSignedToken(Header{}, claims)
	now := nowFunc()
	if _, ok := tok.Claim(ClaimIssuedAt); !ok {
		tok.SetIssuedAt(now)
	}
	if _, ok := tok.Claim(ClaimExpiresAt); !ok {
		tok.SetExpiresAt(now.Add(p.ttl))
	}
	if _, ok := tok.Claim(ClaimIssuer); !ok && p.issuer != "" {
		tok.SetClaim(ClaimIssuer, p.issuer)
	}
	if _, ok := tok.Claim(ClaimID); !ok {
		tok.SetClaim(ClaimID, uuid.NewString())
	}

	if _, err := tok.Sign(p.algorithm, p.signingKey()); err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	out, err := tok.Serialize()
	if err != nil {
		return "", fmt.Errorf("failed to serialize token: %w", err)
	}

	p.logger.Debug("token issued",
		zap.String("alg", p.algorithm),
		zap.Any("jti", tok.Payload()[ClaimID]),
	)
	return out, nil
}

// Parse decodes and checks a token: the alg must equal the configured one, the
// signature must verify, exp must not have passed, iss must match when an
// issuer is configured and the jti must not be revoked. Any failure other
// than revocation is reported as ErrInvalidToken.
func (p *Processor) Parse(ctx context.Context, tokenString string) (*SignedToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if tokenString == "" || len(tokenString) > maxTokenSize {
		return nil, p.reject("token size out of bounds")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrProcessorClosed
	}

	tok, err := p.verify(tokenString, true)
	if err != nil {
		return nil, err
	}

	if p.issuer != "" {
		if iss, _ := tok.Payload()[ClaimIssuer].(string); iss != p.issuer {
			return nil, p.reject("issuer mismatch")
		}
	}

	if id, _ := tok.Payload()[ClaimID].(string); id != "" {
		revoked, err := p.revocation.IsRevoked(id)
		if err != nil {
			return nil, fmt.Errorf("revocation check failed: %w", err)
		}
		if revoked {
			p.logger.Warn("revoked token presented", zap.String("jti", id))
			return nil, ErrTokenRevoked
		}
	}

	p.logger.Debug("token parsed", zap.String("alg", tok.Algorithm()))
	return tok, nil
}

// Revoke verifies the token's signature, ignoring expiry, and revokes its jti
// until exp, or for 24 hours when it has no exp.
func (p *Processor) Revoke(tokenString string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrProcessorClosed
	}

	tok, err := p.verify(tokenString, false)
	if err != nil {
		return err
	}

	id, err := tokenID(tok)
	if err != nil {
		return err
	}

	until, ok := tok.ExpiresAt()
	if !ok {
		until = nowFunc().Add(defaultRevocationTTL)
	}
	return p.revokeLocked(id, until)
}

// RevokeByID revokes a jti until the given time.
func (p *Processor) RevokeByID(id string, until time.Time) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrProcessorClosed
	}
	return p.revokeLocked(id, until)
}

// IsRevoked reports whether the token's jti is revoked. The signature is not checked.
func (p *Processor) IsRevoked(tokenString string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return false, ErrProcessorClosed
	}

	tok, err := Decode(tokenString)
	if err != nil {
		return false, fmt.Errorf("failed to parse token: %w", err)
	}
	id, err := tokenID(tok)
	if err != nil {
		return false, err
	}
	return p.revocation.IsRevoked(id)
}

// Close stops background cleanup and zeroes the key. Further calls,
// including Close, return ErrProcessorClosed.
func (p *Processor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrProcessorClosed
	}

	var closeErr error
	if err := p.revocation.Close(); err != nil {
		closeErr = fmt.Errorf("revocation manager close failed: %w", err)
	}

	if p.secret != nil {
		p.secret.Destroy()
		p.secret = nil
	}
	p.signKey, p.verifyKey = nil, nil

	if p.rateLimiter != nil && p.ownsLimiter {
		p.rateLimiter.Close()
	}
	p.rateLimiter = nil

	p.closed = true
	runtime.SetFinalizer(p, nil)
	return closeErr
}

// IsClosed returns true if the processor has been closed
func (p *Processor) IsClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

func (p *Processor) finalize() {
	if !p.closed {
		p.Close()
	}
}

// verify decodes tokenString and checks alg and signature, plus expiry when
// checkExpires is set. Callers hold p.mu.
func (p *Processor) verify(tokenString string, checkExpires bool) (*SignedToken, error) {
	tok, err := Decode(tokenString)
	if err != nil {
		return nil, p.reject("malformed token")
	}

	// the header alg must match exactly; a token may not pick its own algorithm
	if tok.Algorithm() != p.algorithm {
		return nil, p.reject("algorithm mismatch")
	}

	if !tok.Verify(p.verificationKey()) {
		return nil, p.reject("signature verification failed")
	}
	if checkExpires && tok.IsExpired() {
		return nil, p.reject("token expired")
	}
	return tok, nil
}

func (p *Processor) revokeLocked(id string, until time.Time) error {
	if err := p.revocation.Revoke(id, until); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	p.logger.Debug("token revoked", zap.String("jti", id), zap.Time("until", until))
	return nil
}

func (p *Processor) reject(reason string) error {
	p.logger.Warn("token rejected", zap.String("reason", reason))
	security.SecureRandomDelay()
	return ErrInvalidToken
}

func (p *Processor) signingKey() any {
	if p.secret != nil {
		return p.secret.Bytes()
	}
	return p.signKey
}

func (p *Processor) verificationKey() any {
	if p.secret != nil {
		return p.secret.Bytes()
	}
	return p.verifyKey
}

func tokenID(tok *SignedToken) (string, error) {
	id, _ := tok.Payload()[ClaimID].(string)
	if id == "" {
		return "", ErrTokenMissingID
	}
	return id, nil
}
