package jose

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cybergodev/jose/internal/security"
	"github.com/cybergodev/jose/internal/signing"
)

// Config represents Processor configuration
type Config struct {
	// Algorithm is the alg every issued token is signed with and every parsed token must carry
	Algorithm string `yaml:"algorithm" json:"algorithm"`

	// SigningKey is the HMAC secret (minimum 32 bytes) or a PEM private key for RS/ES
	SigningKey string `yaml:"signing_key" json:"signing_key"`

	// VerifyKey is an optional PEM public key; the signing key's public half is used when empty
	VerifyKey string `yaml:"verify_key" json:"verify_key"`

	// AccessTokenTTL defines the lifetime of issued tokens
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" json:"access_token_ttl"`

	// Issuer is written to iss on issue and, when set, required on parse
	Issuer string `yaml:"issuer" json:"issuer"`

	// AllowNone permits the unsigned "none" algorithm
	AllowNone bool `yaml:"allow_none" json:"allow_none"`

	// EnableRateLimit enables rate limiting for token issuance
	EnableRateLimit bool `yaml:"enable_rate_limit" json:"enable_rate_limit"`

	// RateLimitRate specifies the maximum number of tokens per window
	RateLimitRate int `yaml:"rate_limit_rate" json:"rate_limit_rate"`

	// RateLimitWindow defines the time window for rate limiting
	RateLimitWindow time.Duration `yaml:"rate_limit_window" json:"rate_limit_window"`

	Revocation RevocationConfig `yaml:"revocation" json:"revocation"`
}

// DefaultConfig returns a default configuration; only the key is left to the caller.
func DefaultConfig() Config {
	return Config{
		Algorithm:       AlgHS256,
		AccessTokenTTL:  15 * time.Minute,
		Issuer:          "jose-service",
		RateLimitRate:   100,
		RateLimitWindow: time.Minute,
		Revocation:      DefaultRevocationConfig(),
	}
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig is LoadConfig for YAML already in memory.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c == nil {
		return ErrInvalidConfig
	}

	alg, err := signing.Canonical(c.Algorithm)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("%w: TTL must be positive", ErrInvalidConfig)
	}
	if c.EnableRateLimit && (c.RateLimitRate <= 0 || c.RateLimitWindow <= 0) {
		return fmt.Errorf("%w: rate limit rate and window must be positive", ErrInvalidConfig)
	}

	switch {
	case alg == AlgNone:
		if !c.AllowNone {
			return fmt.Errorf("%w: algorithm none requires allow_none", ErrInvalidConfig)
		}
		return nil
	case strings.HasPrefix(alg, "HS"):
		return validateSecret(c.SigningKey)
	default:
		_, _, err := c.asymmetricKeys(alg)
		return err
	}
}

func validateSecret(secret string) error {
	if len(secret) < 32 {
		return fmt.Errorf("%w: HMAC secret needs at least 32 bytes, got %d", ErrInvalidKey, len(secret))
	}
	if security.IsWeakKey([]byte(secret)) {
		return fmt.Errorf("%w: key must have sufficient entropy and complexity", ErrInvalidKey)
	}
	return nil
}

// asymmetricKeys parses the PEM keys and checks they belong to alg's family.
func (c *Config) asymmetricKeys(alg string) (priv, pub any, err error) {
	priv, err = signing.ParsePrivateKeyPEM([]byte(c.SigningKey))
	if err != nil {
		return nil, nil, err
	}

	pubPEM := c.VerifyKey
	if pubPEM == "" {
		pubPEM = c.SigningKey
	}
	pub, err = signing.ParsePublicKeyPEM([]byte(pubPEM))
	if err != nil {
		return nil, nil, err
	}

	var ok bool
	switch {
	case strings.HasPrefix(alg, "RS"):
		_, ok = priv.(*rsa.PrivateKey)
		if ok {
			_, ok = pub.(*rsa.PublicKey)
		}
	case strings.HasPrefix(alg, "ES"):
		_, ok = priv.(*ecdsa.PrivateKey)
		if ok {
			_, ok = pub.(*ecdsa.PublicKey)
		}
	}
	if !ok {
		return nil, nil, fmt.Errorf("%w: key type does not match %s", ErrInvalidKey, alg)
	}
	return priv, pub, nil
}
