package jose

import (
	"fmt"
	"time"

	"github.com/cybergodev/jose/internal/codec"
)

// Token is an unsigned JWT: a header and a set of claims.
type Token struct {
	header  Header
	payload Claims

	// Set by Decode. A raw segment is reused for the signing input only while
	// the live map still marshals to the canonical text recorded next to it.
	raw [2]rawSegment
}

type rawSegment struct {
	encoded   string
	canonical string
}

// NewToken returns a token over copies of header and payload. Nil maps are
// replaced by empty ones.
func NewToken(header Header, payload Claims) *Token {
	t := &Token{
		header:  header.Clone(),
		payload: payload.Clone(),
	}
	if t.header == nil {
		t.header = Header{}
	}
	if t.payload == nil {
		t.payload = Claims{}
	}
	return t
}

// Header returns the live header map. Changes made through it are seen by
// SigningInput and Verify.
func (t *Token) Header() Header {
	return t.header
}

// SetHeader replaces the header. A nil header becomes an empty one.
func (t *Token) SetHeader(h Header) {
	if h == nil {
		h = Header{}
	}
	t.header = h
}

// Payload returns the live claims map.
func (t *Token) Payload() Claims {
	return t.payload
}

// SetPayload replaces the claims. Nil claims become an empty set.
func (t *Token) SetPayload(c Claims) {
	if c == nil {
		c = Claims{}
	}
	t.payload = c
}

// Claim returns a single claim value.
func (t *Token) Claim(name string) (any, bool) {
	v, ok := t.payload[name]
	return v, ok
}

// SetClaim sets a single claim value.
func (t *Token) SetClaim(name string, value any) {
	t.payload[name] = value
}

// SetExpiresIn sets exp to now plus d.
func (t *Token) SetExpiresIn(d time.Duration) {
	t.SetExpiresAt(nowFunc().Add(d))
}

// SetExpiresAt sets exp to an absolute time.
func (t *Token) SetExpiresAt(at time.Time) {
	t.payload[ClaimExpiresAt] = formatEpoch(at)
}

// SetIssuedAt sets iat. The zero time means now.
func (t *Token) SetIssuedAt(at time.Time) {
	if at.IsZero() {
		at = nowFunc()
	}
	t.payload[ClaimIssuedAt] = formatEpoch(at)
}

// ExpiresAt returns exp. ok is false when exp is absent or unreadable.
func (t *Token) ExpiresAt() (at time.Time, ok bool) {
	v, present := t.payload[ClaimExpiresAt]
	if !present {
		return time.Time{}, false
	}
	return parseEpoch(v)
}

// IssuedAt returns iat. ok is false when iat is absent or unreadable.
func (t *Token) IssuedAt() (at time.Time, ok bool) {
	v, present := t.payload[ClaimIssuedAt]
	if !present {
		return time.Time{}, false
	}
	return parseEpoch(v)
}

// IsExpired reports whether exp is present and strictly in the past. An exp
// that cannot be read as epoch seconds counts as expired.
func (t *Token) IsExpired() bool {
	v, present := t.payload[ClaimExpiresAt]
	if !present {
		return false
	}
	exp, ok := parseEpoch(v)
	if !ok {
		return true
	}
	return nowFunc().Unix() > exp.Unix()
}

// Validate checks expiry only; an unsigned token has no signature to verify.
// The key is accepted so Token and SignedToken validate the same way.
func (t *Token) Validate(_ any, checkExpires bool) bool {
	if !checkExpires {
		return true
	}
	return !t.IsExpired()
}

// SigningInput returns base64url(header) "." base64url(payload).
func (t *Token) SigningInput() (string, error) {
	h, err := t.segment(0, map[string]any(t.header))
	if err != nil {
		return "", fmt.Errorf("encode header: %w", err)
	}
	p, err := t.segment(1, map[string]any(t.payload))
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return h + "." + p, nil
}

func (t *Token) segment(i int, v map[string]any) (string, error) {
	text, err := codec.Marshal(v)
	if err != nil {
		return "", err
	}
	if raw := t.raw[i]; raw.encoded != "" && raw.canonical == text {
		return raw.encoded, nil
	}
	return codec.EncodeSegment([]byte(text)), nil
}
