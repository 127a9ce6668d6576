// Package security holds key-handling helpers: zeroable key buffers,
// constant-time comparison and weak secret detection.
package security

import (
	"bytes"
	"crypto/rand"
	"crypto/subtle"
	"runtime"
	"strings"
	"sync"
	"time"
)

// SecureBytes is a private copy of key material that is zeroed by Destroy.
type SecureBytes struct {
	data []byte
	mu   sync.Mutex
}

// NewSecureBytesFromSlice copies data into a new SecureBytes.
func NewSecureBytesFromSlice(data []byte) *SecureBytes {
	secure := &SecureBytes{data: make([]byte, len(data))}
	copy(secure.data, data)

	if len(data) > 256 {
		runtime.SetFinalizer(secure, (*SecureBytes).destroy)
	}
	return secure
}

// Bytes returns the underlying slice; it is nil after Destroy.
func (s *SecureBytes) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Len returns the key length.
func (s *SecureBytes) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Destroy zeroes the buffer. Calling it twice is a no-op.
func (s *SecureBytes) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroy()
	runtime.SetFinalizer(s, nil)
}

func (s *SecureBytes) destroy() {
	if s.data != nil {
		ZeroBytes(s.data)
		s.data = nil
	}
}

// ZeroBytes overwrites data in place.
func ZeroBytes(data []byte) {
	if len(data) == 0 {
		return
	}
	clear(data)
	runtime.KeepAlive(data)
}

// SecureCompare reports whether a and b are equal. The running time depends on
// the lengths only, never on the contents.
func SecureCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// SecureRandomDelay sleeps for 10-99µs drawn from crypto/rand. Callers use it on
// rejection paths so failures do not return in a tell-tale constant time.
func SecureRandomDelay() {
	var delayBytes [1]byte
	rand.Read(delayBytes[:])
	time.Sleep(time.Duration(10+int(delayBytes[0])%90) * time.Microsecond)
}

var weakWords = [...]string{
	"password", "secret", "changeme", "letmein", "welcome", "default",
	"example", "sample", "admin", "token", "test", "demo", "guest",
	"qwerty", "asdfgh", "zxcvbn", "12345678", "87654321",
}

// IsWeakKey reports whether an HMAC secret is too predictable to sign with:
// empty or single-byte keys, dictionary words, keyboard runs, sequences,
// short repeating patterns and low character diversity.
func IsWeakKey(key []byte) bool {
	if len(key) < 8 {
		return true
	}
	if bytes.Count(key, key[:1]) == len(key) {
		return true
	}

	lower := strings.ToLower(string(key))
	for _, w := range weakWords {
		if strings.Contains(lower, w) {
			return true
		}
	}

	return isSequence(key[:8]) || hasShortPeriod(key) || hasLowEntropy(key)
}

// isSequence reports a strictly ascending or descending run of byte values.
func isSequence(b []byte) bool {
	up, down := true, true
	for i := 1; i < len(b); i++ {
		up = up && b[i] == b[i-1]+1
		down = down && b[i] == b[i-1]-1
	}
	return up || down
}

// hasShortPeriod reports keys made of a 2-4 byte pattern repeated at least three times.
func hasShortPeriod(key []byte) bool {
	for period := 2; period <= 4; period++ {
		if len(key) < period*3 {
			continue
		}
		repeated := true
		for i := period; i < len(key); i++ {
			if key[i] != key[i%period] {
				repeated = false
				break
			}
		}
		if repeated {
			return true
		}
	}
	return false
}

func hasLowEntropy(key []byte) bool {
	var seen [256]bool
	unique := 0
	var lower, upper, digit, other bool

	for _, b := range key {
		if !seen[b] {
			seen[b] = true
			unique++
		}
		switch {
		case b >= 'a' && b <= 'z':
			lower = true
		case b >= 'A' && b <= 'Z':
			upper = true
		case b >= '0' && b <= '9':
			digit = true
		default:
			other = true
		}
	}

	if float64(unique)/float64(len(key)) < 0.3 {
		return true
	}

	classes := 0
	for _, present := range []bool{lower, upper, digit, other} {
		if present {
			classes++
		}
	}

	minClasses := 2
	if len(key) >= 32 {
		minClasses = 3
	}
	return classes < minClasses
}
