// Package codec implements the byte and structured-data transforms used by compact serialization.
package codec

import (
	"encoding/base64"
	"strings"
)

var (
	toURL = strings.NewReplacer("+", "-", "/", "_")
	toStd = strings.NewReplacer("-", "+", "_", "/")
)

// EncodeSegment renders data as unpadded base64url text.
func EncodeSegment(data []byte) string {
	return strings.TrimRight(toURL.Replace(base64.StdEncoding.EncodeToString(data)), "=")
}

// DecodeSegment reverses EncodeSegment. Standard-alphabet input is accepted too,
// and missing padding is restored before decoding.
func DecodeSegment(segment string) ([]byte, error) {
	s := toStd.Replace(segment)
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	return base64.StdEncoding.DecodeString(s)
}
