// Package joseerr holds the error taxonomy shared by the codec, signing and token layers.
package joseerr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is matched by every *ArgumentError.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedAlgorithm reports an alg header that names no known provider.
	ErrUnsupportedAlgorithm = errors.New("Unsupported JWA, Allowed Algorithms: HS256, HS384, HS512, RS256, RS384, RS512, ES256, ES384, ES512, none")

	// ErrDataFormat is matched by every *DataFormatError.
	ErrDataFormat = errors.New("data format error")
)

// Messages carried by ArgumentError values produced inside the library.
const (
	MsgInvalidBits    = "Invalid JWA bits, allowed: 256, 384 or 512"
	MsgMalformedJWS   = "The JWS is Invalid or Malformed"
	MsgJWEUnsupported = "The JOSE token is a JWE which is currently not supported"
	MsgMalformedToken = "The JOSE token is Invalid or Malformed"
)

// ArgumentError is returned for bad provider bits and malformed token text.
type ArgumentError struct {
	Message string
	Err     error
}

// NewArgumentError returns an ArgumentError with an optional cause.
func NewArgumentError(msg string, cause error) *ArgumentError {
	return &ArgumentError{Message: msg, Err: cause}
}

func (e *ArgumentError) Error() string {
	return e.Message
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrInvalidArgument) hold for any ArgumentError.
func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// DataFormatKind classifies structured-data codec failures.
type DataFormatKind int

const (
	KindUnknown DataFormatKind = iota
	KindDepthExceeded
	KindStateMismatch
	KindControlCharacter
	KindSyntaxError
	KindInvalidEncoding
	KindNullEncodedResult
	KindNullDecodedResult
)

var kindMessages = [...]string{
	KindUnknown:           "Unknown error.",
	KindDepthExceeded:     "Maximum stack depth exceeded.",
	KindStateMismatch:     "Underflow or the modes mismatch.",
	KindControlCharacter:  "Unexpected control character found.",
	KindSyntaxError:       "Syntax error, malformed JSON.",
	KindInvalidEncoding:   "Malformed UTF-8 characters, possibly incorrectly encoded.",
	KindNullEncodedResult: "Null encoded result.",
	KindNullDecodedResult: "Null decoded result.",
}

func (k DataFormatKind) String() string {
	if k < 0 || int(k) >= len(kindMessages) {
		return kindMessages[KindUnknown]
	}
	return kindMessages[k]
}

// DataFormatError is returned by the structured-data codec.
type DataFormatError struct {
	Kind DataFormatKind
	Err  error
}

// NewDataFormatError returns a DataFormatError of the given kind.
func NewDataFormatError(kind DataFormatKind, cause error) *DataFormatError {
	return &DataFormatError{Kind: kind, Err: cause}
}

func (e *DataFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *DataFormatError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrDataFormat) hold for any DataFormatError.
func (e *DataFormatError) Is(target error) bool {
	return target == ErrDataFormat
}
