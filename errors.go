package jose

import (
	"errors"
	"fmt"

	"github.com/cybergodev/jose/internal/joseerr"
	"github.com/cybergodev/jose/internal/signing"
)

// Errors shared with the codec and signing layers.
var (
	ErrInvalidArgument      = joseerr.ErrInvalidArgument
	ErrUnsupportedAlgorithm = joseerr.ErrUnsupportedAlgorithm
	ErrDataFormat           = joseerr.ErrDataFormat
	ErrInvalidKey           = signing.ErrInvalidKey
)

var (
	// Token errors
	ErrNotSigned      = errors.New("token is not signed")
	ErrInvalidToken   = errors.New("invalid token: signature verification failed or malformed")
	ErrTokenRevoked   = errors.New("token has been revoked and is no longer valid")
	ErrTokenMissingID = errors.New("token does not contain a valid ID (jti claim)")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")

	// System errors
	ErrRateLimitExceeded = errors.New("rate limit exceeded: too many requests")
	ErrProcessorClosed   = errors.New("processor is closed: cannot perform operations")
)

type (
	// ArgumentError reports bad provider bits or malformed token text.
	ArgumentError = joseerr.ArgumentError

	// DataFormatError reports a structured-data codec failure; Kind says which.
	DataFormatError = joseerr.DataFormatError

	DataFormatKind = joseerr.DataFormatKind
)

const (
	KindUnknown           = joseerr.KindUnknown
	KindDepthExceeded     = joseerr.KindDepthExceeded
	KindStateMismatch     = joseerr.KindStateMismatch
	KindControlCharacter  = joseerr.KindControlCharacter
	KindSyntaxError       = joseerr.KindSyntaxError
	KindInvalidEncoding   = joseerr.KindInvalidEncoding
	KindNullEncodedResult = joseerr.KindNullEncodedResult
	KindNullDecodedResult = joseerr.KindNullDecodedResult
)

// ValidationError represents a validation error for a specific claim.
type ValidationError struct {
	Field   string // The claim that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation failed for field '%s': %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
