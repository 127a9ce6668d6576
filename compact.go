package jose

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cybergodev/jose/internal/codec"
	"github.com/cybergodev/jose/internal/joseerr"
)

var errNotObject = errors.New("segment is not a JSON object")

// Decode parses a compact JWS. The result is in StateSigned; its alg is not
// resolved until Verify. Five segments are reported as an unsupported JWE.
func Decode(text string) (*SignedToken, error) {
	parts := strings.Split(text, ".")

	switch len(parts) {
	case 3:
	case 5:
		return nil, joseerr.NewArgumentError(joseerr.MsgJWEUnsupported, nil)
	default:
		return nil, joseerr.NewArgumentError(joseerr.MsgMalformedToken, nil)
	}

	header, headerRaw, err := decodeObject(parts[0])
	if err != nil {
		return nil, malformed(fmt.Errorf("header: %w", err))
	}
	payload, payloadRaw, err := decodeObject(parts[1])
	if err != nil {
		return nil, malformed(fmt.Errorf("payload: %w", err))
	}

	sig, err := codec.DecodeSegment(parts[2])
	if err != nil {
		return nil, malformed(fmt.Errorf("signature: %w", err))
	}
	if sig == nil {
		sig = []byte{}
	}

	tok := &SignedToken{
		Token: &Token{
			header:  Header(header),
			payload: Claims(payload),
			raw:     [2]rawSegment{headerRaw, payloadRaw},
		},
	}
	tok.SetSignature(sig)
	return tok, nil
}

func decodeObject(segment string) (map[string]any, rawSegment, error) {
	b, err := codec.DecodeSegment(segment)
	if err != nil {
		return nil, rawSegment{}, err
	}

	v, err := codec.Unmarshal(string(b))
	if err != nil {
		return nil, rawSegment{}, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, rawSegment{}, errNotObject
	}

	canonical, err := codec.Marshal(obj)
	if err != nil {
		return nil, rawSegment{}, err
	}
	return obj, rawSegment{encoded: segment, canonical: canonical}, nil
}

func malformed(cause error) error {
	return joseerr.NewArgumentError(joseerr.MsgMalformedJWS, cause)
}
