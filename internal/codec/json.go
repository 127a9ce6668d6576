package codec

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/cybergodev/jose/internal/joseerr"
)

// MaxDepth bounds the nesting of arrays and objects in both directions.
const MaxDepth = 512

// Marshal encodes v as JSON text. A non-nil v that encodes to the literal null
// (a nil map, for instance) is rejected so that data is never dropped silently.
func Marshal(v any) (string, error) {
	if err := inspect(reflect.ValueOf(v), 0); err != nil {
		return "", err
	}

	b, err := json.Marshal(v)
	if err != nil {
		return "", joseerr.NewDataFormatError(joseerr.KindUnknown, err)
	}

	if v != nil && string(b) == "null" {
		return "", joseerr.NewDataFormatError(joseerr.KindNullEncodedResult, nil)
	}

	return string(b), nil
}

// Unmarshal decodes JSON text into maps, slices, strings, bools, json.Number and nil.
func Unmarshal(text string) (any, error) {
	if !utf8.ValidString(text) {
		return nil, joseerr.NewDataFormatError(joseerr.KindInvalidEncoding, nil)
	}

	if err := scan(text); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, classify(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("trailing data after top-level value")
		}
		return nil, joseerr.NewDataFormatError(joseerr.KindSyntaxError, err)
	}

	if v == nil && strings.TrimSpace(text) != "null" {
		return nil, joseerr.NewDataFormatError(joseerr.KindNullDecodedResult, nil)
	}

	return v, nil
}

func classify(err error) error {
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &syntaxErr):
		if strings.Contains(syntaxErr.Error(), "exceeded max depth") {
			return joseerr.NewDataFormatError(joseerr.KindDepthExceeded, err)
		}
		return joseerr.NewDataFormatError(joseerr.KindSyntaxError, err)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return joseerr.NewDataFormatError(joseerr.KindSyntaxError, err)
	default:
		return joseerr.NewDataFormatError(joseerr.KindUnknown, err)
	}
}

// scan walks the raw text once to report the failure kinds encoding/json folds
// into a generic syntax error: nesting depth, mismatched closers and raw control
// characters inside strings. Anything else is left to the decoder.
func scan(text string) error {
	var (
		stack    []byte
		inString bool
		escaped  bool
	)

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			case c < 0x20:
				return joseerr.NewDataFormatError(joseerr.KindControlCharacter, nil)
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
			if len(stack) > MaxDepth {
				return joseerr.NewDataFormatError(joseerr.KindDepthExceeded, nil)
			}
		case '}', ']':
			if len(stack) == 0 {
				return nil
			}
			open := stack[len(stack)-1]
			if (c == '}' && open != '{') || (c == ']' && open != '[') {
				return joseerr.NewDataFormatError(joseerr.KindStateMismatch, nil)
			}
			stack = stack[:len(stack)-1]
		}
	}

	return nil
}

var numberType = reflect.TypeOf(json.Number(""))

// inspect rejects values encoding/json would accept but rewrite: strings with
// invalid UTF-8 and nesting deeper than MaxDepth.
func inspect(v reflect.Value, depth int) error {
	if !v.IsValid() {
		return nil
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		return inspect(v.Elem(), depth)
	case reflect.String:
		if v.Type() != numberType && !utf8.ValidString(v.String()) {
			return joseerr.NewDataFormatError(joseerr.KindInvalidEncoding, nil)
		}
	case reflect.Map:
		if depth+1 > MaxDepth {
			return joseerr.NewDataFormatError(joseerr.KindDepthExceeded, nil)
		}
		iter := v.MapRange()
		for iter.Next() {
			if err := inspect(iter.Key(), depth+1); err != nil {
				return err
			}
			if err := inspect(iter.Value(), depth+1); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			return nil
		}
		if depth+1 > MaxDepth {
			return joseerr.NewDataFormatError(joseerr.KindDepthExceeded, nil)
		}
		for i := 0; i < v.Len(); i++ {
			if err := inspect(v.Index(i), depth+1); err != nil {
				return err
			}
		}
	}

	return nil
}
