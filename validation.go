package jose

import (
	"fmt"
)

const (
	maxClaims         = 50
	maxClaimKeyLength = 256
	maxStringLength   = 1024
	maxClaimDepth     = 8
)

// validateClaims bounds what a Processor will sign: key count, key and string
// sizes, control characters and nesting depth.
func validateClaims(claims Claims) error {
	if len(claims) > maxClaims {
		return &ValidationError{
			Field:   "claims",
			Message: fmt.Sprintf("too many fields: maximum %d allowed", maxClaims),
		}
	}

	for key, value := range claims {
		if key == "" {
			return &ValidationError{Field: "claims", Message: "empty claim name"}
		}
		if err := validateString(key, key, maxClaimKeyLength); err != nil {
			return err
		}
		if err := validateValue(key, value, 1); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(field string, value any, depth int) error {
	if depth > maxClaimDepth {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("nested too deeply: maximum depth %d", maxClaimDepth),
		}
	}

	switch v := value.(type) {
	case string:
		return validateString(field, v, maxStringLength)
	case []string:
		for _, item := range v {
			if err := validateString(field, item, maxStringLength); err != nil {
				return err
			}
		}
	case []any:
		for _, item := range v {
			if err := validateValue(field, item, depth+1); err != nil {
				return err
			}
		}
	case map[string]any:
		for k, item := range v {
			if err := validateString(field+"."+k, k, maxClaimKeyLength); err != nil {
				return err
			}
			if err := validateValue(field+"."+k, item, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateString(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("too long: maximum %d characters", maxLength),
		}
	}

	for i := 0; i < len(value); i++ {
		char := value[i]
		if char < 32 && char != '\t' && char != '\n' && char != '\r' {
			return &ValidationError{
				Field:   fieldName,
				Message: "contains invalid control character",
			}
		}
	}
	return nil
}
