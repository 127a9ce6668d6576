package jose

import (
	"github.com/cybergodev/jose/internal/revocation"
)

// RevocationConfig controls the in-memory revocation list kept by a Processor.
type RevocationConfig = revocation.Config

// DefaultRevocationConfig returns the default revocation list settings.
func DefaultRevocationConfig() RevocationConfig {
	return revocation.DefaultConfig()
}
