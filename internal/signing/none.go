package signing

// None is the unsecured "none" algorithm. Its signature is always empty, and
// Verify accepts exactly the empty signature whatever the key or input.
type None struct{}

func (None) Sign([]byte, any) ([]byte, error) {
	return []byte{}, nil
}

func (None) Verify(_ any, signature []byte, _ []byte) bool {
	return len(signature) == 0
}
