package cryptopan

import (
	"errors"
	"fmt"
)

// ErrInvalidKeyLength is returned by New when the supplied key is not
// exactly 32 bytes (16 for the AES cipher, 16 for the padding seed).
var ErrInvalidKeyLength = errors.New("cryptopan: key must be exactly 32 bytes")

// AddressValueError is returned when a string does not parse as a valid
// IPv4 or IPv6 address literal.
type AddressValueError struct {
	Input string
}

func (e *AddressValueError) Error() string {
	return fmt.Sprintf("cryptopan: invalid address literal %q", e.Input)
}
