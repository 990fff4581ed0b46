package bus

import "errors"

var (
	// ErrPayloadTooLarge indicates the payload exceeds what the long
	// length-field encoding can carry.
	ErrPayloadTooLarge = errors.New("payload too large")
)
