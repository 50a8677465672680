package walls

import "errors"

var (
	// ErrInvalidArgument is returned for out-of-range arguments, such as a prefix
	// index outside 0..2.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidDirective is returned when a units option cannot be applied.
	ErrInvalidDirective = errors.New("invalid units directive")
)
