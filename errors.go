package slotmap

import "errors"

var (
	// ErrIndexSpaceExhausted is the value carried by the panic raised when an
	// insert would exceed the 2^32 - 2 element index space of a map. The
	// condition is fatal for the map instance; it is a panic rather than a
	// return value so the common case pays nothing for it. Embedders that
	// must survive it can recover and match with errors.Is.
	ErrIndexSpaceExhausted = errors.New("slotmap: index space exhausted")
)
