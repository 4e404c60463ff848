package deque

import "errors"

// ErrAllocationFailed is returned when the configured MemoryProvider could
// not supply an IndexRecord or Descriptor for an in-flight operation.
//
// This is the only exceptional condition the deque surfaces as an error.
// A full push or an empty pop is reported via the boolean/handle return,
// never as an error.
var ErrAllocationFailed = errors.New("deque: memory provider allocation failed")

// ErrInvalidCapacity is returned by New when the requested capacity falls
// outside [MinCapacity, MaxCapacity].
var ErrInvalidCapacity = errors.New("deque: capacity must be in [64, 4000000000]")

// errNilHandle backs the panic raised when a caller pushes a nil handle.
// A nil handle is a caller bug (spec.md §6: "non-null task handle"), not a
// runtime condition the deque can recover from.
var errNilHandle = errors.New("deque: task handle must not be nil")
