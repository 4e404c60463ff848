package deque

import "unsafe"

// Interface is the four-operation contract spec.md §1 describes,
// implemented by both LockFree and WaitFree.
type Interface interface {
	PushFront(handle unsafe.Pointer) (bool, error)
	PushBack(handle unsafe.Pointer) (bool, error)
	PopFront() (unsafe.Pointer, bool, error)
	PopBack() (unsafe.Pointer, bool, error)
	Cap() uint64
	Len() uint64
	IsEmpty() bool
	IsFull() bool
}

var (
	_ Interface = (*LockFree)(nil)
	_ Interface = (*WaitFree)(nil)
)

// Progress selects which of the two progress guarantees a Deque[T]
// enforces (spec.md §1).
type Progress uint8

const (
	// LockFreeProgress bounds every fast-path attempt but allows an
	// individual operation to retry unboundedly under contention.
	LockFreeProgress Progress = iota
	// WaitFreeProgress bounds every operation's own step count by
	// falling back to descriptor publication and cooperative helping.
	WaitFreeProgress
)

// Deque[T] is the ergonomic, type-safe wrapper around the opaque
// unsafe.Pointer-handle core (LockFree/WaitFree). It never dereferences
// or copies *T itself — every element is passed by address and handed
// back to the caller exactly as given, matching spec.md §6's "opaque,
// pointer-sized, non-null task handle" model while keeping call sites
// free of unsafe.Pointer conversions.
type Deque[T any] struct {
	impl Interface
}

// New constructs a Deque[T] with the requested progress guarantee.
func New[T any](progress Progress, cfg Config) (*Deque[T], error) {
	switch progress {
	case WaitFreeProgress:
		wf, err := NewWaitFree(cfg)
		if err != nil {
			return nil, err
		}
		return &Deque[T]{impl: wf}, nil
	default:
		lf, err := NewLockFree(cfg)
		if err != nil {
			return nil, err
		}
		return &Deque[T]{impl: lf}, nil
	}
}

// PushFront pushes elem onto the front of the deque. elem must not be
// nil. ok is false iff the deque was Full at linearization.
func (d *Deque[T]) PushFront(elem *T) (ok bool, err error) {
	return d.impl.PushFront(unsafe.Pointer(elem))
}

// PushBack pushes elem onto the back of the deque. elem must not be
// nil. ok is false iff the deque was Full at linearization.
func (d *Deque[T]) PushBack(elem *T) (ok bool, err error) {
	return d.impl.PushBack(unsafe.Pointer(elem))
}

// PopFront pops the front-most element. ok is false iff the deque was
// Empty at linearization, in which case elem is nil.
func (d *Deque[T]) PopFront() (elem *T, ok bool, err error) {
	p, ok, err := d.impl.PopFront()
	return (*T)(p), ok, err
}

// PopBack pops the back-most element. ok is false iff the deque was
// Empty at linearization, in which case elem is nil.
func (d *Deque[T]) PopBack() (elem *T, ok bool, err error) {
	p, ok, err := d.impl.PopBack()
	return (*T)(p), ok, err
}

// Cap returns the usable capacity the deque was constructed with.
func (d *Deque[T]) Cap() uint64 { return d.impl.Cap() }

// Len returns a diagnostic snapshot of the occupied slot count.
func (d *Deque[T]) Len() uint64 { return d.impl.Len() }

// IsEmpty reports whether the deque was empty at some instant during
// the call.
func (d *Deque[T]) IsEmpty() bool { return d.impl.IsEmpty() }

// IsFull reports whether the deque was full at some instant during the
// call.
func (d *Deque[T]) IsFull() bool { return d.impl.IsFull() }
