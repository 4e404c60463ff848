package deque

import (
	"runtime"
	"unsafe"
)

// fastResult is the outcome of a bounded-retry fast-path attempt.
type fastResult uint8

const (
	fastSuccess   fastResult = iota
	fastInvalid              // definite Full (push) or Empty (pop) — spec.md §4.6
	fastExhausted            // MAX_RETRY attempts lost the CAS race; no verdict yet
)

// fastPath is spec.md §4.4 Phase B: up to MaxRetry attempts at the
// snapshot-validate-commit-slot-commit-index sequence. It never touches
// a `registered` descriptor — both LockFree and WaitFree start every
// operation here.
//
// On fastSuccess, popped is the handle read from the target slot (valid
// only for pop operations). Descriptors built here are never published
// to shared state, so they are allocated and freed locally without
// going through the epoch reclaimer — no other thread can ever observe
// them.
func fastPath(c *core, op Op, handle unsafe.Pointer) (popped unsafe.Pointer, res fastResult, err error) {
	for attempt := 0; attempt < MaxRetry; attempt++ {
		oldIndex := c.index.Load()
		if !isValid(*oldIndex, c.m, op) {
			return nil, fastInvalid, nil
		}

		niv, err := c.provider.NewIndexRecord()
		if err != nil {
			return nil, 0, ErrAllocationFailed
		}
		*niv = nextIndex(*oldIndex, c.m, op)

		ts := targetSlot(*oldIndex, c.m, op)
		oldTask := c.slots.load(ts)

		desc, err := c.provider.NewDescriptor()
		if err != nil {
			c.provider.FreeIndexRecord(niv)
			return nil, 0, ErrAllocationFailed
		}
		*desc = Descriptor{
			op:         op,
			phase:      phaseReserve,
			targetSlot: ts,
			oldTask:    oldTask,
			newTask:    pushHandle(op, handle),
			oldIndex:   oldIndex,
			newIndex:   niv,
		}

		if !tryCommitTask(c.slots, desc) {
			c.provider.FreeIndexRecord(niv)
			c.provider.FreeDescriptor(desc)
			continue
		}

		if !tryCommitIndex(c, desc) {
			rollbackTaskSlot(c.slots, desc)
			c.provider.FreeIndexRecord(niv)
			c.provider.FreeDescriptor(desc)
			continue
		}

		popped = desc.oldTask
		c.provider.FreeDescriptor(desc)
		c.retireIndex(oldIndex)
		return popped, fastSuccess, nil
	}
	return nil, fastExhausted, nil
}

// pushHandle returns the intended new slot value for op: handle for a
// push, nil (empty sentinel) for a pop.
func pushHandle(op Op, handle unsafe.Pointer) unsafe.Pointer {
	if op.isPush() {
		return handle
	}
	return nil
}

// LockFree is the bounded-retry variant of spec.md §1: every operation
// attempts MaxRetry fast-path iterations and, on contention, loops back
// rather than publishing a descriptor of its own. The system as a whole
// always makes progress (a CAS loss implies some other operation's CAS
// won), but a single call has no per-operation step bound under
// adversarial scheduling — the distinction between "lock-free" and
// "wait-free" in spec.md §1.
type LockFree struct {
	*core
}

// NewLockFree constructs a lock-free deque per cfg.
func NewLockFree(cfg Config) (*LockFree, error) {
	c, err := newCore(cfg)
	if err != nil {
		return nil, err
	}
	return &LockFree{core: c}, nil
}

func (d *LockFree) do(op Op, handle unsafe.Pointer) (unsafe.Pointer, bool, error) {
	g := d.reclaim.pin()
	defer d.reclaim.unpin(g)

	for {
		popped, res, err := fastPath(d.core, op, handle)
		if err != nil {
			return nil, false, err
		}
		switch res {
		case fastSuccess:
			return popped, true, nil
		case fastInvalid:
			return nil, false, nil
		}
		// Contention, not a capacity violation: yield and retry. This is
		// the "bounded retry before falling back to cooperative helping"
		// of spec.md §1 — LockFree has no descriptor of its own to
		// publish, so "falling back" here means re-running Phase B
		// rather than giving up; see DESIGN.md for why this reading was
		// chosen over treating retry exhaustion as Full/Empty.
		runtime.Gosched()
	}
}

// PushFront pushes handle onto the front of the deque. handle must not
// be nil. Returns false iff the deque was Full at linearization.
func (d *LockFree) PushFront(handle unsafe.Pointer) (bool, error) {
	requireHandle(handle)
	_, ok, err := d.do(OpPushFront, handle)
	return ok, err
}

// PushBack pushes handle onto the back of the deque. handle must not be
// nil. Returns false iff the deque was Full at linearization.
func (d *LockFree) PushBack(handle unsafe.Pointer) (bool, error) {
	requireHandle(handle)
	_, ok, err := d.do(OpPushBack, handle)
	return ok, err
}

// PopFront pops the front-most handle. ok is false iff the deque was
// Empty at linearization.
func (d *LockFree) PopFront() (unsafe.Pointer, bool, error) {
	return d.do(OpPopFront, nil)
}

// PopBack pops the back-most handle. ok is false iff the deque was Empty
// at linearization.
func (d *LockFree) PopBack() (unsafe.Pointer, bool, error) {
	return d.do(OpPopBack, nil)
}

func requireHandle(handle unsafe.Pointer) {
	if handle == nil {
		panic(errNilHandle)
	}
}
