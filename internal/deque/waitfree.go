package deque

import (
	"sync/atomic"
	"unsafe"
)

// WaitFree is the publish-and-help variant of spec.md §1: when the
// bounded fast path (Phase B) is exhausted, the operation publishes a
// descriptor that any other thread touching the deque will help drive to
// a terminal phase (Phase C, spec.md §4.4; helping routine, §4.5). Every
// operation completes within MaxRetry fast-path attempts plus one round
// of helping bounded by the number of contending threads.
type WaitFree struct {
	*core
	registered atomic.Pointer[Descriptor]
}

// NewWaitFree constructs a wait-free deque per cfg.
func NewWaitFree(cfg Config) (*WaitFree, error) {
	c, err := newCore(cfg)
	if err != nil {
		return nil, err
	}
	return &WaitFree{core: c}, nil
}

// PushFront pushes handle onto the front of the deque. handle must not
// be nil. Returns false iff the deque was Full at linearization.
func (d *WaitFree) PushFront(handle unsafe.Pointer) (bool, error) {
	requireHandle(handle)
	_, ok, err := d.do(OpPushFront, handle)
	return ok, err
}

// PushBack pushes handle onto the back of the deque. handle must not be
// nil. Returns false iff the deque was Full at linearization.
func (d *WaitFree) PushBack(handle unsafe.Pointer) (bool, error) {
	requireHandle(handle)
	_, ok, err := d.do(OpPushBack, handle)
	return ok, err
}

// PopFront pops the front-most handle. ok is false iff the deque was
// Empty at linearization.
func (d *WaitFree) PopFront() (unsafe.Pointer, bool, error) {
	return d.do(OpPopFront, nil)
}

// PopBack pops the back-most handle. ok is false iff the deque was Empty
// at linearization.
func (d *WaitFree) PopBack() (unsafe.Pointer, bool, error) {
	return d.do(OpPopBack, nil)
}

// do runs the full three-phase lifecycle of spec.md §4.4.
func (d *WaitFree) do(op Op, handle unsafe.Pointer) (unsafe.Pointer, bool, error) {
	g := d.reclaim.pin()
	defer d.reclaim.unpin(g)

	// Phase A: help any already-registered descriptor first, so a
	// stalled operation cannot be starved by new arrivals.
	d.helpRegistered()

	// Phase B: bounded fast path.
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

	// Phase C: publish a descriptor and drive it to a terminal phase,
	// helping ourselves first.
	return d.slowPath(op, handle)
}

func (d *WaitFree) helpRegistered() {
	if reg := d.registered.Load(); reg != nil {
		d.help(reg)
	}
}

// slowPath implements spec.md §4.4 Phase C.
func (d *WaitFree) slowPath(op Op, handle unsafe.Pointer) (unsafe.Pointer, bool, error) {
	for {
		desc, err := d.buildDescriptor(op, handle)
		if err != nil {
			return nil, false, err
		}

		if d.registered.CompareAndSwap(nil, desc) {
			final := d.help(desc)

			// Clear the registration now that the operation has
			// reached a terminal phase. A late helper that loaded
			// `final` moments before this CAS may still be mid-H2;
			// the epoch reclaimer, not this CAS, is what makes
			// freeing final's record safe.
			if d.registered.CompareAndSwap(final, nil) {
				d.retireDescriptor(final)
			}

			if final.phase == phaseFail {
				return nil, false, nil
			}
			return final.oldTask, true, nil
		}

		// Someone else registered first: help them, then rebuild our
		// own descriptor against whatever index is now current and
		// retry registering it. desc never became visible to any
		// other thread, so it can be freed immediately. A FAIL desc
		// shares the live index as its newIndex, which is not freed.
		if desc.newIndex != desc.oldIndex {
			d.provider.FreeIndexRecord(desc.newIndex)
		}
		d.provider.FreeDescriptor(desc)

		if other := d.registered.Load(); other != nil {
			d.help(other)
		}
	}
}

// buildDescriptor assembles a fresh RESERVE (or, if the current index no
// longer admits op, FAIL) descriptor against the latest index.
func (d *WaitFree) buildDescriptor(op Op, handle unsafe.Pointer) (*Descriptor, error) {
	oldIndex := d.index.Load()

	desc, err := d.provider.NewDescriptor()
	if err != nil {
		return nil, ErrAllocationFailed
	}

	if !isValid(*oldIndex, d.m, op) {
		*desc = Descriptor{
			op:       op,
			phase:    phaseFail,
			oldIndex: oldIndex,
			newIndex: oldIndex,
		}
		return desc, nil
	}

	niv, err := d.provider.NewIndexRecord()
	if err != nil {
		d.provider.FreeDescriptor(desc)
		return nil, ErrAllocationFailed
	}
	*niv = nextIndex(*oldIndex, d.m, op)

	ts := targetSlot(*oldIndex, d.m, op)
	*desc = Descriptor{
		op:         op,
		phase:      phaseReserve,
		targetSlot: ts,
		oldTask:    d.slots.load(ts),
		newTask:    pushHandle(op, handle),
		oldIndex:   oldIndex,
		newIndex:   niv,
	}
	return desc, nil
}

// help drives descriptor d — observed in `registered` — to a terminal
// phase and returns the terminal descriptor instance, per the helping
// routine of spec.md §4.5 (H1-H3). Any thread may call help on any
// descriptor it observes; helping is idempotent because every state
// transition is a CAS on `registered`.
func (d *WaitFree) help(desc *Descriptor) *Descriptor {
	cur := desc
	for {
		// H1: already decided.
		if cur.phase.terminal() {
			return cur
		}

		// H2: progress loop.
		if !tryCommitTask(d.slots, cur) {
			v := d.slots.load(cur.targetSlot)
			switch v {
			case cur.newTask:
				// Committed between tryCommitTask's internal re-check
				// and this re-read — proceed to the index commit below.
			case cur.oldTask:
				// Still uncommitted from our perspective; try again.
				continue
			default:
				// Another descriptor advanced the slot from under us;
				// re-examine whatever is now registered.
				if reg := d.registered.Load(); reg != nil {
					cur = reg
					continue
				}
				return cur
			}
		}

		if tryCommitIndex(d.core, cur) {
			completed, err := d.provider.NewDescriptor()
			if err != nil {
				// Allocation failure mid-helping: cannot mint the
				// COMPLETE successor. Surface as FAIL rather than
				// leaving `registered` stuck on a RESERVE that has
				// already taken effect on the slot/index.
				failed := *cur
				failed.phase = phaseFail
				failedPtr := &failed
				if d.registered.CompareAndSwap(cur, failedPtr) {
					d.retireDescriptor(cur)
					return failedPtr
				}
				if reg := d.registered.Load(); reg != nil {
					cur = reg
					continue
				}
				return failedPtr
			}

			*completed = *cur
			completed.phase = phaseComplete

			if d.registered.CompareAndSwap(cur, completed) {
				d.retireIndex(cur.oldIndex)
				d.retireDescriptor(cur)
				return completed
			}
			d.provider.FreeDescriptor(completed)
			if reg := d.registered.Load(); reg != nil {
				cur = reg
				continue
			}
			return cur
		}

		// Index CAS lost: rollback the slot, then re-resolve against
		// the current index — RESERVE if still admissible, FAIL
		// otherwise (spec.md §4.5 H2 bullet 3).
		rollbackTaskSlot(d.slots, cur)

		successor, err := d.rebuild(cur)
		if err != nil {
			failed := *cur
			failed.phase = phaseFail
			failedPtr := &failed
			if d.registered.CompareAndSwap(cur, failedPtr) {
				d.retireDescriptor(cur)
				return failedPtr
			}
			if reg := d.registered.Load(); reg != nil {
				cur = reg
				continue
			}
			return failedPtr
		}

		if d.registered.CompareAndSwap(cur, successor) {
			// cur.newIndex lost its index CAS and will never be
			// installed now that successor has taken cur's place. Unlike
			// fastPath's unpublished record, cur was visible in
			// `registered`, so other helpers may still read it: hand it
			// to the epoch reclaimer rather than freeing it immediately.
			d.retireIndex(cur.newIndex)
			d.retireDescriptor(cur)
			cur = successor
			continue
		}

		// Lost the race to install our successor: it never became
		// visible, free it immediately and re-examine the winner. A FAIL
		// successor shares the live index as its newIndex, which is not
		// freed.
		if successor.newIndex != successor.oldIndex {
			d.provider.FreeIndexRecord(successor.newIndex)
		}
		d.provider.FreeDescriptor(successor)
		if reg := d.registered.Load(); reg != nil {
			cur = reg
			continue
		}
		return cur
	}
}

// rebuild constructs the RESERVE-or-FAIL successor descriptor used by
// help's index-CAS-loss path.
func (d *WaitFree) rebuild(cur *Descriptor) (*Descriptor, error) {
	oldIndex := d.index.Load()

	successor, err := d.provider.NewDescriptor()
	if err != nil {
		return nil, ErrAllocationFailed
	}

	if !isValid(*oldIndex, d.m, cur.op) {
		*successor = Descriptor{
			op:       cur.op,
			phase:    phaseFail,
			oldTask:  cur.oldTask,
			newTask:  cur.newTask,
			oldIndex: oldIndex,
			newIndex: oldIndex,
		}
		return successor, nil
	}

	niv, err := d.provider.NewIndexRecord()
	if err != nil {
		d.provider.FreeDescriptor(successor)
		return nil, ErrAllocationFailed
	}
	*niv = nextIndex(*oldIndex, d.m, cur.op)

	ts := targetSlot(*oldIndex, d.m, cur.op)
	*successor = Descriptor{
		op:         cur.op,
		phase:      phaseReserve,
		targetSlot: ts,
		oldTask:    d.slots.load(ts),
		newTask:    pushHandle(cur.op, cur.newTask),
		oldIndex:   oldIndex,
		newIndex:   niv,
	}
	return successor, nil
}
