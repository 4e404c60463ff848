package deque

import (
	"sync/atomic"
)

// MaxRetry is the bounded number of fast-path CAS attempts an operation
// makes before a WaitFree deque falls back to publishing a descriptor.
// spec.md §9 notes two source drafts disagreed between 3 and 4; this
// specification pins it at 4.
const MaxRetry = 4

// MinCapacity and MaxCapacity bound the usable capacity N a deque may be
// constructed with (spec.md §6: "capacity N ... ≥ 64, ≤ ~4·10⁹").
const (
	MinCapacity = 64
	MaxCapacity = 4_000_000_000
)

// Config configures a deque at construction. Following the teacher's
// Config/DefaultConfig pairing (disruptor.Config), Capacity is the only
// required field; Provider defaults to HeapProvider when left zero.
type Config struct {
	// Capacity is the usable capacity N. The backing slot array has two
	// additional sentinel cells (spec.md §6).
	Capacity uint64

	// Provider allocates and frees IndexRecords and Descriptors. If nil,
	// DefaultConfig's HeapProvider is used.
	Provider MemoryProvider
}

// DefaultConfig returns a reasonable default configuration: capacity 1024
// with the zero-overhead HeapProvider.
func DefaultConfig() Config {
	return Config{
		Capacity: 1024,
		Provider: NewHeapProvider(),
	}
}

// core is the shared index/slot/provider/reclaimer state both LockFree
// and WaitFree deques are built on (spec.md §3 "Deque core"). WaitFree
// additionally layers a `registered` descriptor slot on top (waitfree.go).
type core struct {
	capacity uint64
	m        uint64 // capacity + 2

	slots    *slotArray
	index    atomic.Pointer[IndexRecord]
	provider MemoryProvider
	reclaim  *epochReclaimer
}

func newCore(cfg Config) (*core, error) {
	if cfg.Capacity < MinCapacity || cfg.Capacity > MaxCapacity {
		return nil, ErrInvalidCapacity
	}
	provider := cfg.Provider
	if provider == nil {
		provider = NewHeapProvider()
	}

	c := &core{
		capacity: cfg.Capacity,
		m:        cfg.Capacity + 2,
		slots:    newSlotArray(cfg.Capacity + 2),
		provider: provider,
		reclaim:  newEpochReclaimer(),
	}

	initial := &IndexRecord{front: 0, back: 1}
	c.index.Store(initial)

	return c, nil
}

func (c *core) retireIndex(old *IndexRecord) {
	c.reclaim.retire(func() { c.provider.FreeIndexRecord(old) })
}

func (c *core) retireDescriptor(old *Descriptor) {
	c.reclaim.retire(func() { c.provider.FreeDescriptor(old) })
}

// Cap returns the usable capacity N the deque was constructed with.
func (c *core) Cap() uint64 {
	return c.capacity
}

// Len returns a snapshot of the number of occupied slots, computed from
// a single atomic load of the current IndexRecord (spec.md §3 I2). It is
// a diagnostic snapshot, not part of the four-operation contract: it
// carries no linearizability guarantee beyond "true at some instant
// during the call" (SPEC_FULL.md §4).
func (c *core) Len() uint64 {
	idx := c.index.Load()
	return occupied(*idx, c.m)
}

// IsEmpty reports whether the deque was empty at some instant during the
// call (spec.md §3 I3).
func (c *core) IsEmpty() bool {
	idx := c.index.Load()
	return subMod(idx.back, idx.front, c.m) == 1
}

// IsFull reports whether the deque was full at some instant during the
// call (spec.md §3 I3).
func (c *core) IsFull() bool {
	idx := c.index.Load()
	return subMod(idx.front, idx.back, c.m) == 1
}
