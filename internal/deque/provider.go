package deque

import "sync"

// MemoryProvider allocates and frees the small, fixed-size control
// records the deque publishes while an operation is in flight — index
// records and descriptors (spec.md §3, §6, §9).
//
// Implementations are handed zero-value records; the deque package fills
// in every field before an allocated record is ever published to shared
// state, so an implementation outside this package can satisfy the
// interface with nothing more than new(IndexRecord) / new(Descriptor).
//
// NewIndexRecord/NewDescriptor may return a non-nil error, in which case
// the calling operation fails with an AllocationFailure (spec.md §7) —
// surfaced to the caller as ErrAllocationFailed — instead of attempting
// the CAS protocol. Free* is called once the deque core is certain no
// thread can still be reading the record (see internal epoch reclaimer).
type MemoryProvider interface {
	NewIndexRecord() (*IndexRecord, error)
	FreeIndexRecord(*IndexRecord)
	NewDescriptor() (*Descriptor, error)
	FreeDescriptor(*Descriptor)
}

// HeapProvider is the trivial MemoryProvider: every allocation is a
// plain Go allocation and Free is a no-op, leaving reclamation to the
// garbage collector. It never fails.
type HeapProvider struct{}

// NewHeapProvider returns the default, allocation-never-fails provider.
func NewHeapProvider() HeapProvider { return HeapProvider{} }

func (HeapProvider) NewIndexRecord() (*IndexRecord, error) { return new(IndexRecord), nil }
func (HeapProvider) FreeIndexRecord(*IndexRecord)          {}
func (HeapProvider) NewDescriptor() (*Descriptor, error)   { return new(Descriptor), nil }
func (HeapProvider) FreeDescriptor(*Descriptor)            {}

// PoolProvider recycles IndexRecords and Descriptors through sync.Pool
// instead of leaving every retired record to the garbage collector.
// Grounded on the teacher's own pre-allocation philosophy (RingBuffer
// pre-allocates its slots "to eliminate GC pressure"); spec.md §9
// suggests a fixed-size per-thread freelist sized to MAX_RETRY+2 records
// of each kind, which sync.Pool's per-P free lists approximate without
// this package having to track OS threads itself.
type PoolProvider struct {
	indexes     sync.Pool
	descriptors sync.Pool
}

// NewPoolProvider returns a MemoryProvider that recycles records via
// sync.Pool.
func NewPoolProvider() *PoolProvider {
	return &PoolProvider{
		indexes:     sync.Pool{New: func() any { return new(IndexRecord) }},
		descriptors: sync.Pool{New: func() any { return new(Descriptor) }},
	}
}

func (p *PoolProvider) NewIndexRecord() (*IndexRecord, error) {
	return p.indexes.Get().(*IndexRecord), nil
}

func (p *PoolProvider) FreeIndexRecord(r *IndexRecord) {
	*r = IndexRecord{}
	p.indexes.Put(r)
}

func (p *PoolProvider) NewDescriptor() (*Descriptor, error) {
	return p.descriptors.Get().(*Descriptor), nil
}

func (p *PoolProvider) FreeDescriptor(d *Descriptor) {
	*d = Descriptor{}
	p.descriptors.Put(d)
}
