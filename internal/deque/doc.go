// Package deque implements a bounded, concurrent, double-ended queue of
// opaque task handles without traditional mutual-exclusion locks.
//
// Two variants share the same index/slot/descriptor machinery:
//
//   - LockFree attempts a bounded number of CAS retries per operation and,
//     on contention, loops back to Phase A/B rather than publishing a
//     descriptor of its own. Some thread in the system is always making
//     progress, but a single operation has no step bound under adversarial
//     scheduling.
//   - WaitFree additionally publishes a descriptor when the bounded retry
//     is exhausted, so any other thread that next touches the deque can
//     finish the operation on its behalf. Every operation completes in a
//     bounded number of its own steps plus one round of helping.
//
// Capacity is fixed at construction. The backing slot array has two extra
// "gap" cells so that Empty and Full are distinguishable states of the
// same (front, back) index pair rather than both collapsing to front ==
// back.
package deque
