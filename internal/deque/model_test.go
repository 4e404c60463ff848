package deque_test

import (
	"fmt"
	"math/rand"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"

	"github.com/rishav/concurrent-deque/internal/deque"
)

// This file is a state-model property test in the style of slotcache's
// state_model_property_test.go: apply the same sequence of operations to
// a deliberately simple reference model and to the real implementation
// (single goroutine, no concurrency — that is concurrency_test.go's job)
// and assert every observable result matches.

// referenceDeque is a trivial, obviously-correct double-ended queue with
// a fixed capacity, used only as the oracle for single-threaded
// property testing.
type referenceDeque struct {
	capacity int
	items    []unsafe.Pointer
}

func newReferenceDeque(capacity int) *referenceDeque {
	return &referenceDeque{capacity: capacity}
}

func (r *referenceDeque) pushFront(h unsafe.Pointer) bool {
	if len(r.items) >= r.capacity {
		return false
	}
	r.items = append([]unsafe.Pointer{h}, r.items...)
	return true
}

func (r *referenceDeque) pushBack(h unsafe.Pointer) bool {
	if len(r.items) >= r.capacity {
		return false
	}
	r.items = append(r.items, h)
	return true
}

func (r *referenceDeque) popFront() (unsafe.Pointer, bool) {
	if len(r.items) == 0 {
		return nil, false
	}
	h := r.items[0]
	r.items = r.items[1:]
	return h, true
}

func (r *referenceDeque) popBack() (unsafe.Pointer, bool) {
	if len(r.items) == 0 {
		return nil, false
	}
	h := r.items[len(r.items)-1]
	r.items = r.items[:len(r.items)-1]
	return h, true
}

func (r *referenceDeque) len() int { return len(r.items) }

type opKind int

const (
	opPushFront opKind = iota
	opPushBack
	opPopFront
	opPopBack
)

type op struct {
	kind opKind
	elem *int
}

func (o op) String() string {
	switch o.kind {
	case opPushFront:
		return fmt.Sprintf("PushFront(%d)", *o.elem)
	case opPushBack:
		return fmt.Sprintf("PushBack(%d)", *o.elem)
	case opPopFront:
		return "PopFront()"
	default:
		return "PopBack()"
	}
}

type opResult struct {
	OK   bool
	Elem *int
}

func Test_LockFree_Matches_Model_Property(t *testing.T) {
	testProgressMatchesModel(t, deque.LockFreeProgress)
}

func Test_WaitFree_Matches_Model_Property(t *testing.T) {
	testProgressMatchesModel(t, deque.WaitFreeProgress)
}

func testProgressMatchesModel(t *testing.T, progress deque.Progress) {
	t.Helper()

	const (
		capacity    = 64
		seedCount   = 30
		opsPerSeed  = 300
	)

	for i := 0; i < seedCount; i++ {
		seed := int64(i + 1)
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			rnd := rand.New(rand.NewSource(seed))

			cfg := deque.DefaultConfig()
			cfg.Capacity = capacity
			d, err := deque.New[int](progress, cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			model := newReferenceDeque(capacity)

			pool := make([]int, 0, opsPerSeed)

			for n := 0; n < opsPerSeed; n++ {
				o := randOp(rnd, &pool)

				mRes := applyModel(model, o)
				rRes := applyReal(t, d, o)

				if diff := cmp.Diff(mRes, rRes); diff != "" {
					t.Fatalf("%s: result mismatch (-model +real):\n%s", o.String(), diff)
				}
				if uint64(model.len()) != d.Len() {
					t.Fatalf("%s: length mismatch model=%d real=%d", o.String(), model.len(), d.Len())
				}
			}
		})
	}
}

func randOp(rnd *rand.Rand, pool *[]int) op {
	switch rnd.Intn(4) {
	case 0:
		*pool = append(*pool, rnd.Int())
		return op{kind: opPushFront, elem: &(*pool)[len(*pool)-1]}
	case 1:
		*pool = append(*pool, rnd.Int())
		return op{kind: opPushBack, elem: &(*pool)[len(*pool)-1]}
	case 2:
		return op{kind: opPopFront}
	default:
		return op{kind: opPopBack}
	}
}

func applyModel(m *referenceDeque, o op) opResult {
	switch o.kind {
	case opPushFront:
		ok := m.pushFront(unsafe.Pointer(o.elem))
		return opResult{OK: ok}
	case opPushBack:
		ok := m.pushBack(unsafe.Pointer(o.elem))
		return opResult{OK: ok}
	case opPopFront:
		h, ok := m.popFront()
		return opResult{OK: ok, Elem: (*int)(h)}
	default:
		h, ok := m.popBack()
		return opResult{OK: ok, Elem: (*int)(h)}
	}
}

func applyReal(t *testing.T, d *deque.Deque[int], o op) opResult {
	t.Helper()
	switch o.kind {
	case opPushFront:
		ok, err := d.PushFront(o.elem)
		if err != nil {
			t.Fatalf("PushFront: %v", err)
		}
		return opResult{OK: ok}
	case opPushBack:
		ok, err := d.PushBack(o.elem)
		if err != nil {
			t.Fatalf("PushBack: %v", err)
		}
		return opResult{OK: ok}
	case opPopFront:
		elem, ok, err := d.PopFront()
		if err != nil {
			t.Fatalf("PopFront: %v", err)
		}
		return opResult{OK: ok, Elem: elem}
	default:
		elem, ok, err := d.PopBack()
		if err != nil {
			t.Fatalf("PopBack: %v", err)
		}
		return opResult{OK: ok, Elem: elem}
	}
}
