// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pool

import (
	"math/bits"
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"

	"code.hybscloud.com/msq/tagptr"
)

const (
	// MinCapacity is the smallest first chunk.
	MinCapacity = 64

	// maxChunks bounds the chunk directory. With the minimum base the
	// directory addresses 64*(2^40-1) slots.
	maxChunks = 40
)

// Slot states.
const (
	slotUnused int32 = iota
	slotInUse
	slotFree
)

// Node is a pool slot.
//
// Next is owned by the structure the node is linked into; the pool never
// writes it, so its tag keeps advancing across reuse. Value is payload
// storage with no constructor or destructor run by the pool.
type Node[T any] struct {
	Next  tagptr.Atomic
	Value T

	link  atomix.Uint64 // free-list successor ref
	state atomix.Int32
}

type chunk[T any] struct {
	nodes []Node[T]
}

// Pool is a lock-free node allocator and recycler.
//
// Construct pops a Treiber free list whose head is a tagged reference, or
// claims a never-used slot with Fetch-And-Add on a high-water mark.
// Destroy pushes the slot back. Both are lock-free and safe for any number
// of goroutines.
type Pool[T any] struct {
	_      pad
	free   tagptr.Atomic // Free-list head
	_      pad
	hwm    atomix.Uint64 // Slots claimed from fresh storage (FAA)
	_      pad
	inUse  atomix.Int64
	errs   atomix.Int64
	_      pad
	chunks [maxChunks]atomic.Pointer[chunk[T]]
	base   uint64 // Slots in chunk 0 (power of 2)
	shift  uint   // log2(base)
	sink   func(error)
}

// New creates a pool with at least capacity slots reserved up front.
// Capacity rounds up to the next power of 2, minimum MinCapacity.
// Panics if capacity < 0.
func New[T any](capacity int, opts ...Option) *Pool[T] {
	if capacity < 0 {
		panic("pool: capacity must be >= 0")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	base := uint64(roundToPow2(max(capacity, MinCapacity)))
	p := &Pool[T]{
		base:  base,
		shift: uint(bits.TrailingZeros64(base)),
		sink:  o.sink,
	}
	p.chunks[0].Store(&chunk[T]{nodes: make([]Node[T], base)})
	return p
}

// Construct returns a slot ready for payload construction together with its
// reference. The slot's Value holds unspecified bytes.
// Panics if storage cannot grow any further.
func (p *Pool[T]) Construct() (uint64, *Node[T]) {
	sw := spin.Wait{}
	for {
		head := p.free.Load()
		if head.IsNil() {
			break
		}
		n := p.Node(head.Ref())
		next := n.link.LoadAcquire()
		if !p.free.CompareAndSwap(head, head.Next(next)) {
			sw.Once()
			continue
		}
		if !n.state.CompareAndSwapAcqRel(slotFree, slotInUse) {
			// Someone else owns it; leave it with them.
			p.report(OpConstruct, head.Ref(), ErrDoubleUse)
			continue
		}
		p.inUse.AddAcqRel(1)
		return head.Ref(), n
	}

	idx := p.hwm.AddAcqRel(1) - 1
	n := p.slot(idx, true)
	n.state.StoreRelease(slotInUse)
	p.inUse.AddAcqRel(1)
	return idx + 1, n
}

// Destroy returns the slot named by ref to the free set. The slot may be
// handed out again to any goroutine. Violations are reported to the error
// sink and leave the free set untouched.
func (p *Pool[T]) Destroy(ref uint64) {
	var n *Node[T]
	if ref != tagptr.Nil && ref <= p.hwm.LoadAcquire() {
		n = p.lookup(ref - 1)
	}
	if n == nil {
		p.report(OpDestroy, ref, ErrBadRef)
		return
	}
	if !n.state.CompareAndSwapAcqRel(slotInUse, slotFree) {
		p.report(OpDestroy, ref, ErrDoubleFree)
		return
	}
	p.inUse.AddAcqRel(-1)

	sw := spin.Wait{}
	for {
		head := p.free.Load()
		n.link.StoreRelease(head.Ref())
		if p.free.CompareAndSwap(head, head.Next(ref)) {
			return
		}
		sw.Once()
	}
}

// Node dereferences ref. The returned node stays valid for the lifetime of
// the pool, even after the slot is destroyed and reused.
// Panics on the null reference or a reference beyond published storage.
func (p *Pool[T]) Node(ref uint64) *Node[T] {
	if ref == tagptr.Nil {
		panic("pool: nil reference")
	}
	return p.slot(ref-1, false)
}

// Cap returns the number of slots in published storage.
func (p *Pool[T]) Cap() int {
	var n uint64
	for k := range p.chunks {
		if p.chunks[k].Load() != nil {
			n += p.base << k
		}
	}
	return int(n)
}

// InUse returns the number of slots currently handed out.
func (p *Pool[T]) InUse() int64 {
	return p.inUse.LoadAcquire()
}

// Errors returns the number of contract violations detected so far.
func (p *Pool[T]) Errors() int64 {
	return p.errs.LoadAcquire()
}

// locate maps slot idx to its chunk and offset:
// chunk k covers [base*(2^k-1), base*(2^(k+1)-1)).
func (p *Pool[T]) locate(idx uint64) (k int, off uint64) {
	k = bits.Len64(idx>>p.shift+1) - 1
	return k, idx - p.base*(1<<k-1)
}

// lookup returns slot idx, or nil if its chunk is not published.
func (p *Pool[T]) lookup(idx uint64) *Node[T] {
	k, off := p.locate(idx)
	if k >= maxChunks {
		return nil
	}
	if c := p.chunks[k].Load(); c != nil {
		return &c.nodes[off]
	}
	return nil
}

func (p *Pool[T]) slot(idx uint64, grow bool) *Node[T] {
	k, off := p.locate(idx)
	if k >= maxChunks {
		panic("pool: storage exhausted")
	}
	c := p.chunks[k].Load()
	if c == nil {
		if !grow {
			panic("pool: reference beyond storage")
		}
		c = p.publish(k)
	}
	return &c.nodes[off]
}

// publish installs chunk k, or returns the chunk another goroutine won with.
func (p *Pool[T]) publish(k int) *chunk[T] {
	c := &chunk[T]{nodes: make([]Node[T], p.base<<k)}
	if p.chunks[k].CompareAndSwap(nil, c) {
		return c
	}
	return p.chunks[k].Load()
}

func (p *Pool[T]) report(op Op, ref uint64, err error) {
	p.errs.AddAcqRel(1)
	if p.sink != nil {
		p.sink(&Error{Op: op, Ref: ref, Err: err})
	}
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	return 1 << bits.Len(uint(n-1))
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte
