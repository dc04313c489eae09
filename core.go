// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msq

import (
	"errors"
	"fmt"

	"code.hybscloud.com/atomix"

	"code.hybscloud.com/msq/evlog"
	"code.hybscloud.com/msq/pool"
	"code.hybscloud.com/msq/tagptr"
)

const (
	opPush = "push"
	opPop  = "pop"
	opPool = "pool"
)

// core is the state shared by Queue and Stack: node pool, advisory size,
// poison latch and the optional event log.
type core[T any] struct {
	size       atomix.Int64 // Advisory element count
	_          pad
	failed     atomix.Bool // Poison latch
	closed     atomix.Bool
	_          pad
	nodes      *pool.Pool[T]
	log        *evlog.Log
	sink       func(error)
	retryLimit uint64
	ownedHook  func(*pool.Node[T]) // Test only; runs before an owned-next CAS
}

func (c *core[T]) init(opts []Option) {
	checkPayload[T]()
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c.log = o.log
	c.sink = o.sink
	c.retryLimit = o.retryLimit
	c.nodes = pool.New[T](o.capacity, pool.WithErrorSink(c.poolError))
}

// poolError latches the poison flag on any pool contract violation and
// forwards it to the sink as an *InvariantError.
func (c *core[T]) poolError(err error) {
	c.failed.StoreRelease(true)
	var pe *pool.Error
	if errors.As(err, &pe) {
		c.log.Record(evPoolError, tagptr.Of(pe.Ref))
	}
	if c.sink != nil {
		c.sink(&InvariantError{Op: opPool, Err: fmt.Errorf("%w: %w", ErrPoolContract, err)})
	}
}

// check refuses service once poisoned or closed.
func (c *core[T]) check() error {
	if c.failed.LoadAcquire() {
		return ErrPoisoned
	}
	if c.closed.LoadAcquire() {
		return ErrClosed
	}
	return nil
}

// fail latches the poison flag and returns the violation.
func (c *core[T]) fail(op string, err error) error {
	c.failed.StoreRelease(true)
	return &InvariantError{Op: op, Err: err}
}

// abandon returns an unlinked node and its size reservation.
func (c *core[T]) abandon(ref uint64) {
	c.size.AddAcqRel(-1)
	c.nodes.Destroy(ref)
}

// prepare takes a node from the pool, constructs the payload in place and
// clears its next reference while keeping the tag. If init panics the node
// goes back to the pool before the panic propagates.
func (c *core[T]) prepare(init func(*T)) (uint64, *pool.Node[T], error) {
	ref, n := c.nodes.Construct()
	c.log.Record(evAllocated, tagptr.Of(ref))
	built := false
	defer func() {
		if !built {
			c.nodes.Destroy(ref)
		}
	}()
	init(&n.Value)
	built = true

	old := n.Next.Load()
	c.log.Record(evClearNext, old)
	c.beforeOwnedCAS(n)
	if !n.Next.CompareAndSwap(old, old.WithRef(tagptr.Nil)) {
		c.log.Record(evClearNextFailed, n.Next.Load())
		c.nodes.Destroy(ref)
		return 0, nil, c.fail(opPush, ErrUnexpectedCAS)
	}
	return ref, n, nil
}

func (c *core[T]) beforeOwnedCAS(n *pool.Node[T]) {
	if c.ownedHook != nil {
		c.ownedHook(n)
	}
}

// release decrements the size after a successful unlink and returns ref to
// the pool. A negative size poisons the structure.
func (c *core[T]) release(op string, ref uint64, at tagptr.Ptr) error {
	if c.size.AddAcqRel(-1) < 0 {
		c.log.Record(evNegativeSize, at)
		return c.fail(op, ErrNegativeSize)
	}
	c.nodes.Destroy(ref)
	c.log.Record(evReleased, tagptr.Of(ref))
	return nil
}

// Size returns the advisory element count.
// Under concurrency it may transiently differ from true membership.
func (c *core[T]) Size() int64 {
	return c.size.LoadAcquire()
}

// Poisoned reports whether an invariant violation has been detected.
func (c *core[T]) Poisoned() bool {
	return c.failed.LoadAcquire()
}

// PoolErrors returns the number of contract violations the node pool
// detected. Zero after a run means the pool stayed consistent.
func (c *core[T]) PoolErrors() int64 {
	return c.nodes.Errors()
}

// EventLog returns the event log installed with [WithEventLog], or nil.
func (c *core[T]) EventLog() *evlog.Log {
	return c.log
}

func copyOf[T any](v T) func(*T) {
	return func(p *T) {
		*p = v
	}
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte
