// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msq

import (
	"code.hybscloud.com/spin"

	"code.hybscloud.com/msq/tagptr"
)

// Queue is an unbounded lock-free multi-producer multi-consumer FIFO queue.
//
// Based on the two-pointer linked-list algorithm by Michael and Scott
// (PODC 1996). Head points at a sentinel node; the first element lives in
// the sentinel's successor. Producers link at tail and consumers advance
// head; either side helps a lagging tail forward.
//
// Nodes come from a lock-free [pool.Pool] and are recycled immediately
// after a pop. Every reference exchanged through head, tail and node.next
// carries a generation tag that advances on every CAS, so a goroutine
// holding a stale reference to a recycled node fails its next CAS instead
// of corrupting the chain.
//
// T must be pointer-free; New panics otherwise.
type Queue[T any] struct {
	_    pad
	head tagptr.Atomic // Consumer side (sentinel)
	_    pad
	tail tagptr.Atomic // Producer side (last or next-to-last node)
	_    pad
	core[T]
}

// New creates an empty queue with a sentinel node taken from its pool.
// Panics if T is not pointer-free.
func New[T any](opts ...Option) *Queue[T] {
	q := &Queue[T]{}
	q.init(opts)

	ref, n := q.nodes.Construct()
	n.Next.Init(tagptr.Of(tagptr.Nil))
	dummy := tagptr.Of(ref)
	q.head.Init(dummy)
	q.tail.Init(dummy)
	return q
}

// Push adds v at the tail and returns the resulting size.
func (q *Queue[T]) Push(v T) (int64, error) {
	return q.Emplace(copyOf(v))
}

// Enqueue adds a copy of *elem at the tail.
func (q *Queue[T]) Enqueue(elem *T) error {
	_, err := q.Emplace(copyOf(*elem))
	return err
}

// Emplace constructs an element in place with init and links it at the
// tail. Returns the resulting size.
//
// init runs before the node is published and must not retain the pointer.
// If init panics the queue is left unchanged.
func (q *Queue[T]) Emplace(init func(*T)) (int64, error) {
	if err := q.check(); err != nil {
		return 0, err
	}
	ref, _, err := q.prepare(init)
	if err != nil {
		return 0, err
	}
	// Reserved before linking: a pop that sees the node never drives the
	// counter below zero.
	size := q.size.AddAcqRel(1)

	sw := spin.Wait{}
	for i := uint64(0); ; i++ {
		if i > q.retryLimit {
			q.log.Record(evStarvation, tagptr.Of(ref))
			q.abandon(ref)
			return 0, q.fail(opPush, ErrStarvation)
		}
		if err := q.check(); err != nil {
			q.abandon(ref)
			return 0, err
		}

		tail := q.tail.Load()
		q.log.Record(evTail, tail)
		last := q.nodes.Node(tail.Ref())
		next := last.Next.Load()
		q.log.Record(evTailNext, next)

		// next is only meaningful if tail did not move while reading it.
		if q.tail.Load() != tail {
			q.log.Record(evTailChanged, tail)
			continue
		}

		if !next.IsNil() {
			q.log.Record(evTailLagging, next)
			if q.tail.CompareAndSwap(tail, tail.Next(next.Ref())) {
				q.log.Record(evTailHelped, tail.Next(next.Ref()))
			}
			continue
		}

		linked := next.Next(ref)
		if !last.Next.CompareAndSwap(next, linked) {
			sw.Once()
			continue
		}
		q.log.Record(evLinked, linked)

		// Linearized; moving tail is a courtesy another goroutine may have
		// done already.
		if q.tail.CompareAndSwap(tail, tail.Next(ref)) {
			q.log.Record(evTailMoved, tail.Next(ref))
		} else {
			q.log.Record(evTailAlreadyMoved, tail)
		}
		return size, nil
	}
}

// Pop removes and returns the element at the head.
// Returns (zero-value, ErrWouldBlock) if the queue was observed empty.
func (q *Queue[T]) Pop() (T, error) {
	var zero T
	sw := spin.Wait{}
	for i := uint64(0); ; i++ {
		if i > q.retryLimit {
			q.log.Record(evStarvation, q.head.Load())
			return zero, q.fail(opPop, ErrStarvation)
		}
		if err := q.check(); err != nil {
			return zero, err
		}

		head := q.head.Load()
		q.log.Record(evHead, head)
		tail := q.tail.Load()
		next := q.nodes.Node(head.Ref()).Next.Load()
		q.log.Record(evHeadNext, next)

		if q.head.Load() != head {
			q.log.Record(evHeadChanged, head)
			continue
		}

		// Head and tail carry independent tags; coincidence is by ref.
		if head.Ref() == tail.Ref() {
			if next.IsNil() {
				q.log.Record(evEmpty, head)
				return zero, ErrWouldBlock
			}
			q.log.Record(evTailLagging, next)
			if q.tail.CompareAndSwap(tail, tail.Next(next.Ref())) {
				q.log.Record(evTailHelped, tail.Next(next.Ref()))
			}
			continue
		}
		if next.IsNil() {
			// Inconsistent snapshot; head moved between the reads.
			continue
		}

		// Copy before the CAS: once head moves, the node holding the value
		// may be recycled by any goroutine.
		v := q.nodes.Node(next.Ref()).Value
		q.log.Record(evExtracted, next)

		newHead := head.Next(next.Ref())
		if !q.head.CompareAndSwap(head, newHead) {
			q.log.Record(evHeadMoveFailed, head)
			sw.Once()
			continue
		}
		q.log.Record(evPopped, newHead)

		if err := q.release(opPop, head.Ref(), head); err != nil {
			return zero, err
		}
		return v, nil
	}
}

// Dequeue removes and returns the element at the head.
// Returns (zero-value, ErrWouldBlock) if the queue was observed empty.
func (q *Queue[T]) Dequeue() (T, error) {
	return q.Pop()
}

// Close drains the remaining elements and returns the sentinel to the pool.
// Close must not run concurrently with other operations. Later operations
// return ErrClosed.
func (q *Queue[T]) Close() error {
	if err := q.check(); err != nil {
		return err
	}
	for {
		_, err := q.Pop()
		if err == nil {
			continue
		}
		if !IsWouldBlock(err) {
			return err
		}
		break
	}
	q.closed.StoreRelease(true)
	head := q.head.Load()
	q.nodes.Destroy(head.Ref())
	q.log.Record(evReleased, head)
	return nil
}
