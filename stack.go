// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msq

import (
	"code.hybscloud.com/spin"

	"code.hybscloud.com/msq/tagptr"
)

// Stack is an unbounded lock-free multi-producer multi-consumer LIFO stack.
//
// Treiber's algorithm over pooled nodes with a tagged top reference. Nodes
// are recycled right after a pop, exactly as in [Queue]; the tag on top
// makes a pop that read a node before it was recycled fail its CAS.
//
// T must be pointer-free; NewStack panics otherwise.
type Stack[T any] struct {
	_   pad
	top tagptr.Atomic
	_   pad
	core[T]
}

// NewStack creates an empty stack.
// Panics if T is not pointer-free.
func NewStack[T any](opts ...Option) *Stack[T] {
	s := &Stack[T]{}
	s.init(opts)
	return s
}

// Push adds v on top and returns the resulting size.
func (s *Stack[T]) Push(v T) (int64, error) {
	return s.Emplace(copyOf(v))
}

// Enqueue adds a copy of *elem on top.
func (s *Stack[T]) Enqueue(elem *T) error {
	_, err := s.Emplace(copyOf(*elem))
	return err
}

// Emplace constructs an element in place with init and pushes it.
// Returns the resulting size.
func (s *Stack[T]) Emplace(init func(*T)) (int64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	ref, n, err := s.prepare(init)
	if err != nil {
		return 0, err
	}
	size := s.size.AddAcqRel(1)

	sw := spin.Wait{}
	for i := uint64(0); ; i++ {
		if i > s.retryLimit {
			s.log.Record(evStarvation, tagptr.Of(ref))
			s.abandon(ref)
			return 0, s.fail(opPush, ErrStarvation)
		}
		if err := s.check(); err != nil {
			s.abandon(ref)
			return 0, err
		}

		top := s.top.Load()
		s.log.Record(evTop, top)

		// The node is still private; only this goroutine writes its next.
		old := n.Next.Load()
		s.beforeOwnedCAS(n)
		if !n.Next.CompareAndSwap(old, old.Next(top.Ref())) {
			s.log.Record(evClearNextFailed, n.Next.Load())
			s.abandon(ref)
			return 0, s.fail(opPush, ErrUnexpectedCAS)
		}

		if s.top.CompareAndSwap(top, top.Next(ref)) {
			s.log.Record(evLinked, top.Next(ref))
			return size, nil
		}
		s.log.Record(evTopMoveFailed, top)
		sw.Once()
	}
}

// Pop removes and returns the top element.
// Returns (zero-value, ErrWouldBlock) if the stack was observed empty.
func (s *Stack[T]) Pop() (T, error) {
	var zero T
	sw := spin.Wait{}
	for i := uint64(0); ; i++ {
		if i > s.retryLimit {
			s.log.Record(evStarvation, s.top.Load())
			return zero, s.fail(opPop, ErrStarvation)
		}
		if err := s.check(); err != nil {
			return zero, err
		}

		top := s.top.Load()
		s.log.Record(evTop, top)
		if top.IsNil() {
			s.log.Record(evEmpty, top)
			return zero, ErrWouldBlock
		}

		n := s.nodes.Node(top.Ref())
		next := n.Next.Load()
		v := n.Value
		s.log.Record(evExtracted, top)

		newTop := top.Next(next.Ref())
		if !s.top.CompareAndSwap(top, newTop) {
			s.log.Record(evTopMoveFailed, top)
			sw.Once()
			continue
		}
		s.log.Record(evPopped, newTop)

		if err := s.release(opPop, top.Ref(), top); err != nil {
			return zero, err
		}
		return v, nil
	}
}

// Dequeue removes and returns the top element.
// Returns (zero-value, ErrWouldBlock) if the stack was observed empty.
func (s *Stack[T]) Dequeue() (T, error) {
	return s.Pop()
}

// Close drains the remaining elements. Close must not run concurrently with
// other operations. Later operations return ErrClosed.
func (s *Stack[T]) Close() error {
	if err := s.check(); err != nil {
		return err
	}
	for {
		_, err := s.Pop()
		if err == nil {
			continue
		}
		if !IsWouldBlock(err) {
			return err
		}
		break
	}
	s.closed.StoreRelease(true)
	return nil
}
