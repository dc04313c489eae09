// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msq

import (
	"code.hybscloud.com/msq/pool"
	"code.hybscloud.com/msq/tagptr"
)

// SetSizeForTest overwrites the advisory size counter.
func (c *core[T]) SetSizeForTest(n int64) {
	c.size.StoreRelaxed(n)
}

// DestroyForTest returns ref to the node pool behind the structure's back.
func (c *core[T]) DestroyForTest(ref uint64) {
	c.nodes.Destroy(ref)
}

// PoolForTest exposes the node pool.
func (c *core[T]) PoolForTest() *pool.Pool[T] {
	return c.nodes
}

// FailOwnedCASForTest makes the nth CAS on a node's next made while the
// node is still private fail, by advancing the node's tag just before it.
func (c *core[T]) FailOwnedCASForTest(nth int) {
	calls := 0
	c.ownedHook = func(n *pool.Node[T]) {
		calls++
		if calls == nth {
			old := n.Next.Load()
			n.Next.CompareAndSwap(old, old.Next(old.Ref()))
		}
	}
}

// HeadRefForTest returns the current sentinel reference.
func (q *Queue[T]) HeadRefForTest() uint64 {
	return q.head.Load().Ref()
}

// TailRefForTest returns the current tail reference.
func (q *Queue[T]) TailRefForTest() uint64 {
	return q.tail.Load().Ref()
}

// LinkDetachedForTest links v after the last node without moving tail,
// leaving the queue as a producer preempted between its two CASes would.
func (q *Queue[T]) LinkDetachedForTest(v T) {
	ref, n := q.nodes.Construct()
	n.Value = v
	old := n.Next.Load()
	n.Next.CompareAndSwap(old, old.WithRef(tagptr.Nil))
	q.size.AddAcqRel(1)

	last := q.nodes.Node(q.tail.Load().Ref())
	for {
		next := last.Next.Load()
		if !next.IsNil() {
			last = q.nodes.Node(next.Ref())
			continue
		}
		if last.Next.CompareAndSwap(next, next.Next(ref)) {
			return
		}
	}
}
