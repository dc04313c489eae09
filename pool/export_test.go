// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pool

// MarkInUseForTest flips the slot named by ref to in-use behind the free
// list's back, as a second owner would.
func (p *Pool[T]) MarkInUseForTest(ref uint64) {
	p.Node(ref).state.StoreRelease(slotInUse)
}

// ClaimForTest advances the high-water mark by n without publishing
// storage, as a goroutine preempted inside Construct would.
func (p *Pool[T]) ClaimForTest(n uint64) {
	p.hwm.AddAcqRel(n)
}

// PublishForTest installs chunk k out of order.
func (p *Pool[T]) PublishForTest(k int) {
	p.publish(k)
}
