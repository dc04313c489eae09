// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package msq provides an unbounded lock-free MPMC FIFO queue with pooled,
// generation-tagged nodes.
//
// The package offers two linked structures sharing the same node
// discipline:
//
//   - Queue: Michael–Scott two-pointer FIFO (head sentinel, helping tail)
//   - Stack: Treiber LIFO with a tagged top
//
// # Quick Start
//
//	q := msq.New[Event]()
//	defer q.Close()
//
//	size, err := q.Push(Event{ID: 1})
//	ev, err := q.Pop()
//	if msq.IsWouldBlock(err) {
//	    // Queue is empty - try again later
//	}
//
// Construct in place without an intermediate copy:
//
//	q.Emplace(func(ev *Event) {
//	    ev.ID = 2
//	    ev.At = now
//	})
//
// # Memory Reuse and ABA
//
// Nodes come from a lock-free [pool.Pool] and go back to it the moment a
// pop unlinks them; the next push on any goroutine may receive the same
// slot. There are no hazard pointers or epochs. Instead every reference in
// head, tail and node.next is a [tagptr.Ptr] whose tag advances on every
// CAS, so a goroutine still holding a reference read before the slot was
// recycled fails its next CAS and retries.
//
// Because a consumer copies the payload out of a node before its CAS
// decides whether the copy is valid, the copy may race with a producer
// writing the recycled slot. Payload types must therefore be pointer-free
// (booleans, numbers, and arrays or structs of those). New and NewStack
// panic for any other type.
//
// # Error Handling
//
// Pop returns [ErrWouldBlock] when the structure is observed empty. This
// error is sourced from [code.hybscloud.com/iox] and is a control flow
// signal, not a failure.
//
// Invariant violations are not recoverable. A negative size counter, a
// failed CAS on a node the caller owns exclusively, a node pool contract
// violation, or a retry loop exceeding [WithRetryLimit] poisons the
// structure: the detecting call returns an [*InvariantError] (matching
// [ErrCorrupted]), and every later call returns [ErrPoisoned].
//
//	v, err := q.Pop()
//	switch {
//	case err == nil:
//	    process(v)
//	case msq.IsWouldBlock(err):
//	    // empty
//	case errors.Is(err, msq.ErrCorrupted), errors.Is(err, msq.ErrPoisoned):
//	    log.Fatal(err)
//	}
//
// # Size
//
// Size is advisory. It is reserved before a node is linked and released
// after it is unlinked, so it never goes negative under correct operation
// but may transiently exceed true membership while pushes are in flight.
//
// # Diagnostics
//
// Every step of push and pop can be mirrored into an [evlog.Log] for
// reconstructing interleavings after a failure:
//
//	l := msq.NewEventLog(1 << 16)
//	q := msq.New[int](msq.WithEventLog(l))
//	...
//	if q.Poisoned() {
//	    l.WriteTo(os.Stderr)
//	}
//
// The log is lossy and never influences the algorithm. Leave it off in
// production; recording parses the goroutine ID from the stack.
//
// # Race Detection
//
// Go's race detector is not designed for lock-free algorithm verification.
// It cannot observe happens-before relationships established through
// atomix operations, and the speculative payload copy in Pop is a genuine
// (benign, discarded) data race by construction.
//
// Tests incompatible with race detection skip via [RaceEnabled] or are
// excluded via //go:build !race.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering including the 128-bit tagged words, and
// [code.hybscloud.com/spin] for CPU pause instructions.
package msq
