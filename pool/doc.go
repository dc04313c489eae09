// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pool provides a lock-free arena of fixed-size nodes for linked
// lock-free structures.
//
// Nodes are addressed by reference (a uint64 slot number, zero is null)
// rather than by Go pointer, so they can be named inside a [tagptr.Ptr] and
// compared-and-swapped together with a generation tag.
//
//	p := pool.New[int](1024)
//	ref, n := p.Construct()
//	n.Value = 42
//	...
//	p.Destroy(ref)
//
// # Reuse Contract
//
// A destroyed slot may be handed out again by the next Construct on any
// goroutine, while other goroutines still hold stale references to it.
// Storage is never released: a stale reference always resolves to valid
// memory, and the generation tag in [Node.Next] is the only staleness
// detector. The pool never runs constructors or clears payloads, so
// Node.Value after Construct holds whatever was last written there.
//
// Payload types must therefore be safe to read while concurrently written:
// use pointer-free types only. A torn read of a string, slice, interface or
// pointer field is memory-unsafe.
//
// # Growth
//
// Storage grows in geometric chunks (chunk k holds base<<k slots). A
// goroutine that needs an unpublished chunk allocates it and publishes it
// with a CAS; the loser of a publish race drops its allocation. No
// operation ever waits for another goroutine.
//
// # Error Sink
//
// Contract violations (double free, double use, invalid reference) never
// panic. They are counted in [Pool.Errors] and passed as [*Error] to the
// sink installed with [WithErrorSink], so test harnesses can assert that no
// internal error occurred.
package pool
