// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tagptr provides generation-tagged references for ABA-safe
// compare-and-swap.
//
// A [Ptr] bundles a slot reference with a tag. Whenever a CAS installs a
// new reference on top of an observed value, the tag is advanced with
// [Ptr.Next], so two values that name the same slot at different points
// in time never compare equal.
//
// [Atomic] stores a Ptr in a single 128-bit word so the pair is loaded and
// swapped as one unit:
//
//	var head tagptr.Atomic
//	head.Init(tagptr.Of(dummy))
//
//	old := head.Load()
//	if head.CompareAndSwap(old, old.Next(ref)) {
//	    // installed ref with tag old.Tag()+1
//	}
//
// References are opaque slot numbers handed out by an arena (see package
// pool). Zero is the null reference.
package tagptr

import (
	"strconv"

	"code.hybscloud.com/atomix"
)

// Nil is the null reference.
const Nil uint64 = 0

// Ptr is a slot reference paired with a generation tag.
// Two Ptr values are equal only if both fields match.
type Ptr struct {
	ref uint64
	tag uint64
}

// New returns a Ptr for ref with the given tag.
func New(ref, tag uint64) Ptr {
	return Ptr{ref: ref, tag: tag}
}

// Of returns a Ptr for ref with a zero tag.
func Of(ref uint64) Ptr {
	return Ptr{ref: ref}
}

// Ref returns the slot reference.
func (p Ptr) Ref() uint64 {
	return p.ref
}

// Tag returns the generation tag.
func (p Ptr) Tag() uint64 {
	return p.tag
}

// IsNil reports whether p holds the null reference, regardless of tag.
func (p Ptr) IsNil() bool {
	return p.ref == Nil
}

// Next returns a Ptr for ref tagged one past p.
// Use it to build the new value of every CAS that replaces p.
func (p Ptr) Next(ref uint64) Ptr {
	return Ptr{ref: ref, tag: p.tag + 1}
}

// WithRef returns a Ptr for ref carrying p's tag unchanged.
func (p Ptr) WithRef(ref uint64) Ptr {
	return Ptr{ref: ref, tag: p.tag}
}

// String formats p as "ref:tag", or "nil:tag" for the null reference.
func (p Ptr) String() string {
	var b []byte
	if p.ref == Nil {
		b = append(b, "nil"...)
	} else {
		b = strconv.AppendUint(b, p.ref, 10)
	}
	b = append(b, ':')
	b = strconv.AppendUint(b, p.tag, 10)
	return string(b)
}

// Atomic is a Ptr updated atomically as a single 128-bit unit.
//
// Entry format: [lo=tag | hi=ref]
//
// The zero value holds the null reference with tag 0.
type Atomic struct {
	v atomix.Uint128
}

// Init stores p without ordering guarantees.
// Only valid before the Atomic is shared with other goroutines.
func (a *Atomic) Init(p Ptr) {
	a.v.StoreRelaxed(p.tag, p.ref)
}

// Load atomically loads the current value with acquire ordering.
func (a *Atomic) Load() Ptr {
	tag, ref := a.v.LoadAcquire()
	return Ptr{ref: ref, tag: tag}
}

// CompareAndSwap installs new if the current value equals old in both
// reference and tag.
func (a *Atomic) CompareAndSwap(old, new Ptr) bool {
	return a.v.CompareAndSwapAcqRel(old.tag, old.ref, new.tag, new.ref)
}
