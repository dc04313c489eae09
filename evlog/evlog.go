// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package evlog provides a fixed-capacity, overwrite-on-wrap trace of
// tagged-pointer events for postmortem analysis of lock-free structures.
//
// Writers never wait: each Record takes the next sequence number with
// Fetch-And-Add and stores its entry at seq & mask. Concurrent writers may
// overwrite each other's entries, so the log is lossy and must never be
// used for correctness decisions. Every entry field is a separate atomic
// word; a reader detects entries rewritten during the read by comparing the
// sequence number before and after, and drops them.
//
// A nil *Log is valid and records nothing:
//
//	var l *evlog.Log               // disabled
//	l = evlog.New(1<<16, names)    // enabled
//	l.Record(evPushed, ptr)
//
// After a detected invariant violation, dump the surviving history:
//
//	l.WriteTo(os.Stderr)
package evlog

import (
	"fmt"
	"io"
	"math/bits"
	"runtime"
	"slices"
	"strconv"

	"code.hybscloud.com/atomix"

	"code.hybscloud.com/msq/tagptr"
)

// Event is a message code; the Log's name table renders it.
type Event uint32

// Log is a ring of trace entries.
type Log struct {
	_       pad
	seq     atomix.Uint64 // Last issued sequence number (FAA)
	_       pad
	entries []slot
	mask    uint64
	names   []string
}

type slot struct {
	seq atomix.Uint64 // 0 while being written
	gid atomix.Uint64
	ev  atomix.Uint64
	ref atomix.Uint64
	tag atomix.Uint64
	pc  atomix.Uintptr
}

// Entry is one recovered trace record.
type Entry struct {
	Seq       uint64
	Goroutine uint64
	Event     Event
	Message   string
	Param     tagptr.Ptr
	PC        uintptr
}

// New creates a log holding size entries, rounded up to a power of 2.
// names[ev] is the message for event ev.
// Panics if size < 2.
func New(size int, names []string) *Log {
	if size < 2 {
		panic("evlog: size must be >= 2")
	}
	n := uint64(1) << bits.Len(uint(size-1))
	return &Log{
		entries: make([]slot, n),
		mask:    n - 1,
		names:   names,
	}
}

// Record appends an entry for ev with the snapshot p, tagged with the
// calling goroutine and call site.
func (l *Log) Record(ev Event, p tagptr.Ptr) {
	if l == nil {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(2, pcs[:])

	seq := l.seq.AddAcqRel(1)
	s := &l.entries[seq&l.mask]
	s.seq.StoreRelaxed(0)
	s.gid.StoreRelaxed(goroutineID())
	s.ev.StoreRelaxed(uint64(ev))
	s.ref.StoreRelaxed(p.Ref())
	s.tag.StoreRelaxed(p.Tag())
	s.pc.StoreRelaxed(pcs[0])
	s.seq.StoreRelease(seq)
}

// Len returns the number of records issued, including overwritten ones.
func (l *Log) Len() uint64 {
	if l == nil {
		return 0
	}
	return l.seq.LoadAcquire()
}

// Cap returns the ring capacity.
func (l *Log) Cap() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Snapshot returns the entries that were stable during the read, ordered
// by sequence number. History may be incomplete.
func (l *Log) Snapshot() []Entry {
	if l == nil {
		return nil
	}
	out := make([]Entry, 0, len(l.entries))
	for i := range l.entries {
		s := &l.entries[i]
		seq := s.seq.LoadAcquire()
		if seq == 0 {
			continue
		}
		e := Entry{
			Seq:       seq,
			Goroutine: s.gid.LoadAcquire(),
			Event:     Event(s.ev.LoadAcquire()),
			Param:     tagptr.New(s.ref.LoadAcquire(), s.tag.LoadAcquire()),
			PC:        s.pc.LoadAcquire(),
		}
		if s.seq.LoadAcquire() != seq {
			continue // overwritten while reading
		}
		e.Message = l.name(e.Event)
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})
	return out
}

// WriteTo renders the snapshot one entry per line.
func (l *Log) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, e := range l.Snapshot() {
		n, err := io.WriteString(w, e.String()+"\n")
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (l *Log) name(ev Event) string {
	if int(ev) < len(l.names) && l.names[ev] != "" {
		return l.names[ev]
	}
	return "event(" + strconv.FormatUint(uint64(ev), 10) + ")"
}

// Site resolves the call site to "file:line" and the function name.
func (e Entry) Site() (file string, line int, function string) {
	if e.PC == 0 {
		return "", 0, ""
	}
	frames := runtime.CallersFrames([]uintptr{e.PC})
	f, _ := frames.Next()
	return f.File, f.Line, f.Function
}

func (e Entry) String() string {
	file, line, _ := e.Site()
	return fmt.Sprintf("#%d g%d %s %s %s:%d", e.Seq, e.Goroutine, e.Message, e.Param, file, line)
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte
