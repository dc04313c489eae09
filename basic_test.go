// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msq_test

import (
	"errors"
	"strings"
	"testing"

	"code.hybscloud.com/msq"
)

// =============================================================================
// Queue - Basic Operations
// =============================================================================

// TestQueueBasic pushes 1, 2, 3 and pops them back in order; a fourth pop
// observes the empty queue.
func TestQueueBasic(t *testing.T) {
	q := msq.New[int]()

	for i := 1; i <= 3; i++ {
		size, err := q.Push(i)
		if err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
		if size != int64(i) {
			t.Fatalf("Push(%d): size got %d, want %d", i, size, i)
		}
	}
	if q.Size() != 3 {
		t.Fatalf("Size: got %d, want 3", q.Size())
	}

	for i := 1; i <= 3; i++ {
		v, err := q.Pop()
		if err != nil {
			t.Fatalf("Pop(%d): %v", i, err)
		}
		if v != i {
			t.Fatalf("Pop(%d): got %d, want %d", i, v, i)
		}
	}

	if _, err := q.Pop(); !errors.Is(err, msq.ErrWouldBlock) {
		t.Fatalf("Pop on empty: got %v, want ErrWouldBlock", err)
	}
	if q.Size() != 0 {
		t.Fatalf("Size: got %d, want 0", q.Size())
	}
}

// TestQueueEmptyContract checks that popping an empty queue repeatedly
// leaves it usable.
func TestQueueEmptyContract(t *testing.T) {
	q := msq.New[uint64]()

	for range 3 {
		v, err := q.Pop()
		if !msq.IsWouldBlock(err) {
			t.Fatalf("Pop on empty: got %v, want ErrWouldBlock", err)
		}
		if v != 0 {
			t.Fatalf("Pop on empty: got value %d, want zero", v)
		}
		if !msq.IsSemantic(err) || !msq.IsNonFailure(err) {
			t.Fatalf("ErrWouldBlock must be a non-failure control signal")
		}
	}

	if _, err := q.Push(9); err != nil {
		t.Fatalf("Push after empty pops: %v", err)
	}
	if v, err := q.Pop(); err != nil || v != 9 {
		t.Fatalf("Pop: got (%d, %v), want (9, nil)", v, err)
	}
	if q.Poisoned() {
		t.Fatal("queue poisoned by empty pops")
	}
}

// TestQueueFIFOLong checks order across many node recycles.
func TestQueueFIFOLong(t *testing.T) {
	q := msq.New[int](msq.WithCapacity(16))

	for round := range 50 {
		for i := range round + 1 {
			if _, err := q.Push(round*1000 + i); err != nil {
				t.Fatalf("Push: %v", err)
			}
		}
		for i := range round + 1 {
			v, err := q.Pop()
			if err != nil {
				t.Fatalf("Pop: %v", err)
			}
			if want := round*1000 + i; v != want {
				t.Fatalf("Pop: got %d, want %d", v, want)
			}
		}
	}
	if q.Size() != 0 {
		t.Fatalf("Size: got %d, want 0", q.Size())
	}
	// Recycling keeps the pool at the peak live count plus the sentinel.
	if got := q.PoolForTest().Cap(); got > 64 {
		t.Fatalf("pool grew to %d slots", got)
	}
}

type point struct {
	X, Y int32
	Tag  [4]byte
}

func TestQueueEmplaceAndEnqueue(t *testing.T) {
	q := msq.New[point]()

	size, err := q.Emplace(func(p *point) {
		p.X, p.Y = 1, 2
		copy(p.Tag[:], "abcd")
	})
	if err != nil || size != 1 {
		t.Fatalf("Emplace: got (%d, %v), want (1, nil)", size, err)
	}

	p := point{X: 3, Y: 4}
	if err := q.Enqueue(&p); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	p.X = 99 // queue holds a copy

	got, err := q.Dequeue()
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if got.X != 1 || got.Y != 2 || string(got.Tag[:]) != "abcd" {
		t.Fatalf("Dequeue: got %+v", got)
	}
	got, _ = q.Dequeue()
	if got.X != 3 || got.Y != 4 {
		t.Fatalf("Dequeue: got %+v, want {3 4}", got)
	}
}

// TestEmplaceOverwritesRecycledStorage checks that a recycled node's old
// payload does not leak through fields init leaves alone.
func TestEmplaceOverwritesRecycledStorage(t *testing.T) {
	q := msq.New[point]()
	q.Push(point{X: 7, Y: 7})
	q.Pop()

	q.Emplace(func(p *point) { *p = point{X: 1} })
	got, _ := q.Pop()
	if got != (point{X: 1}) {
		t.Fatalf("got %+v, want {X:1}", got)
	}
}

func TestQueueClose(t *testing.T) {
	q := msq.New[int]()
	for i := range 5 {
		q.Push(i)
	}

	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if in := q.PoolForTest().InUse(); in != 0 {
		t.Fatalf("InUse after Close: got %d, want 0", in)
	}
	if q.Size() != 0 {
		t.Fatalf("Size after Close: got %d, want 0", q.Size())
	}
	if _, err := q.Push(1); !errors.Is(err, msq.ErrClosed) {
		t.Fatalf("Push after Close: got %v, want ErrClosed", err)
	}
	if _, err := q.Pop(); !errors.Is(err, msq.ErrClosed) {
		t.Fatalf("Pop after Close: got %v, want ErrClosed", err)
	}
	if err := q.Close(); !errors.Is(err, msq.ErrClosed) {
		t.Fatalf("second Close: got %v, want ErrClosed", err)
	}
	if q.PoolErrors() != 0 {
		t.Fatalf("PoolErrors: got %d, want 0", q.PoolErrors())
	}
}

// =============================================================================
// Payload Contract
// =============================================================================

func TestPayloadContract(t *testing.T) {
	type plain struct {
		A [4]uint32
		B float64
		C bool
		D complex64
		E struct{ F uintptr }
	}
	type withSlice struct {
		A int
		B []byte
	}

	mustPanic := func(name string, f func()) {
		t.Helper()
		defer func() {
			r := recover()
			if r == nil {
				t.Fatalf("%s: expected panic", name)
			}
			if s, ok := r.(string); !ok || !strings.Contains(s, "pointer-free") {
				t.Fatalf("%s: unexpected panic %v", name, r)
			}
		}()
		f()
	}

	mustPanic("string", func() { msq.New[string]() })
	mustPanic("pointer", func() { msq.New[*int]() })
	mustPanic("slice field", func() { msq.New[withSlice]() })
	mustPanic("interface", func() { msq.NewStack[any]() })
	mustPanic("map array", func() { msq.NewStack[[2]map[int]int]() })

	// Pointer-free types are accepted.
	msq.New[plain]()
	msq.New[[0]*int]()
	msq.NewStack[uint8]()
}

func TestWithCapacityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("WithCapacity(-1): expected panic")
		}
	}()
	msq.WithCapacity(-1)
}

// =============================================================================
// Stack - Basic Operations
// =============================================================================

func TestStackBasic(t *testing.T) {
	s := msq.NewStack[int]()

	if _, err := s.Pop(); !errors.Is(err, msq.ErrWouldBlock) {
		t.Fatalf("Pop on empty: got %v, want ErrWouldBlock", err)
	}

	for i := 1; i <= 3; i++ {
		size, err := s.Push(i)
		if err != nil || size != int64(i) {
			t.Fatalf("Push(%d): got (%d, %v)", i, size, err)
		}
	}
	for i := 3; i >= 1; i-- {
		v, err := s.Pop()
		if err != nil {
			t.Fatalf("Pop: %v", err)
		}
		if v != i {
			t.Fatalf("Pop: got %d, want %d", v, i)
		}
	}
	if _, err := s.Dequeue(); !errors.Is(err, msq.ErrWouldBlock) {
		t.Fatalf("Dequeue on empty: got %v, want ErrWouldBlock", err)
	}

	v := 5
	s.Enqueue(&v)
	s.Emplace(func(p *int) { *p = 6 })
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if in := s.PoolForTest().InUse(); in != 0 {
		t.Fatalf("InUse after Close: got %d, want 0", in)
	}
	if _, err := s.Push(1); !errors.Is(err, msq.ErrClosed) {
		t.Fatalf("Push after Close: got %v, want ErrClosed", err)
	}
}

// =============================================================================
// Container Interface
// =============================================================================

func TestContainerInterface(t *testing.T) {
	tests := []struct {
		name string
		c    msq.Container[int]
		want []int
	}{
		{"Queue", msq.New[int](), []int{10, 20, 30}},
		{"Stack", msq.NewStack[int](), []int{30, 20, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, v := range []int{10, 20, 30} {
				if err := tt.c.Enqueue(&v); err != nil {
					t.Fatalf("Enqueue: %v", err)
				}
			}
			if tt.c.Size() != 3 {
				t.Fatalf("Size: got %d, want 3", tt.c.Size())
			}
			for _, want := range tt.want {
				got, err := tt.c.Dequeue()
				if err != nil || got != want {
					t.Fatalf("Dequeue: got (%d, %v), want %d", got, err, want)
				}
			}
			if err := tt.c.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}
			if tt.c.Poisoned() || tt.c.PoolErrors() != 0 {
				t.Fatal("unexpected poison or pool errors")
			}
		})
	}
}
