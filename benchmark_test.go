// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msq_test

import (
	"runtime"
	"sync"
	"testing"

	"code.hybscloud.com/iox"

	"code.hybscloud.com/msq"
)

// =============================================================================
// Single-Goroutine Benchmarks
// =============================================================================

func BenchmarkQueue_SingleOp(b *testing.B) {
	q := msq.New[int](msq.WithCapacity(1024))

	b.ResetTimer()
	for i := range b.N {
		q.Push(i)
		q.Pop()
	}
}

func BenchmarkQueue_Emplace(b *testing.B) {
	q := msq.New[[4]uint64](msq.WithCapacity(1024))

	b.ResetTimer()
	for i := range b.N {
		q.Emplace(func(v *[4]uint64) {
			v[0] = uint64(i)
		})
		q.Pop()
	}
}

func BenchmarkQueue_EventLog(b *testing.B) {
	q := msq.New[int](msq.WithEventLog(msq.NewEventLog(1 << 12)))

	b.ResetTimer()
	for i := range b.N {
		q.Push(i)
		q.Pop()
	}
}

func BenchmarkStack_SingleOp(b *testing.B) {
	s := msq.NewStack[int](msq.WithCapacity(1024))

	b.ResetTimer()
	for i := range b.N {
		s.Push(i)
		s.Pop()
	}
}

// =============================================================================
// Parallel Benchmarks
// =============================================================================

func BenchmarkQueue_Parallel(b *testing.B) {
	if msq.RaceEnabled {
		b.Skip("skip: lock-free algorithm uses cross-variable memory ordering")
	}
	benchmarkParallel(b, msq.New[int](msq.WithCapacity(4096)))
}

func BenchmarkStack_Parallel(b *testing.B) {
	if msq.RaceEnabled {
		b.Skip("skip: lock-free algorithm uses cross-variable memory ordering")
	}
	benchmarkParallel(b, msq.NewStack[int](msq.WithCapacity(4096)))
}

func benchmarkParallel(b *testing.B, c msq.Container[int]) {
	numProducers := max(runtime.GOMAXPROCS(0)/2, 1)
	numConsumers := max(runtime.GOMAXPROCS(0)/2, 1)
	opsPerProducer := max(b.N/numProducers, 1)
	total := opsPerProducer * numProducers

	b.ResetTimer()

	var producerWg sync.WaitGroup
	var consumerWg sync.WaitGroup

	for range numProducers {
		producerWg.Add(1)
		go func() {
			defer producerWg.Done()
			for i := range opsPerProducer {
				v := i
				c.Enqueue(&v)
			}
		}()
	}

	remaining := make(chan struct{}, total)
	for range total {
		remaining <- struct{}{}
	}
	close(remaining)

	for range numConsumers {
		consumerWg.Add(1)
		go func() {
			defer consumerWg.Done()
			backoff := iox.Backoff{}
			for range remaining {
				for {
					if _, err := c.Dequeue(); err == nil {
						break
					}
					backoff.Wait()
				}
				backoff.Reset()
			}
		}()
	}

	producerWg.Wait()
	consumerWg.Wait()
}

// BenchmarkQueue_PingPong measures push-then-pop churn where every
// goroutine recycles nodes through the shared pool.
func BenchmarkQueue_PingPong(b *testing.B) {
	if msq.RaceEnabled {
		b.Skip("skip: lock-free algorithm uses cross-variable memory ordering")
	}
	q := msq.New[int]()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			q.Push(i)
			q.Pop()
			i++
		}
	})
}
