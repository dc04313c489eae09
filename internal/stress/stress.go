// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"code.hybscloud.com/atomix"
	"golang.org/x/sync/errgroup"

	"code.hybscloud.com/msq"
	"code.hybscloud.com/msq/evlog"
)

// ErrValidation is returned by Run when the workload observed a violation.
var ErrValidation = errors.New("stress: validation failed")

// Item is the payload pushed by workers.
type Item struct {
	Owner uint32
	ID    uint32
}

// container is the surface shared by msq.Queue and msq.Stack.
type container interface {
	msq.Container[Item]
	Push(v Item) (int64, error)
}

// Report summarizes one run.
type Report struct {
	Config     Config
	Pushed     int64
	Popped     int64
	Empty      int64 // Pops that found the container empty while an item was owed
	Oversize   int64 // Bounded pushes that returned a size above the bound
	MaxSize    int64
	Missing    int
	Duplicates int
	FinalSize  int64
	Poisoned   bool
	PoolErrors int64
	Elapsed    time.Duration
	Events     []evlog.Entry // Populated on failure when tracing is enabled
}

// Failures lists every violation in the report.
func (r *Report) Failures() []string {
	var out []string
	if r.Missing > 0 {
		out = append(out, fmt.Sprintf("%d items never popped", r.Missing))
	}
	if r.Duplicates > 0 {
		out = append(out, fmt.Sprintf("%d items popped more than once", r.Duplicates))
	}
	if r.Empty > 0 {
		out = append(out, fmt.Sprintf("%d pops found no item in the container", r.Empty))
	}
	if r.Oversize > 0 {
		out = append(out, fmt.Sprintf("%d pushes saw too many items (max %d)", r.Oversize, r.MaxSize))
	}
	if r.FinalSize != 0 {
		out = append(out, fmt.Sprintf("size %d after drain", r.FinalSize))
	}
	if r.Poisoned {
		out = append(out, "container poisoned")
	}
	if r.PoolErrors != 0 {
		out = append(out, fmt.Sprintf("%d pool contract violations", r.PoolErrors))
	}
	return out
}

// OK reports whether the run passed.
func (r *Report) OK() bool {
	return len(r.Failures()) == 0
}

// Dump writes the captured events one per line.
func (r *Report) Dump(w io.Writer) error {
	for _, e := range r.Events {
		if _, err := fmt.Fprintln(w, e.String()); err != nil {
			return err
		}
	}
	return nil
}

// run is the shared state of one workload.
type run struct {
	cfg    Config
	c      container
	log    *evlog.Log
	seen   []atomix.Int32
	pushed atomix.Int64
	popped atomix.Int64
	empty  atomix.Int64
	over   atomix.Int64
	max    atomix.Int64
}

// Run executes the workload described by cfg and verifies the outcome.
// The returned report is non-nil whenever the workload started; the error
// wraps ErrValidation if any check failed.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &run{cfg: cfg, seen: make([]atomix.Int32, cfg.Goroutines*cfg.Items)}

	var opts []msq.Option
	if cfg.EventLog > 0 {
		r.log = msq.NewEventLog(cfg.EventLog)
		opts = append(opts, msq.WithEventLog(r.log))
	}
	if cfg.RetryLimit > 0 {
		opts = append(opts, msq.WithRetryLimit(cfg.RetryLimit))
	}
	switch cfg.Structure {
	case StructureStack:
		r.c = msq.NewStack[Item](opts...)
	default:
		r.c = msq.New[Item](opts...)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	began := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	ready := make(chan struct{})
	for w := range cfg.Goroutines {
		strategy := cfg.Strategy
		if strategy == Random {
			rng := rand.New(rand.NewPCG(cfg.Seed, uint64(w)))
			strategy = [...]Strategy{PushAllPopAll, PingPong}[rng.IntN(2)]
		}
		g.Go(func() error {
			<-ready
			return r.work(gctx, uint32(w), strategy)
		})
	}
	close(ready)
	werr := g.Wait()

	rep := r.report(time.Since(began))
	if werr == nil {
		if err := r.c.Close(); err != nil {
			werr = fmt.Errorf("close: %w", err)
		}
	}
	if werr != nil || !rep.OK() {
		rep.Events = r.log.Snapshot()
		return rep, r.failure(rep, werr)
	}
	return rep, nil
}

func (r *run) failure(rep *Report, werr error) error {
	msgs := rep.Failures()
	if werr != nil {
		msgs = append([]string{werr.Error()}, msgs...)
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func (r *run) report(elapsed time.Duration) *Report {
	rep := &Report{
		Config:     r.cfg,
		Pushed:     r.pushed.Load(),
		Popped:     r.popped.Load(),
		Empty:      r.empty.Load(),
		Oversize:   r.over.Load(),
		MaxSize:    r.max.Load(),
		FinalSize:  r.c.Size(),
		Poisoned:   r.c.Poisoned(),
		PoolErrors: r.c.PoolErrors(),
		Elapsed:    elapsed,
	}
	for i := range r.seen {
		switch n := r.seen[i].Load(); {
		case n == 0:
			rep.Missing++
		case n > 1:
			rep.Duplicates++
		}
	}
	return rep
}

func (r *run) work(ctx context.Context, owner uint32, strategy Strategy) error {
	n := r.cfg.Items
	switch strategy {
	case PushAllPopAll:
		for i := range n {
			if err := r.push(ctx, owner, i); err != nil {
				return err
			}
		}
		for range n {
			if err := r.pop(ctx); err != nil {
				return err
			}
		}
	case PingPong:
		for i := range n {
			if err := r.push(ctx, owner, i); err != nil {
				return err
			}
			if err := r.pop(ctx); err != nil {
				return err
			}
		}
	case Bounded:
		for i := 0; i < n; i += r.cfg.Burst {
			burst := min(r.cfg.Burst, n-i)
			for j := range burst {
				if err := r.push(ctx, owner, i+j); err != nil {
					return err
				}
			}
			for range burst {
				if err := r.pop(ctx); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *run) push(ctx context.Context, owner uint32, id int) error {
	if id&1023 == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	size, err := r.c.Push(Item{Owner: owner, ID: uint32(id)})
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}
	r.pushed.Add(1)
	for {
		m := r.max.Load()
		if size <= m || r.max.CompareAndSwapAcqRel(m, size) {
			break
		}
	}
	if r.cfg.Strategy == Bounded && size > int64(r.cfg.Burst*r.cfg.Goroutines) {
		r.over.Add(1)
	}
	return nil
}

// pop is called only when the worker's own pushes guarantee an item is
// present, so an empty result is a violation rather than a retry.
func (r *run) pop(ctx context.Context) error {
	it, err := r.c.Pop()
	if msq.IsWouldBlock(err) {
		r.empty.Add(1)
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("pop: %w", err)
	}
	r.popped.Add(1)
	if int(it.Owner) >= r.cfg.Goroutines || int(it.ID) >= r.cfg.Items {
		return fmt.Errorf("pop: foreign item %+v", it)
	}
	r.seen[int(it.Owner)*r.cfg.Items+int(it.ID)].Add(1)
	return nil
}
