// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msq

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// Pop and Dequeue return it when the structure was observed empty. It is a
// control flow signal, not a failure: the structure is untouched and a
// later Push/Pop pair succeeds normally.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
//
// Example:
//
//	backoff := iox.Backoff{}
//	for {
//	    v, err := q.Pop()
//	    if err == nil {
//	        backoff.Reset()
//	        process(v)
//	        continue
//	    }
//	    if msq.IsWouldBlock(err) {
//	        backoff.Wait()
//	        continue
//	    }
//	    return err // poisoned or closed
//	}
var ErrWouldBlock = iox.ErrWouldBlock

var (
	// ErrPoisoned is returned by every operation after an invariant
	// violation has been detected. The structure refuses further service.
	ErrPoisoned = errors.New("msq: poisoned by earlier invariant violation")

	// ErrClosed is returned by operations after Close.
	ErrClosed = errors.New("msq: closed")

	// ErrCorrupted matches every [*InvariantError] via errors.Is.
	ErrCorrupted = errors.New("msq: structure corrupted")

	// ErrNegativeSize reports a size counter below zero after a pop,
	// which signals pool or tag corruption.
	ErrNegativeSize = errors.New("msq: negative size")

	// ErrUnexpectedCAS reports a compare-and-swap on an exclusively owned
	// word that did not succeed.
	ErrUnexpectedCAS = errors.New("msq: compare-and-swap on owned node failed")

	// ErrStarvation reports a retry loop that exceeded its limit.
	ErrStarvation = errors.New("msq: possible infinite loop")

	// ErrPoolContract reports a contract violation detected by the node pool.
	ErrPoolContract = errors.New("msq: node pool contract violation")
)

// InvariantError describes the violation that poisoned a structure.
// It is returned once, by the operation that detected the violation;
// later operations return [ErrPoisoned].
type InvariantError struct {
	Op  string
	Err error
}

func (e *InvariantError) Error() string {
	return "msq: " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the specific cause.
func (e *InvariantError) Unwrap() error {
	return e.Err
}

// Is reports whether target is [ErrCorrupted].
func (e *InvariantError) Is(target error) bool {
	return target == ErrCorrupted
}

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil, ErrWouldBlock, or ErrMore.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
