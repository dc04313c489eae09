// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pool

import (
	"errors"
	"strconv"
)

var (
	// ErrDoubleFree reports a Destroy of a slot that is not in use.
	ErrDoubleFree = errors.New("pool: double free")

	// ErrDoubleUse reports a free-list pop of a slot that is already in use.
	ErrDoubleUse = errors.New("pool: double use")

	// ErrBadRef reports a reference that was never handed out.
	ErrBadRef = errors.New("pool: invalid reference")
)

// Op names the pool operation that detected a contract violation.
type Op string

const (
	OpConstruct Op = "construct"
	OpDestroy   Op = "destroy"
)

// Error describes a pool contract violation.
type Error struct {
	Op  Op
	Ref uint64
	Err error
}

func (e *Error) Error() string {
	return "pool: " + string(e.Op) + " ref " + strconv.FormatUint(e.Ref, 10) + ": " + e.Err.Error()
}

// Unwrap returns the sentinel error.
func (e *Error) Unwrap() error {
	return e.Err
}
