// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msq

import "code.hybscloud.com/msq/evlog"

// DefaultRetryLimit bounds every retry loop. It is far beyond any
// realistic contention; exceeding it indicates a bug.
const DefaultRetryLimit uint64 = 0x4_0000_0000

// Option configures a Queue or Stack.
type Option func(*options)

type options struct {
	capacity   int
	log        *evlog.Log
	sink       func(error)
	retryLimit uint64
}

func defaultOptions() options {
	return options{retryLimit: DefaultRetryLimit}
}

// WithCapacity reserves node storage for n elements up front.
// Storage still grows on demand beyond n.
// Panics if n < 0.
func WithCapacity(n int) Option {
	if n < 0 {
		panic("msq: capacity must be >= 0")
	}
	return func(o *options) {
		o.capacity = n
	}
}

// WithEventLog mirrors every step of push and pop into l.
// Use [NewEventLog] to create a log with this package's event names.
func WithEventLog(l *evlog.Log) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithErrorSink forwards node pool contract violations to fn as
// [*InvariantError] values wrapping [ErrPoolContract] and the [pool.Error].
// The structure is poisoned regardless of whether a sink is installed.
func WithErrorSink(fn func(error)) Option {
	return func(o *options) {
		o.sink = fn
	}
}

// WithRetryLimit sets the maximum number of retries per operation before
// it reports [ErrStarvation].
func WithRetryLimit(n uint64) Option {
	return func(o *options) {
		o.retryLimit = n
	}
}
