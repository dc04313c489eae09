// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pool

// Option configures a Pool.
type Option func(*options)

type options struct {
	sink func(error)
}

// WithErrorSink installs fn to receive every contract violation as an
// [*Error]. fn is called on the goroutine that detected the violation and
// must not call back into the pool.
func WithErrorSink(fn func(error)) Option {
	return func(o *options) {
		o.sink = fn
	}
}
