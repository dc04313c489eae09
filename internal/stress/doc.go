// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package stress runs validation workloads against msq containers.
//
// Every worker pushes items tagged with its own identity and a sequence
// number, and records every item it pops. A run passes when each item was
// popped exactly once, no pop found the container empty while an item was
// owed, the size returned to zero, the container was not poisoned and the
// node pool reported no contract violation.
//
// On failure the [Report] carries the event log snapshot so the
// interleaving that led to the violation can be inspected.
package stress
