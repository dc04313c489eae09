// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msq

import "code.hybscloud.com/msq/evlog"

// Trace events recorded into the event log.
const (
	evAllocated evlog.Event = iota
	evClearNext
	evClearNextFailed
	evTail
	evTailNext
	evTailChanged
	evLinked
	evTailMoved
	evTailAlreadyMoved
	evTailLagging
	evTailHelped
	evHead
	evHeadNext
	evHeadChanged
	evEmpty
	evExtracted
	evHeadMoveFailed
	evPopped
	evNegativeSize
	evReleased
	evTop
	evTopMoveFailed
	evPoolError
	evStarvation
)

// EventNames renders the events recorded by Queue and Stack.
var EventNames = []string{
	evAllocated:        "allocated node:",
	evClearNext:        "clear node.next:",
	evClearNextFailed:  "FAILED clear node.next, was:",
	evTail:             "got tail:",
	evTailNext:         "got tail.next:",
	evTailChanged:      "retry push, tail changed from:",
	evLinked:           "linked tail.next:",
	evTailMoved:        "moved tail:",
	evTailAlreadyMoved: "tail already moved, was:",
	evTailLagging:      "tail lagging, next:",
	evTailHelped:       "helped tail to:",
	evHead:             "got head:",
	evHeadNext:         "got head.next:",
	evHeadChanged:      "retry pop, head changed from:",
	evEmpty:            "empty at head:",
	evExtracted:        "extracted from:",
	evHeadMoveFailed:   "retry pop, move failed for:",
	evPopped:           "popped, new head:",
	evNegativeSize:     "NEGATIVE size, head:",
	evReleased:         "released node:",
	evTop:              "got top:",
	evTopMoveFailed:    "retry, top changed from:",
	evPoolError:        "POOL contract violation:",
	evStarvation:       "POSSIBLE infinite loop at:",
}

// NewEventLog creates an event log of size entries using [EventNames].
func NewEventLog(size int) *evlog.Log {
	return evlog.New(size, EventNames)
}
