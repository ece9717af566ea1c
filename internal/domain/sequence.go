package domain

import (
	"sync/atomic"
	"time"
)

var lastSeq atomic.Int64

// NextSeq returns a strictly increasing write sequence number. Values track
// wall-clock nanoseconds, so rows written by a later process still sort after
// rows written earlier.
func NextSeq() int64 {
	for {
		last := lastSeq.Load()
		next := time.Now().UnixNano()
		if next <= last {
			next = last + 1
		}
		if lastSeq.CompareAndSwap(last, next) {
			return next
		}
	}
}
