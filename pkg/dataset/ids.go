package dataset

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator hands out example ids. An id must never be returned twice
// within the lifetime of the process.
type IDGenerator interface {
	NextID() string
}

// CounterIDs generates ids from a monotonically increasing counter.
// The zero value is ready to use and safe for concurrent use.
type CounterIDs struct {
	n atomic.Uint64
}

// NextID returns the next counter value as a decimal string.
func (c *CounterIDs) NextID() string {
	return strconv.FormatUint(c.n.Add(1), 10)
}

// DefaultIDs is the process-wide generator used by stores created without
// WithIDGenerator. It starts at process start and is never reset, so ids are
// unique across all default stores.
var DefaultIDs = &CounterIDs{}

// UUIDs generates random version 4 UUIDs.
type UUIDs struct{}

// NextID returns a new random UUID string.
func (UUIDs) NextID() string {
	return uuid.NewString()
}
