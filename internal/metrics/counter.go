// Package metrics holds the process-wide request counter the gateway owns
// and the UI layer reads. It is an in-process value, not an exported
// metrics surface.
package metrics

import "sync/atomic"

// RequestCounter counts successful gateway invocations.
type RequestCounter struct {
	n atomic.Uint64
}

// NewRequestCounter creates a counter starting at zero.
func NewRequestCounter() *RequestCounter {
	return &RequestCounter{}
}

// Inc records one successful request.
func (c *RequestCounter) Inc() {
	c.n.Add(1)
}

// Count returns the number of successful requests so far.
func (c *RequestCounter) Count() uint64 {
	return c.n.Load()
}
