package testfixtures

import (
	"strconv"
	"sync/atomic"
)

// IDGenerator hands out sequential identifiers such as "appt-1", "appt-2",
// letting test assertions name records up front instead of capturing whatever
// the generator produced.
type IDGenerator struct {
	prefix  string
	counter atomic.Uint64
}

// NewIDGenerator builds a generator for the given prefix. An empty prefix
// becomes "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next reserves and formats the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	return g.prefix + "-" + strconv.FormatUint(g.counter.Add(1), 10)
}

// NextFunc adapts the generator to the idGenerator dependency the services
// accept. A nil generator yields empty identifiers.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// SetCounter positions the sequence so the next identifier carries counter+1.
func (g *IDGenerator) SetCounter(counter uint64) {
	g.counter.Store(counter)
}
