package models

import (
	"strconv"
	"sync"
	"time"
)

// IDGenerator issues registration IDs of the form <prefix><epoch-millis>.
// Within one process IDs are strictly increasing even when two requests land
// in the same millisecond.
type IDGenerator struct {
	prefix string
	now    func() time.Time

	mu   sync.Mutex
	last int64
}

func NewIDGenerator(prefix string) *IDGenerator {
	return &IDGenerator{prefix: prefix, now: time.Now}
}

// WithClock overrides the time source (tests).
func (g *IDGenerator) WithClock(now func() time.Time) *IDGenerator {
	g.now = now
	return g
}

func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return g.prefix + strconv.FormatInt(ms, 10)
}
