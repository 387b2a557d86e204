package utilities

import (
	"strings"
	"sync"

	"github.com/antonio-alexander/go-employee-records/internal/data"
)

type hitMiss struct {
	hit  int
	miss int
}

type counter struct {
	sync.RWMutex
	counters map[string]*hitMiss
	metrics  *Metrics
}

// Counter tracks cache hits and misses per key
type Counter interface {
	Read(key string) (hitCount, missCount int)
	ReadAll() *data.CacheCounters
	IncrementHit(key string) (hitCount int)
	IncrementMiss(key string) (missCount int)
	Reset()
}

// NewCounter creates a counter, when *Metrics is provided every lookup is
// also exported, labelled by the key's prefix (e.g. employee_1 -> employee)
func NewCounter(parameters ...any) Counter {
	c := &counter{counters: make(map[string]*hitMiss)}
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case *Metrics:
			c.metrics = p
		}
	}
	return c
}

func keyKind(key string) string {
	kind, _, _ := strings.Cut(key, "_")
	return kind
}

func (c *counter) increment(key string, hit bool) int {
	c.Lock()
	defer c.Unlock()

	h, found := c.counters[key]
	if !found {
		h = &hitMiss{}
		c.counters[key] = h
	}
	if c.metrics != nil {
		c.metrics.ObserveCacheLookup(keyKind(key), hit)
	}
	if hit {
		h.hit++
		return h.hit
	}
	h.miss++
	return h.miss
}

func (c *counter) Read(key string) (int, int) {
	c.RLock()
	defer c.RUnlock()

	h, found := c.counters[key]
	if !found {
		return -1, -1
	}
	return h.hit, h.miss
}

func (c *counter) ReadAll() *data.CacheCounters {
	c.RLock()
	defer c.RUnlock()

	counters := &data.CacheCounters{
		CounterHits:   make(map[string]int, len(c.counters)),
		CounterMisses: make(map[string]int, len(c.counters)),
	}
	for key, h := range c.counters {
		counters.CounterHits[key] = h.hit
		counters.CounterMisses[key] = h.miss
	}
	return counters
}

func (c *counter) Reset() {
	c.Lock()
	defer c.Unlock()

	clear(c.counters)
}

func (c *counter) IncrementHit(key string) int {
	return c.increment(key, true)
}

func (c *counter) IncrementMiss(key string) int {
	return c.increment(key, false)
}
