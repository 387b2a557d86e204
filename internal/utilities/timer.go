package utilities

import (
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-records/internal/data"
)

type timerGroup struct {
	next    int
	running map[int]time.Time
	count   int64
	total   time.Duration
}

type timers struct {
	sync.RWMutex
	groups map[string]*timerGroup
}

// Timers records request durations grouped by name; Start returns the index
// to pass to Stop. Only running timers are kept, stopped ones are folded
// into the group's total.
type Timers interface {
	Start(group string) int
	Stop(group string, index int) int64
	ReadAll() *data.Timers
	Clear()
}

func NewTimers() Timers {
	return &timers{
		groups: make(map[string]*timerGroup),
	}
}

func (t *timers) Clear() {
	t.Lock()
	defer t.Unlock()

	clear(t.groups)
}

func (t *timers) Start(group string) int {
	t.Lock()
	defer t.Unlock()

	g, found := t.groups[group]
	if !found {
		g = &timerGroup{running: make(map[int]time.Time)}
		t.groups[group] = g
	}
	index := g.next
	g.next++
	g.running[index] = time.Now()
	return index
}

// Stop returns the elapsed nanoseconds, or -1 if the timer isn't running
func (t *timers) Stop(group string, index int) int64 {
	t.Lock()
	defer t.Unlock()

	g, found := t.groups[group]
	if !found {
		return -1
	}
	started, found := g.running[index]
	if !found {
		return -1
	}
	delete(g.running, index)
	elapsed := time.Since(started)
	g.count++
	g.total += elapsed
	return elapsed.Nanoseconds()
}

func (t *timers) ReadAll() *data.Timers {
	t.RLock()
	defer t.RUnlock()

	all := &data.Timers{
		Totals:   make(map[string]int64, len(t.groups)),
		Averages: make(map[string]int64, len(t.groups)),
	}
	for name, g := range t.groups {
		all.Totals[name] = g.total.Nanoseconds()
		if g.count > 0 {
			all.Averages[name] = g.total.Nanoseconds() / g.count
		}
	}
	return all
}
