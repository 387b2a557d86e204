package data

// CacheCounters are the cache hits and misses per counter key, employee
// reads are counted as "employee_<id>" and searches as "search"
type CacheCounters struct {
	CounterHits   map[string]int `json:"counter_hits,omitempty"`
	CounterMisses map[string]int `json:"counter_misses,omitempty"`
}

// HitRatio returns the percentage of reads for key served from the
// cache and the total number of reads
func (c *CacheCounters) HitRatio(key string) (float64, int) {
	hit, miss := c.CounterHits[key], c.CounterMisses[key]
	total := hit + miss
	if total == 0 {
		return 0, 0
	}
	return float64(hit) / float64(total) * 100, total
}
