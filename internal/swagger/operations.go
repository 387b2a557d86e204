package swagger

import "github.com/antonio-alexander/go-employee-records/internal/data"

// swagger:route DELETE /cache Cache DeleteCache
// Deletes all items in the cache.
//
// responses:
//   204: NoContentResponse

// swagger:route GET /cache/counters Cache ReadCacheCounters
// Reads the cache hit/miss counters.
//
// responses:
//   200: CacheCountersResponse

// swagger:route DELETE /cache/counters Cache DeleteCacheCounters
// Resets the cache hit/miss counters.
//
// responses:
//   204: NoContentResponse

// swagger:route GET /timers Timers ReadTimers
// Reads the request timers (totals and averages in nanoseconds).
//
// responses:
//   200: TimersResponse

// swagger:route DELETE /timers Timers DeleteTimers
// Deletes all timers.
//
// responses:
//   204: NoContentResponse

// swagger:response NoContentResponse
type NoContentResponse struct{}

// swagger:response CacheCountersResponse
type CacheCountersResponse struct {
	// in:body
	Body data.CacheCounters
}

// swagger:response TimersResponse
type TimersResponse struct {
	// in:body
	Body data.Timers
}
