// Package redisbridge records go-redis connection pool statistics into a
// pulse registry on a fixed interval.
//
// Cumulative pool counters (hits, misses, timeouts, stale removals) are fed
// into pulse counters as the delta since the previous cycle, with uint32
// wraparound handled. Point in time sizes (total and idle connections)
// become pulse gauges.
package redisbridge
