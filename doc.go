// Package pulse is a lock-free metrics instrumentation library with
// step-windowed aggregation.
//
// Writers record into meters (Counter, Gauge, MaxGauge, Timer,
// DistributionSummary) through atomic compare-and-swap retry loops; no
// operation blocks. Step-windowed meters accumulate into the current
// interval and freeze the result at the step boundary, so a poll cycle
// always reads a stable, already-closed window.
//
// # Architecture boundaries
//
// pulse is the public surface. It exposes [Registry], [Builder], [Config],
// the meter types, and the value types (Id, Tag, Measurement, Clock, Sink).
// Bridges that re-record foreign metric sources into a pulse registry
// (Prometheus, OpenTelemetry, go-redis pool stats) live under bridge/ and
// depend on pulse, never the reverse.
//
// # Concurrency contract
//
// Any number of goroutines may write to any meter while one poll cycle
// reads. Rotation at a step boundary happens exactly once, lazily, on the
// first access after the boundary; there is no background timer inside the
// meters. Poll and Measurements are idempotent within a window. Writes
// racing a step boundary may land in either the closing or the opening
// window, never both.
package pulse
