// Package otelbridge re-records metrics from an OpenTelemetry SDK reader
// into a pulse registry on a fixed interval.
//
// Instruments are dispatched by data type: gauges and non-monotonic sums
// become pulse gauges, monotonic sums become pulse counters fed with the
// delta since the previous cycle, histograms are decomposed into count and
// sum delta counters plus a max gauge when the SDK recorded one. Attribute
// sets become tags.
package otelbridge
