// Package prombridge re-records metrics from a Prometheus gatherer into a
// pulse registry on a fixed interval.
//
// Families are dispatched by type: gauges and untyped values become pulse
// gauges, counters become pulse counters fed with the delta since the
// previous cycle, histograms and summaries are decomposed into delta
// counters and quantile gauges. Cumulative sources keep a previous-value
// baseline per series so a sample is never double-counted across cycles.
package prombridge
