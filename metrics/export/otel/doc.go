// Package otel publishes engine metrics through an OpenTelemetry meter using
// observable instruments read on each collection.
//
// Counters become Int64ObservableCounters with the same names as the
// Prometheus exporter. The latency histogram is reported as a cumulative
// gauge per bucket, distinguished by an "le" attribute, plus a _count gauge.
package otel
