// Package otel publishes roleAuth engine counters through the OpenTelemetry
// metric API.
//
// [NewExporter] registers one Int64ObservableCounter per engine counter and a
// set of cumulative bucket gauges for the gate latency histogram. A single
// callback reads the engine snapshot on each collection. Callers own the
// MeterProvider.
package otel
