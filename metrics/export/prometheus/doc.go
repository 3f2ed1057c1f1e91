// Package prometheus exposes roleAuth engine counters through
// prometheus/client_golang.
//
// [Collector] reads [roleAuth.Engine.MetricsSnapshot] on every scrape.
// Counters are named roleauth_*_total and the gate latency histogram is
// roleauth_authenticate_latency_seconds. [Handler] mounts the collector on a
// private registry.
package prometheus
