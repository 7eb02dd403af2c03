// Package prometheus renders bioauth metrics in Prometheus text exposition
// format.
//
// [NewPrometheusExporter] accepts a [bioauth.Engine] and exposes an
// [net/http.Handler] serving all engine counters and histograms. Counter
// names are prefixed bioauth_*_total; the single histogram is
// bioauth_signin_latency_seconds. Nothing registers in a global Prometheus
// registry; callers mount the Handler where they want it.
package prometheus
