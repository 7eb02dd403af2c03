// Package otel provides OpenTelemetry metric exporter bindings for bioauth
// counters and histograms.
//
// [NewOTelExporter] registers Int64ObservableCounter instruments for each
// engine metric and Int64ObservableGauge per histogram bucket. A single
// callback reads [bioauth.Engine.Metrics] on each collection cycle. Callers
// supply the Meter; this package never owns a MeterProvider and never
// mutates engine state.
package otel
