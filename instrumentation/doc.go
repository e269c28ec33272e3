// Package instrumentation provides OpenTelemetry metrics and tracing for the
// auth gateway and the upstream data clients. When disabled it falls back to
// no-op providers so instrumented call sites carry zero overhead.
package instrumentation
