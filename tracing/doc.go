// Package tracing wraps OpenTelemetry so that file mutations can be traced
// without the caller importing the SDK. Spans are no-ops until Init installs
// a provider.
package tracing
