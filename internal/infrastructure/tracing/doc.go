// Package tracing provides lightweight request tracing across the host
// application, the bridge, and the agent backend. Trace context travels
// in X-Trace-ID / X-Span-ID headers; finished spans are buffered and
// emitted through structured logging.
package tracing
