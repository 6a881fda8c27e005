// Package observability builds the process logger and derives per-request
// loggers carrying the chi request id.
package observability
