// Package fetch provides the outbound HTTP client shared by every upstream source.
//
// All requests go through one client so pacing is global: a rate limiter
// spaces requests by a fixed interval, and failed requests are retried a
// bounded number of times with a fixed (not exponential) backoff.
package fetch
