// Package poller provides the HTTP plumbing for submitting forms and polling
// a cumulative results endpoint.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeouts and size limits
//   - [Loop]: self-rescheduling poll loop with an explicit cursor
//   - [Batch]: the outcome of a single poll
//   - [ExtractString], [ExtractStrings]: dot-path JSON field access
//
// Users of the resultwatch library should not need to interact with this
// package directly. Configuration is done through the resultwatch package.
package poller
