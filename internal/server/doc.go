// Package server provides the HTTP server for the browser results page.
//
// This package handles all HTTP concerns of the serve command:
//
//   - Page serving: Serves the embedded page at "/" with the current state
//     rendered server-side and escaped
//   - REST API: JSON snapshot at "/api/page", form forwarding at "/api/submit"
//   - Server-Sent Events: page events at "/api/sse"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
