// Package store holds the page model behind the browser view and the
// on-disk journal used to resume a watch.
//
// The main components are:
//
//   - [Store]: a [page.Page] that can be snapshotted and subscribed to
//   - [MemoryStore]: in-memory implementation of Store with pub/sub
//   - [Journal]: bbolt-backed page that survives restarts
//   - [Event], [Snapshot]: what subscribers and readers receive
//
// The store is designed for concurrent access with proper synchronization.
// Subscribers receive events via channels with non-blocking sends (slow
// subscribers will miss events rather than block the watcher).
//
// Users of the resultwatch library should not need to interact with this
// package directly; the CLI wires it up.
package store
