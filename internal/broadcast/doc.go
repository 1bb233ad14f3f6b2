// Package broadcast implements the WebSocket fan-out using the actor pattern.
//
// The Broadcaster owns the connection registry in a single goroutine fed by a
// command channel (no mutexes). Every state change pushes one full snapshot
// to all open connections; per-connection write goroutines isolate slow
// clients, dropping a message on buffer overflow rather than blocking or
// evicting, since the next snapshot supersedes it.
package broadcast
