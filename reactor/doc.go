// Package reactor implements the I/O and connection-dispatch core of a
// sharded HTTP/1.x server: a single accepting loop that hands each new
// TCP connection to one of a fixed pool of per-worker epoll reactors,
// each of which multiplexes thousands of connections with an
// edge-triggered readiness notifier and ages idle keep-alive
// connections out of a bounded ring.
//
// # Architecture
//
// [Server] owns the listening socket, a shared [SlotTable] indexed
// directly by file descriptor, and an array of [Worker] instances. The
// [Acceptor] runs on the caller's goroutine (see [Server.Run]),
// non-blockingly accepting connections and routing each one to a
// [Worker] chosen by the [Scheduler]. Each [Worker] owns an epoll
// instance and a death ring ([deathRing]) used to age out idle
// keep-alive connections.
//
// # Division of responsibility
//
// This package never parses HTTP, renders responses, or routes URLs.
// Those concerns belong to whatever implements [RequestHandler] and are
// invoked through its single opaque entry point, [RequestHandler.Handle].
// The core's contract with that handler is: hand it a readable,
// edge-triggered, non-blocking slot; trust nothing about its internals
// beyond the is_keep_alive disposition it leaves behind.
//
// # Platform support
//
// The reactor requires a Linux-class kernel offering epoll and
// eventfd. There is no Darwin/Windows fallback — see spec.md's
// Non-goals.
package reactor
