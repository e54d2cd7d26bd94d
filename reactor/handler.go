package reactor

// RequestHandler is the external collaborator invoked at the single
// opaque entry point the core exposes (spec.md §6, "process_request").
// The core never inspects a handler's internals; it only consults
// Slot.IsKeepAlive after Handle returns.
//
// Handle must not block, must drain the slot's fd until it would block
// (the reactor will not re-wake on data already buffered — it watches
// edge-triggered), must not free ResponseBuffer, and must not mutate
// FD, Alive, or TimeToDie. It may fail silently: a malformed request is
// simply a connection whose next disposition is "close".
type RequestHandler interface {
	// Handle services one or more pipelined requests already readable
	// on slot.FD, writing response bytes to slot.ResponseBuffer and
	// flushing them to the fd, then sets slot.IsKeepAlive.
	Handle(slot *Slot)

	// Reset zeros the handler's own opaque fields on slot.App. It is
	// called by the worker reactor whenever a slot transitions from
	// not-Alive to in-use (a fresh or recycled fd), before Handle.
	Reset(slot *Slot)
}
