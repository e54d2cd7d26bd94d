package reactor

import "bytes"

// unusedFD is the sentinel stored in Slot.FD when the slot does not
// currently represent a live connection.
const unusedFD = -1

// Slot is the per-connection state record addressed by raw file
// descriptor value (spec.md §3). Exactly one worker ever touches a
// given live slot; the core enforces this by construction (a worker
// only reacts to events on fds it registered with its own notifier).
type Slot struct {
	// FD is the descriptor this slot currently represents, or unusedFD.
	FD int

	// Alive reports whether this fd is currently tracked as a
	// keep-alive connection that may return — i.e. registered with the
	// owning worker's notifier AND present exactly once in that
	// worker's death ring.
	Alive bool

	// IsKeepAlive is set by RequestHandler.Handle to indicate whether
	// the most recent request/response pair should keep the connection
	// open. The core consults this immediately after every Handle call
	// and never inspects it at any other time.
	IsKeepAlive bool

	// TimeToDie is the death-ring deadline, in tick units (see
	// tickInterval), after which this fd is closed if still idle.
	TimeToDie int64

	// ResponseBuffer is an owned, growable buffer, reusable across
	// requests on the same slot. It is allocated once at Server init
	// and never freed until shutdown; Reset truncates it without
	// releasing its backing array.
	ResponseBuffer *bytes.Buffer

	// App is opaque scratch space owned entirely by the RequestHandler
	// (parsed headers, method, path, partial-read state, ...). The core
	// never reads or writes it directly; it only guarantees that
	// RequestHandler.Reset is called before Handle whenever the slot
	// was not already Alive, per the reset discipline in spec.md §4.3.
	App any
}

func newSlot() *Slot {
	return &Slot{
		FD:             unusedFD,
		ResponseBuffer: new(bytes.Buffer),
	}
}

// reset truncates the response buffer and restores fd, leaving App
// untouched — callers must invoke RequestHandler.Reset separately, since
// only the handler knows how to zero its own opaque fields.
func (s *Slot) reset(fd int) {
	s.FD = fd
	s.Alive = false
	s.IsKeepAlive = false
	s.TimeToDie = 0
	s.ResponseBuffer.Reset()
}

// SlotTable is a flat, fd-indexed array of Slot, sized to the process's
// final soft file-descriptor limit (spec.md §3, "Invariants"). Lookup is
// O(1) direct indexing — no hashing, no per-connection allocation.
type SlotTable struct {
	slots []*Slot
}

// newSlotTable allocates size slots, each with its own ResponseBuffer,
// up front. Slots are never freed individually; the whole table is
// released at Server shutdown.
func newSlotTable(size int) *SlotTable {
	t := &SlotTable{slots: make([]*Slot, size)}
	for i := range t.slots {
		t.slots[i] = newSlot()
	}
	return t
}

// Get returns the slot for fd. It panics if fd is outside the table's
// range — the caller (the worker reactor) is responsible for sizing the
// table to the process fd limit so this can never happen in practice;
// see rlimit.go.
func (t *SlotTable) Get(fd int) *Slot {
	return t.slots[fd]
}

// Len returns the table's capacity.
func (t *SlotTable) Len() int {
	return len(t.slots)
}
