package emu

import "sync/atomic"

const (
	haltIdle uint32 = iota
	haltRunning
	haltAborted
)

// HaltFlag is the run/stop cell of a CPU. It is kept apart from the
// register file so that code holding only a read-only view of the machine,
// or another goroutine, can request a stop.
//
// An Abort issued before Start is kept: Start only moves an idle flag to
// running.
type HaltFlag struct {
	state atomic.Uint32
}

// Start marks the CPU as running unless a stop was already requested.
func (h *HaltFlag) Start() {
	h.state.CompareAndSwap(haltIdle, haltRunning)
}

// Abort requests a stop before the next cycle.
func (h *HaltFlag) Abort() {
	h.state.Store(haltAborted)
}

// Running reports whether the CPU should keep cycling.
func (h *HaltFlag) Running() bool {
	return h.state.Load() == haltRunning
}
