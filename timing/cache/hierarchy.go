package cache

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/emu"
)

// Hierarchy is a split L1 instruction/data cache pair fed by the CPU's
// memory accesses. It implements emu.AccessObserver.
type Hierarchy struct {
	l1i *Cache
	l1d *Cache

	stallCycles uint64
}

var _ emu.AccessObserver = (*Hierarchy)(nil)

// NewHierarchy builds the caches described by config.
func NewHierarchy(config *HierarchyConfig) (*Hierarchy, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache config: %w", err)
	}

	return &Hierarchy{
		l1i: New(config.L1I),
		l1d: New(config.L1D),
	}, nil
}

// ObserveAccess routes fetches to the L1I and loads and stores to the L1D.
// Every cycle a miss costs beyond the cache's hit latency counts as a stall.
func (h *Hierarchy) ObserveAccess(kind emu.AccessKind, addr uint32, size int) {
	var (
		c      *Cache
		result AccessResult
	)

	switch kind {
	case emu.AccessFetch:
		c = h.l1i
		result = c.Read(addr, size)
	case emu.AccessLoad:
		c = h.l1d
		result = c.Read(addr, size)
	case emu.AccessStore:
		c = h.l1d
		result = c.Write(addr, size)
	default:
		return
	}

	if !result.Hit {
		h.stallCycles += result.Latency - c.config.HitLatency
	}
}

// L1I returns the instruction cache.
func (h *Hierarchy) L1I() *Cache {
	return h.l1i
}

// L1D returns the data cache.
func (h *Hierarchy) L1D() *Cache {
	return h.l1d
}

// StallCycles returns the accumulated miss penalty in cycles.
func (h *Hierarchy) StallCycles() uint64 {
	return h.stallCycles
}

// Reset invalidates both caches and clears all statistics.
func (h *Hierarchy) Reset() {
	h.l1i.Reset()
	h.l1d.Reset()
	h.stallCycles = 0
}

// Report is a snapshot of the hierarchy's statistics.
type Report struct {
	L1I         Statistics `json:"l1i"`
	L1D         Statistics `json:"l1d"`
	StallCycles uint64     `json:"stall_cycles"`
}

// Report returns the current statistics.
func (h *Hierarchy) Report() Report {
	return Report{
		L1I:         h.l1i.Stats(),
		L1D:         h.l1d.Stats(),
		StallCycles: h.stallCycles,
	}
}

// CPI estimates cycles per instruction assuming one cycle per instruction
// plus the recorded stall cycles.
func (r Report) CPI(instructions uint64) float64 {
	if instructions == 0 {
		return 0
	}
	return float64(instructions+r.StallCycles) / float64(instructions)
}

// Log writes the report as structured fields.
func (r Report) Log(logger *logrus.Logger) {
	for _, level := range []struct {
		name  string
		stats Statistics
	}{
		{"l1i", r.L1I},
		{"l1d", r.L1D},
	} {
		logger.WithFields(logrus.Fields{
			"cache":      level.name,
			"reads":      level.stats.Reads,
			"writes":     level.stats.Writes,
			"hits":       level.stats.Hits,
			"misses":     level.stats.Misses,
			"evictions":  level.stats.Evictions,
			"writebacks": level.stats.Writebacks,
			"hit_rate":   fmt.Sprintf("%.2f%%", level.stats.HitRate()*100),
		}).Info("Cache statistics")
	}

	logger.WithField("stall_cycles", r.StallCycles).Info("Memory stalls")
}
