package virtualmemory

import (
	"github.com/Noamshabat1/Operating-Systems/utils"
)

// PhysicalMemory is the simulated physical layer the manager runs on.
// Restore pulls a page's contents into a frame; Evict writes a frame's
// contents back to the page's backing storage.
type PhysicalMemory interface {
	Read(addr uint64) Word
	Write(addr uint64, value Word)
	Restore(frame uint64, page uint64)
	Evict(frame uint64, page uint64)
}

// MemoryMetrics counts operations against the simulated memory.
type MemoryMetrics struct {
	Reads    int64
	Writes   int64
	Restores int64
	Evicts   int64
}

// SimulatedMemory is an in-process PhysicalMemory: a fixed RAM of
// NumFrames frames plus a paged backing store holding evicted pages.
// Optional delays model device latency.
type SimulatedMemory struct {
	ram       [NumFrames * PageSize]Word
	pageStore map[uint64][PageSize]Word

	accessDelayMs int
	swapDelayMs   int

	metrics MemoryMetrics
}

func NewSimulatedMemory() *SimulatedMemory {
	return &SimulatedMemory{
		pageStore: make(map[uint64][PageSize]Word),
	}
}

// SetDelays configures the simulated access and swap latencies.
func (m *SimulatedMemory) SetDelays(accessMs, swapMs int) {
	m.accessDelayMs = accessMs
	m.swapDelayMs = swapMs
}

// Metrics returns the operation counters accumulated so far.
func (m *SimulatedMemory) Metrics() MemoryMetrics {
	return m.metrics
}

func (m *SimulatedMemory) Read(addr uint64) Word {
	utils.ApplyDelay("memory read", m.accessDelayMs)
	m.metrics.Reads++
	return m.ram[addr]
}

func (m *SimulatedMemory) Write(addr uint64, value Word) {
	utils.ApplyDelay("memory write", m.accessDelayMs)
	m.metrics.Writes++
	m.ram[addr] = value
}

// Restore fills a frame with the stored contents of a page; a page never
// evicted before reads as zeros.
func (m *SimulatedMemory) Restore(frame uint64, page uint64) {
	utils.ApplyDelay("swap in", m.swapDelayMs)
	m.metrics.Restores++

	contents := m.pageStore[page]
	base := frame * PageSize
	for i := 0; i < PageSize; i++ {
		m.ram[base+uint64(i)] = contents[i]
	}
}

// Evict writes a frame's contents back to the page's backing storage.
func (m *SimulatedMemory) Evict(frame uint64, page uint64) {
	utils.ApplyDelay("swap out", m.swapDelayMs)
	m.metrics.Evicts++

	var contents [PageSize]Word
	base := frame * PageSize
	for i := 0; i < PageSize; i++ {
		contents[i] = m.ram[base+uint64(i)]
	}
	m.pageStore[page] = contents
}
