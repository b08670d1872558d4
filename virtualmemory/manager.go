package virtualmemory

import (
	"github.com/Noamshabat1/Operating-Systems/utils"
)

// Manager implements demand paging over a PhysicalMemory: virtual
// addresses are translated through the TablesDepth-level table tree,
// faults allocate frames, and a full memory evicts the mapped page with
// the greatest cyclic distance from the page being brought in.
type Manager struct {
	pm PhysicalMemory
}

func NewManager(pm PhysicalMemory) *Manager {
	return &Manager{pm: pm}
}

// Initialize zeroes the root table frame.
func (m *Manager) Initialize() {
	m.clearFrame(0)
}

// Read translates va and reads the addressed word. Returns 1 on success,
// 0 on an out-of-range address or nil output pointer.
func (m *Manager) Read(va uint64, value *Word) int {
	if value == nil {
		return 0
	}
	frame := m.translate(va, TablesDepth)
	if frame == invalidFrame {
		return 0
	}
	*value = m.readEntry(frame, innerOffset(va))
	return 1
}

// Write translates va and writes the addressed word. Returns 1 on
// success, 0 on an out-of-range address.
func (m *Manager) Write(va uint64, value Word) int {
	frame := m.translate(va, TablesDepth)
	if frame == invalidFrame {
		return 0
	}
	m.writeEntry(frame, innerOffset(va), value)
	return 1
}

// translate walks depth levels from the root, resolving faults along the
// way, and returns the final frame. The frames already committed on this
// walk are pinned in path: no fault resolution may hand one of them out
// again.
func (m *Manager) translate(va uint64, depth int) Word {
	if va>>VirtualAddressWidth != 0 {
		return invalidFrame
	}

	var path [TablesDepth]Word
	page := va >> OffsetWidth
	addr := Word(0)

	for level := 0; level < depth; level++ {
		index := innerOffset(pageIndex(va, depth, level))
		parent := addr
		addr = m.readEntry(parent, index)
		if addr == 0 {
			addr = m.handleFault(parent, index, page, level, &path)
			if addr == invalidFrame {
				return invalidFrame
			}
		}
		path[level] = addr
	}
	return addr
}

// handleFault acquires a frame for a missing entry at the given level,
// links it under the parent, and prepares it: interior frames are zeroed,
// the leaf frame gets the page's contents restored into it.
func (m *Manager) handleFault(parent Word, index uint64, page uint64, level int, path *[TablesDepth]Word) Word {
	frame := m.findFrameToUse(page, path)
	if frame == invalidFrame {
		return invalidFrame
	}

	m.writeEntry(parent, index, frame)

	if level < TablesDepth-1 {
		m.clearFrame(frame)
	} else {
		m.pm.Restore(uint64(frame), page)
	}
	return frame
}

// findFrameToUse tries, in order: an empty reachable table frame, a frame
// past everything referenced so far, and finally eviction by maximal
// cyclic distance.
func (m *Manager) findFrameToUse(page uint64, path *[TablesDepth]Word) Word {
	if frame := m.findEmptyFrame(path); frame != invalidFrame {
		return frame
	}
	if frame := m.findUnusedFrame(); frame != invalidFrame {
		return frame
	}
	return m.evictFarthestPage(page, path)
}

// findEmptyFrame scans for a frame whose entries are all zero, that is
// not a data frame and not pinned on the current path. The frame is
// unlinked from its parent table before being handed out.
func (m *Manager) findEmptyFrame(path *[TablesDepth]Word) Word {
	for frame := Word(1); frame < NumFrames; frame++ {
		if onPath(frame, path) || !m.frameIsEmpty(frame) || m.isDataFrame(frame) {
			continue
		}
		m.unlinkFrame(0, 0, frame)
		return frame
	}
	return invalidFrame
}

// findUnusedFrame returns the frame one past the maximum frame number
// referenced anywhere in the table tree, if it exists.
func (m *Manager) findUnusedFrame() Word {
	next := m.maxFrameReferenced(0, 0) + 1
	if next < NumFrames {
		return next
	}
	return invalidFrame
}

func (m *Manager) maxFrameReferenced(frame Word, depth int) Word {
	if depth >= TablesDepth {
		return 0
	}
	maxSeen := Word(0)
	for offset := uint64(0); offset < PageSize; offset++ {
		child := m.readEntry(frame, offset)
		if child == 0 {
			continue
		}
		if child > maxSeen {
			maxSeen = child
		}
		if sub := m.maxFrameReferenced(child, depth+1); sub > maxSeen {
			maxSeen = sub
		}
	}
	return maxSeen
}

// evictFarthestPage picks the mapped page with maximal cyclic distance
// from the page being swapped in, writes its frame back to storage, and
// zeroes the table entry that pointed at it.
func (m *Manager) evictFarthestPage(target uint64, path *[TablesDepth]Word) Word {
	victim, dist := m.farthestMappedPage(0, 0, 0, target, path)
	if dist < 0 {
		return invalidFrame
	}

	frame := m.resolveFrame(victim)
	m.pm.Evict(uint64(frame), victim)

	utils.InfoLog.Debug("page evicted", "page", victim, "frame", frame,
		"swapped_in", target, "distance", dist)

	// Detach the frame before reuse: walk the victim's page number down
	// to the parent table and clear the leaf pointer. The page number
	// doubles as a (TablesDepth-1)-deep virtual address whose offset
	// field is the last-level index.
	parent := m.translate(victim, TablesDepth-1)
	m.writeEntry(parent, innerOffset(victim), 0)

	return frame
}

// farthestMappedPage enumerates every mapped page, reconstructing page
// numbers level by level, and returns the candidate with maximal cyclic
// distance from target. Pages whose data frame lies on the current path
// are not candidates; a negative distance means none exists.
func (m *Manager) farthestMappedPage(frame Word, depth int, currentPage uint64, target uint64, path *[TablesDepth]Word) (uint64, int64) {
	if depth == TablesDepth {
		if onPath(frame, path) {
			return 0, -1
		}
		return currentPage, cyclicDistance(target, currentPage)
	}

	bestPage, bestDist := uint64(0), int64(-1)
	for offset := uint64(0); offset < PageSize; offset++ {
		child := m.readEntry(frame, offset)
		if child == 0 {
			continue
		}
		p, d := m.farthestMappedPage(child, depth+1, currentPage<<OffsetWidth|offset, target, path)
		if d > bestDist {
			bestPage, bestDist = p, d
		}
	}
	return bestPage, bestDist
}

// resolveFrame walks an existing mapping to the data frame of a page.
func (m *Manager) resolveFrame(page uint64) Word {
	addr := Word(0)
	for level := 0; level < TablesDepth; level++ {
		addr = m.readEntry(addr, innerOffset(pageIndex(page, TablesDepth-1, level)))
	}
	return addr
}

// unlinkFrame zeroes the table entry pointing at target, wherever it is.
func (m *Manager) unlinkFrame(frame Word, depth int, target Word) {
	if depth >= TablesDepth {
		return
	}
	for offset := uint64(0); offset < PageSize; offset++ {
		child := m.readEntry(frame, offset)
		if child == 0 {
			continue
		}
		if child == target {
			m.writeEntry(frame, offset, 0)
		} else {
			m.unlinkFrame(child, depth+1, target)
		}
	}
}

// isDataFrame reports whether the tree references the frame at leaf
// depth, which makes it a page's data frame rather than a table.
func (m *Manager) isDataFrame(frame Word) bool {
	return m.leafReference(0, 0, frame)
}

func (m *Manager) leafReference(frame Word, depth int, target Word) bool {
	if depth >= TablesDepth {
		return false
	}
	for offset := uint64(0); offset < PageSize; offset++ {
		child := m.readEntry(frame, offset)
		if child == 0 {
			continue
		}
		if child == target {
			return depth == TablesDepth-1
		}
		if m.leafReference(child, depth+1, target) {
			return true
		}
	}
	return false
}

func (m *Manager) frameIsEmpty(frame Word) bool {
	for offset := uint64(0); offset < PageSize; offset++ {
		if m.readEntry(frame, offset) != 0 {
			return false
		}
	}
	return true
}

func (m *Manager) clearFrame(frame Word) {
	for offset := uint64(0); offset < PageSize; offset++ {
		m.writeEntry(frame, offset, 0)
	}
}

func onPath(frame Word, path *[TablesDepth]Word) bool {
	for _, f := range path {
		if f == frame {
			return true
		}
	}
	return false
}

func (m *Manager) readEntry(frame Word, offset uint64) Word {
	return m.pm.Read(uint64(frame)*PageSize + offset)
}

func (m *Manager) writeEntry(frame Word, offset uint64, value Word) {
	m.pm.Write(uint64(frame)*PageSize+offset, value)
}
