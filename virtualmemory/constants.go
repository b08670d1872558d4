package virtualmemory

// Word is the unit stored in physical memory: data values and child frame
// numbers alike.
type Word int32

// Address-space geometry. The page table is a TablesDepth-level tree
// rooted at frame 0; interior entries hold child frame numbers, with 0
// meaning unmapped.
const (
	OffsetWidth          = 4
	PageSize             = 1 << OffsetWidth
	PhysicalAddressWidth = 10
	VirtualAddressWidth  = 20
	NumFrames            = 1 << (PhysicalAddressWidth - OffsetWidth)
	NumPages             = 1 << (VirtualAddressWidth - OffsetWidth)
	TablesDepth          = (VirtualAddressWidth - OffsetWidth) / OffsetWidth
)

// invalidFrame is the sentinel propagated out of a failed translation.
const invalidFrame = Word(-1)

func innerOffset(v uint64) uint64 {
	return v & (PageSize - 1)
}

// pageIndex shifts va so that the table index consumed at the given level
// of a depth-level walk (the offset-width bit slice counted from the top)
// sits in the low bits. Higher bits are not cleared; callers mask the
// result with innerOffset.
func pageIndex(va uint64, depth, level int) uint64 {
	return va >> (OffsetWidth * (depth - level))
}

// cyclicDistance is min(|a-b|, NumPages-|a-b|): pages wrap around.
func cyclicDistance(a, b uint64) int64 {
	d := int64(a) - int64(b)
	if d < 0 {
		d = -d
	}
	if NumPages-d < d {
		return NumPages - d
	}
	return d
}
