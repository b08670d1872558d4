package virtualmemory

import "testing"

func newTestManager() (*Manager, *SimulatedMemory) {
	pm := NewSimulatedMemory()
	m := NewManager(pm)
	m.Initialize()
	return m, pm
}

func TestReadRejectsOutOfRangeAddress(t *testing.T) {
	m, pm := newTestManager()
	before := pm.Metrics()

	var value Word
	if got := m.Read(1<<VirtualAddressWidth, &value); got != 0 {
		t.Fatalf("Read of an out-of-range address = %d, want 0", got)
	}
	if got := m.Write(1<<VirtualAddressWidth, 7); got != 0 {
		t.Fatalf("Write to an out-of-range address = %d, want 0", got)
	}

	// Rejection happens before any physical access.
	if after := pm.Metrics(); after != before {
		t.Errorf("physical memory touched on invalid address: %+v -> %+v", before, after)
	}
}

func TestReadRejectsNilValue(t *testing.T) {
	m, _ := newTestManager()
	if got := m.Read(0, nil); got != 0 {
		t.Fatalf("Read into nil = %d, want 0", got)
	}
}

func TestFirstReadCascadesAndRestores(t *testing.T) {
	m, pm := newTestManager()

	var value Word
	if got := m.Read(0, &value); got != 1 {
		t.Fatalf("Read(0) = %d, want 1", got)
	}
	if value != 0 {
		t.Fatalf("fresh page read %d, want the restored zero contents", value)
	}
	if got := pm.Metrics().Restores; got != 1 {
		t.Fatalf("restores = %d, want exactly 1 for the leaf", got)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	m, _ := newTestManager()

	addrs := []uint64{0, 1, PageSize - 1, PageSize, 3 * PageSize, 1<<VirtualAddressWidth - 1}
	for i, va := range addrs {
		if got := m.Write(va, Word(100+i)); got != 1 {
			t.Fatalf("Write(%#x) = %d, want 1", va, got)
		}
	}
	for i, va := range addrs {
		var value Word
		if got := m.Read(va, &value); got != 1 {
			t.Fatalf("Read(%#x) = %d, want 1", va, got)
		}
		if value != Word(100+i) {
			t.Errorf("Read(%#x) = %d, want %d", va, value, 100+i)
		}
	}
}

func TestEvictionSweepPreservesValues(t *testing.T) {
	m, pm := newTestManager()

	// Far more pages than frames, spread across the whole address space,
	// so the sweep forces evictions.
	const n = 100
	const stride = (1 << VirtualAddressWidth) / n

	for i := 0; i < n; i++ {
		va := uint64(i * stride)
		if got := m.Write(va, Word(i*7+1)); got != 1 {
			t.Fatalf("Write #%d = %d, want 1", i, got)
		}
	}

	if got := pm.Metrics().Evicts; got == 0 {
		t.Fatal("sweep of 100 pages over 64 frames caused no evictions")
	}

	for i := 0; i < n; i++ {
		va := uint64(i * stride)
		var value Word
		if got := m.Read(va, &value); got != 1 {
			t.Fatalf("Read #%d = %d, want 1", i, got)
		}
		if value != Word(i*7+1) {
			t.Errorf("Read(%#x) = %d, want %d", va, value, i*7+1)
		}
	}
}

func TestEvictedPageComesBackIntact(t *testing.T) {
	m, pm := newTestManager()

	first := uint64(0)
	m.Write(first, 4242)

	// Touch enough distinct pages to cycle page 0 out of memory.
	for page := uint64(1); pm.Metrics().Evicts == 0 && page < NumPages; page += NumPages / (2 * NumFrames) {
		m.Write(page<<OffsetWidth, Word(page))
	}
	if pm.Metrics().Evicts == 0 {
		t.Fatal("no eviction occurred while overcommitting memory")
	}

	var value Word
	if got := m.Read(first, &value); got != 1 {
		t.Fatalf("Read back = %d, want 1", got)
	}
	if value != 4242 {
		t.Fatalf("Read back = %d, want 4242", value)
	}
}

func TestManyPagesRoundTrip(t *testing.T) {
	m, _ := newTestManager()

	// Two full generations of the frame pool, page-granular.
	const n = 2 * NumFrames
	for i := 0; i < n; i++ {
		va := uint64(i) << OffsetWidth
		if got := m.Write(va, Word(i+1)); got != 1 {
			t.Fatalf("Write page %d = %d, want 1", i, got)
		}
	}
	for i := 0; i < n; i++ {
		va := uint64(i) << OffsetWidth
		var value Word
		if got := m.Read(va, &value); got != 1 {
			t.Fatalf("Read page %d = %d, want 1", i, got)
		}
		if value != Word(i+1) {
			t.Errorf("page %d holds %d, want %d", i, value, i+1)
		}
	}
}

func TestPackageLevelSurface(t *testing.T) {
	Initialize()

	if got := Write(5*PageSize+3, 99); got != 1 {
		t.Fatalf("Write = %d, want 1", got)
	}
	var value Word
	if got := Read(5*PageSize+3, &value); got != 1 {
		t.Fatalf("Read = %d, want 1", got)
	}
	if value != 99 {
		t.Fatalf("Read = %d, want 99", value)
	}
	if got := Read(1<<VirtualAddressWidth, &value); got != 0 {
		t.Fatalf("Read of an out-of-range address = %d, want 0", got)
	}
}
