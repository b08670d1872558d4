package uthreads

const (
	// MaxThreadNum bounds the number of live threads, the main thread included.
	MaxThreadNum = 100

	// StackSize is the per-thread stack contract. The goroutine runtime
	// owns the actual stack allocation, so the constant documents the
	// expected footprint rather than sizing a buffer.
	StackSize = 4096
)

// thread is the record the engine keeps per live thread.
type thread struct {
	tid            int
	quantumCount   int
	sleepRemaining int
	blocked        bool
	killed         bool
	entry          func()
	ctx            *execContext
}

func isValidTID(tid int) bool {
	return tid >= 0 && tid < MaxThreadNum
}
