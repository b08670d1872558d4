package utils

// Semaphore is a counting semaphore backed by a buffered channel: a send
// holds a permit, a receive returns it, so the channel capacity bounds
// the number of concurrent holders.
type Semaphore struct {
	c chan struct{}
}

// NewSemaphore creates a semaphore admitting up to capacity holders.
func NewSemaphore(capacity int) *Semaphore {
	if capacity <= 0 {
		capacity = 1
	}
	return &Semaphore{
		c: make(chan struct{}, capacity),
	}
}

// Wait (P) takes a permit, blocking while none is available.
func (s *Semaphore) Wait() {
	s.c <- struct{}{}
}

// Signal (V) returns a permit. Returning more permits than were taken is
// ignored rather than growing the count past capacity.
func (s *Semaphore) Signal() {
	select {
	case <-s.c:
	default:
	}
}

// TryWait takes a permit without blocking.
func (s *Semaphore) TryWait() bool {
	select {
	case s.c <- struct{}{}:
		return true
	default:
		return false
	}
}

// Do runs fn while holding a permit: the scoped form of the Wait/Signal
// pair, balanced across panics and early returns.
func (s *Semaphore) Do(fn func()) {
	s.Wait()
	defer s.Signal()
	fn()
}

// Holders reports how many permits are currently held.
func (s *Semaphore) Holders() int {
	return len(s.c)
}
