package uthreads

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/Noamshabat1/Operating-Systems/utils"
)

// switchAction tells switchThread what to do with the outgoing thread.
type switchAction int

const (
	actCycle switchAction = iota
	actTerminate
	actBlocked
)

// engine is the process-wide thread manager. Exactly one thread goroutine
// executes user code at any time: everyone else is parked on its context
// gate. The engine mutex is the moral equivalent of the blocked signal
// mask: every public operation holds it while engine state is mutated.
type engine struct {
	mu            sync.Mutex
	quantum       time.Duration
	totalQuantums int
	running       *thread
	ready         []*thread
	blocked       map[int]*thread
	tidInUse      [MaxThreadNum]bool
	timer         *time.Timer
}

func newEngine(quantumUsecs int) *engine {
	e := &engine{
		quantum: time.Duration(quantumUsecs) * time.Microsecond,
		blocked: make(map[int]*thread),
	}

	// The caller's goroutine becomes the main thread. Its first quantum is
	// charged immediately: the initial scheduling counts.
	main := &thread{tid: 0, quantumCount: 1, ctx: newExecContext()}
	e.running = main
	e.tidInUse[0] = true
	e.totalQuantums = 1

	e.timer = time.NewTimer(e.quantum)
	return e
}

// deliverTick checks the virtual timer with the engine lock held. If the
// quantum expired since the last switch, the preemption is delivered now,
// before the current library operation runs: public library calls are the
// points where a masked timer signal lands.
func (e *engine) deliverTick() {
	select {
	case <-e.timer.C:
		e.switchThread(actCycle)
	default:
	}
}

// rearmTimer restarts the full quantum interval. The engine lock makes
// this the only consumer of the timer channel, so Stop-drain-Reset is safe.
func (e *engine) rearmTimer() {
	if !e.timer.Stop() {
		select {
		case <-e.timer.C:
		default:
		}
	}
	e.timer.Reset(e.quantum)
}

// stopTimer retires the timer when the engine is replaced.
func (e *engine) stopTimer() {
	if !e.timer.Stop() {
		select {
		case <-e.timer.C:
		default:
		}
	}
}

// switchThread is the single suspension point of the engine. It runs with
// the engine lock held, on the goroutine of the currently running thread,
// and always under one pending deferred unlock, so the Goexit paths leave
// the lock to the deferral.
//
// Order follows the scheduling algorithm: sleepers tick first, then the
// outgoing thread is disposed of, then the front of the ready queue is
// charged a quantum and dispatched.
func (e *engine) switchThread(act switchAction) {
	e.updateSleepCounters()

	out := e.running
	switch act {
	case actCycle:
		if len(e.ready) == 0 {
			// Nobody else wants the CPU: the same thread continues and
			// still accrues the quantum.
			out.quantumCount++
			e.totalQuantums++
			e.rearmTimer()
			return
		}
		e.ready = append(e.ready, out)
	case actBlocked:
		e.blocked[out.tid] = out
	case actTerminate:
		// Record is already unlinked; the goroutine exits below.
	}

	if len(e.ready) == 0 {
		fmt.Fprintln(os.Stderr, "thread library error: no more threads are available to run.")
		os.Exit(1)
	}

	next := e.ready[0]
	e.ready = e.ready[1:]
	e.running = next
	next.quantumCount++
	e.totalQuantums++
	e.rearmTimer()

	utils.InfoLog.Debug("context switch", "from", out.tid, "to", next.tid,
		"total_quantums", e.totalQuantums)

	next.ctx.dispatch()

	if act == actTerminate {
		runtime.Goexit()
	}

	out.ctx.park(&e.mu)
	if out.killed {
		runtime.Goexit()
	}
}

// updateSleepCounters ticks every sleeping thread and moves the ones whose
// sleep expired, and that are not otherwise blocked, back to ready.
func (e *engine) updateSleepCounters() {
	for tid, t := range e.blocked {
		if t.sleepRemaining > 0 {
			t.sleepRemaining--
		}
		if t.sleepRemaining == 0 && !t.blocked {
			delete(e.blocked, tid)
			e.ready = append(e.ready, t)
		}
	}
}

// threadMain is the goroutine body backing a spawned thread. It waits for
// the first dispatch, runs the entry function, and self-terminates if the
// entry returns without having called Terminate.
func (e *engine) threadMain(t *thread) {
	<-t.ctx.gate
	if t.killed {
		return
	}

	t.entry()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.deliverTick()
	e.terminateThread(t.tid) // switches away and never returns
}

func (e *engine) createThread(entry func()) int {
	if entry == nil {
		return libError("null entry point")
	}
	tid := e.nextAvailableTID()
	if tid == -1 {
		return libError("the max number of threads reached")
	}
	e.tidInUse[tid] = true

	t := &thread{tid: tid, entry: entry, ctx: newExecContext()}
	go e.threadMain(t)
	e.ready = append(e.ready, t)

	utils.InfoLog.Debug("thread spawned", "tid", tid)
	return tid
}

func (e *engine) terminateThread(tid int) int {
	if !isValidTID(tid) {
		return libError("invalid thread id")
	}
	if !e.tidInUse[tid] {
		return libError("the thread does not exist")
	}
	if tid == 0 {
		// Tearing down the main thread ends the process; no scheduler
		// activity may follow.
		e.stopTimer()
		os.Exit(0)
	}

	e.tidInUse[tid] = false

	if t := e.takeFromReady(tid); t != nil {
		t.killed = true
		t.ctx.dispatch()
		return 0
	}
	if t, ok := e.blocked[tid]; ok {
		delete(e.blocked, tid)
		t.killed = true
		t.ctx.dispatch()
		return 0
	}
	if e.running.tid == tid {
		e.switchThread(actTerminate) // does not return
	}
	return 0
}

func (e *engine) blockThread(tid int) int {
	if !isValidTID(tid) {
		return libError("invalid thread id")
	}
	if !e.tidInUse[tid] {
		return libError("the thread does not exist")
	}
	if tid == 0 {
		return libError("cannot block the main thread")
	}

	if t, ok := e.blocked[tid]; ok {
		// Already blocked is a no-op; a sleeping thread just gains the
		// blocked flag, without a second insertion.
		t.blocked = true
		return 0
	}
	if t := e.takeFromReady(tid); t != nil {
		t.blocked = true
		e.blocked[tid] = t
		return 0
	}
	if e.running.tid == tid {
		e.running.blocked = true
		e.switchThread(actBlocked)
		return 0
	}
	return -1
}

func (e *engine) resumeThread(tid int) int {
	if !isValidTID(tid) {
		return libError("invalid thread id")
	}
	if !e.tidInUse[tid] {
		return libError("the thread does not exist")
	}

	if t, ok := e.blocked[tid]; ok {
		t.blocked = false
		if t.sleepRemaining == 0 {
			delete(e.blocked, tid)
			e.ready = append(e.ready, t)
		}
	}
	// Resuming a thread that is not blocked is a no-op.
	return 0
}

func (e *engine) sleepThread(numQuantums int) int {
	if numQuantums < 0 {
		return libError("invalid sleep quantums")
	}
	if e.running.tid == 0 {
		return libError("cannot put the main thread to sleep")
	}

	e.running.sleepRemaining = numQuantums
	e.switchThread(actBlocked)
	return 0
}

func (e *engine) threadQuantums(tid int) int {
	if !isValidTID(tid) {
		return libError("invalid thread id")
	}
	if !e.tidInUse[tid] {
		return libError("the thread does not exist")
	}
	if t := e.findThread(tid); t != nil {
		return t.quantumCount
	}
	return -1
}

func (e *engine) nextAvailableTID() int {
	for tid := 1; tid < MaxThreadNum; tid++ {
		if !e.tidInUse[tid] {
			return tid
		}
	}
	return -1
}

func (e *engine) findThread(tid int) *thread {
	if e.running != nil && e.running.tid == tid {
		return e.running
	}
	for _, t := range e.ready {
		if t.tid == tid {
			return t
		}
	}
	if t, ok := e.blocked[tid]; ok {
		return t
	}
	return nil
}

// takeFromReady removes and returns the thread with the given tid, or nil.
func (e *engine) takeFromReady(tid int) *thread {
	for i, t := range e.ready {
		if t.tid == tid {
			e.ready = append(e.ready[:i], e.ready[i+1:]...)
			return t
		}
	}
	return nil
}
