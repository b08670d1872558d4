// Package uthreads is a cooperative user-level thread library with
// virtual-time preemption, blocking, sleeping, and quantum accounting.
//
// The library manages a process-wide engine created by Init. Thread 0 is
// the caller of Init; further threads are created with Spawn and scheduled
// round-robin. A quantum timer is re-armed at every context switch and its
// expiry preempts the running thread at its next library call.
package uthreads

import (
	"fmt"
	"os"

	"github.com/Noamshabat1/Operating-Systems/utils"
)

// eng is the process-wide engine, installed by Init. Public entry points
// route through this pointer; thread goroutines hold their own reference
// so a re-Init does not re-home threads of a previous engine.
var eng *engine

func libError(msg string) int {
	fmt.Fprintln(os.Stderr, "thread library error: "+msg)
	return -1
}

// withEngine runs op as a critical section of the current engine: the
// engine lock doubles as the masked timer signal, and a pending quantum
// expiry is delivered first. The deferred unlock is the one the Goexit
// paths inside switchThread rely on.
func withEngine(op func(e *engine) int) int {
	if eng == nil {
		return libError("the library is not initialized")
	}
	e := eng
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deliverTick()
	return op(e)
}

// Init creates the thread engine with the given quantum, in microseconds.
// The calling goroutine becomes thread 0 with one quantum already charged.
// Returns 0 on success, -1 on a negative quantum.
func Init(quantumUsecs int) int {
	if quantumUsecs < 0 {
		return libError("quantum_usecs must not be negative")
	}
	if eng != nil {
		eng.stopTimer()
	}
	eng = newEngine(quantumUsecs)
	utils.InfoLog.Info("thread engine initialized", "quantum_usecs", quantumUsecs)
	return 0
}

// Spawn creates a new thread running entry and appends it to the ready
// queue. Returns the new tid, the smallest free positive id, or -1.
func Spawn(entry func()) int {
	return withEngine(func(e *engine) int { return e.createThread(entry) })
}

// Terminate destroys the thread with the given tid. Terminating thread 0
// tears down the engine and exits the process with status 0. A thread
// terminating itself never returns.
func Terminate(tid int) int {
	return withEngine(func(e *engine) int { return e.terminateThread(tid) })
}

// Block moves the thread with the given tid to the blocked set. Blocking
// the running thread context-switches immediately. Thread 0 cannot be
// blocked.
func Block(tid int) int {
	return withEngine(func(e *engine) int { return e.blockThread(tid) })
}

// Resume clears the blocked state of the thread with the given tid. A
// thread still inside a sleep stays blocked until the sleep expires.
func Resume(tid int) int {
	return withEngine(func(e *engine) int { return e.resumeThread(tid) })
}

// Sleep puts the running thread to sleep for numQuantums further quantum
// ticks. Thread 0 may not sleep.
func Sleep(numQuantums int) int {
	return withEngine(func(e *engine) int { return e.sleepThread(numQuantums) })
}

// GetTID returns the tid of the calling (running) thread.
func GetTID() int {
	return withEngine(func(e *engine) int { return e.running.tid })
}

// GetTotalQuantums returns the total number of quantums started since
// Init, the initial scheduling of thread 0 included.
func GetTotalQuantums() int {
	return withEngine(func(e *engine) int { return e.totalQuantums })
}

// GetQuantums returns the number of quantums the thread with the given tid
// has been scheduled for, or -1 for an invalid or unknown tid.
func GetQuantums(tid int) int {
	return withEngine(func(e *engine) int { return e.threadQuantums(tid) })
}
