// Copyright (c) 2026, The Quash Authors
// See LICENSE for licensing information

package interp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"
)

// errJobTimeout is the cause of a countdown expiring, which tells it apart
// from a deadline on the caller's context.
var errJobTimeout = errors.New("foreground job timed out")

// watchdog enforces the wall-clock limit of the foreground job.
//
// It is either idle, with fg set to zero, or armed with the pid of the one
// job being waited on. Expiry only acts if it can swap that same pid back to
// zero, so a countdown that fires late can never reach a later job.
type watchdog struct {
	limit  time.Duration
	stderr io.Writer

	fg atomic.Int64
}

// arm starts the countdown for proc, which must have just been started.
// The returned func disarms it; it must be called once the shell's wait on
// proc has returned.
//
// The countdown also ends early if ctx is done, in which case proc is
// killed without reporting it, even if ctx had a deadline of its own.
func (w *watchdog) arm(ctx context.Context, proc *os.Process) (disarm func()) {
	pid := int64(proc.Pid)
	w.fg.Store(pid)

	cancel := func() {}
	if w.limit > 0 {
		ctx, cancel = context.WithTimeoutCause(ctx, w.limit, errJobTimeout)
	}
	done := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(done)
		if !w.fg.CompareAndSwap(pid, 0) {
			return
		}
		w.expire(proc, context.Cause(ctx) == errJobTimeout)
	})
	return func() {
		if !stop() {
			// already fired; let its report land before the next prompt
			<-done
		}
		cancel()
		w.fg.CompareAndSwap(pid, 0)
	}
}

// armed returns the pid of the tracked foreground job, or zero.
func (w *watchdog) armed() int { return int(w.fg.Load()) }

func (w *watchdog) expire(proc *os.Process, report bool) {
	err := proc.Signal(os.Kill)
	switch {
	case errors.Is(err, os.ErrProcessDone):
		// finished just in time
	case err != nil:
		fmt.Fprintf(w.stderr, "quash: kill failed: %v\n", err)
	case report:
		fmt.Fprintf(w.stderr, "\nProcess %d exceeded the %v limit and was terminated.\n",
			proc.Pid, w.limit)
	}
}
