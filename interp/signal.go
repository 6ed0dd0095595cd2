// Copyright (c) 2026, The Quash Authors
// See LICENSE for licensing information

package interp

import (
	"io"
	"os"
	"os/signal"
)

// ShieldInterrupts stops interrupt signals from terminating the current
// process. Each interrupt writes a newline to w instead, so that an
// interactive prompt starts afresh. The returned func undoes it.
//
// Unlike ignoring the signal, handling it is not inherited: programs
// started by a [Runner] get the default behavior on exec, so an interrupt
// from the terminal still stops the foreground job.
func ShieldInterrupts(w io.Writer) (stop func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, sigInterrupt)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-c:
				io.WriteString(w, "\n")
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(c)
		close(done)
	}
}
