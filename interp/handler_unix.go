// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

//go:build unix

package interp

import (
	"os/exec"
	"syscall"
)

// signaled reports the signal that killed the program, if any.
func signaled(ee *exec.ExitError) (int, bool) {
	status, ok := ee.Sys().(syscall.WaitStatus)
	if !ok || !status.Signaled() {
		return 0, false
	}
	return int(status.Signal()), true
}
