// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

//go:build !unix

package interp

import "os/exec"

// signaled is a no-op, as there is no portable wait status.
func signaled(ee *exec.ExitError) (int, bool) { return 0, false }
