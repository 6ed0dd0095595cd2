// Copyright (c) 2017, Andrey Nering <andrey.nering@gmail.com>
// See LICENSE for licensing information

//go:build !unix

package interp

import "os"

var sigInterrupt = os.Interrupt

// hasPermissionToDir is a no-op outside of Unix.
func hasPermissionToDir(string) bool {
	return true
}
