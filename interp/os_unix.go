// Copyright (c) 2017, Andrey Nering <andrey.nering@gmail.com>
// See LICENSE for licensing information

//go:build unix

package interp

import (
	"os"

	"golang.org/x/sys/unix"
)

// sigInterrupt is the signal delivered by the terminal on ^C.
var sigInterrupt os.Signal = unix.SIGINT

// hasPermissionToDir returns true if the OS current user has execute
// permission to the given directory
func hasPermissionToDir(path string) bool {
	return unix.Access(path, unix.X_OK) == nil
}
