// Copyright (c) 2026, The Quash Authors
// See LICENSE for licensing information

package internal

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// HelperEnv is set in the environment of a test binary which should act as
// a helper program instead of running tests.
const HelperEnv = "QUASH_TEST_HELPER"

// TestMainSetup is used by tests which start the test binary itself as a
// program, to avoid depending on the programs installed on the system.
// When [HelperEnv] is set, it runs the helper command named by the first
// argument and exits; otherwise it returns the path to the test binary.
//
// The helper commands are:
//
//	args ARG...      print each argument on its own line
//	cat              copy stdin to stdout
//	exit N           exit with status N
//	getenv NAME      print the value of an environment variable
//	pid_and_hang     print the process ID and sleep for an hour
//	sleep DURATION   sleep, then print "slept"
//	stderr MSG...    print the arguments to stderr
func TestMainSetup() (prog string) {
	if os.Getenv(HelperEnv) != "" {
		os.Exit(Helper(os.Args[1:]))
	}
	prog, err := os.Executable()
	if err != nil {
		panic(err)
	}
	return prog
}

// Helper runs one of the helper commands listed in [TestMainSetup],
// returning its exit status.
func Helper(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "helper: missing command")
		return 2
	}
	switch cmd, args := args[0], args[1:]; cmd {
	case "args":
		for _, arg := range args {
			fmt.Println(arg)
		}
	case "cat":
		if _, err := io.Copy(os.Stdout, os.Stdin); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	case "exit":
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		return n
	case "getenv":
		fmt.Println(os.Getenv(args[0]))
	case "pid_and_hang":
		fmt.Println(os.Getpid())
		time.Sleep(time.Hour)
	case "sleep":
		d, err := time.ParseDuration(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		time.Sleep(d)
		fmt.Println("slept")
	case "stderr":
		fmt.Fprintln(os.Stderr, strings.Join(args, " "))
	default:
		fmt.Fprintf(os.Stderr, "helper: unknown command %q\n", cmd)
		return 2
	}
	return 0
}
