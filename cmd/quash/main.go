// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// quash is a small interactive shell for running jobs.
//
// It reads one command per line. A command may redirect its input or
// output to a file, run in the background with a trailing "&", or feed a
// second command through "|". Foreground jobs running longer than the
// timeout are killed.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quash-sh/quash/interp"
	"github.com/quash-sh/quash/syntax"
)

func main() {
	os.Exit(main1())
}

type flags struct {
	command string
	timeout time.Duration
	maxArgs int
	color   string
}

func main1() int {
	status := 0
	cmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr, &status)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "quash: %v\n", err)
		return 2
	}
	return status
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer, status *int) *cobra.Command {
	var fl flags
	cmd := &cobra.Command{
		Use:   "quash",
		Short: "A small job-execution shell",
		Long: `quash reads commands from standard input, one per line, and runs them.

Builtins are cd, pwd, echo, env, setenv, exit and quit. Anything else is
run as a program found via $PATH.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := newPrompter(fl.color, stdout)
			if err != nil {
				return err
			}
			r, err := interp.New(
				interp.StdIO(stdin, stdout, stderr),
				interp.Timeout(fl.timeout),
				interp.MaxArgs(fl.maxArgs),
			)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("command") {
				*status = runCommand(cmd.Context(), r, fl.command)
				return nil
			}
			sh := &shell{
				runner: r,
				stdin:  stdin,
				stdout: stdout,
				stderr: stderr,
			}
			if isTerminal(stdin) {
				sh.prompt = prompt
			}
			stop := interp.ShieldInterrupts(stdout)
			defer stop()
			*status = sh.loop(cmd.Context())
			return nil
		},
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVarP(&fl.command, "command", "c", "", "run a single command line and exit")
	f.DurationVar(&fl.timeout, "timeout", interp.DefaultTimeout, "kill foreground jobs running longer than this; 0 disables it")
	f.IntVar(&fl.maxArgs, "max-args", syntax.DefaultMaxArgs, "argument slots per line; extra words are dropped")
	f.StringVar(&fl.color, "color", "auto", "color the prompt: auto, always or never")
	return cmd
}

// runCommand runs a single line, returning the status to exit with.
func runCommand(ctx context.Context, r *interp.Runner, line string) int {
	switch err := r.Run(ctx, line).(type) {
	case nil:
		return 0
	case interp.ExitStatus:
		return int(err)
	default:
		return 1
	}
}

func isTerminal(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
