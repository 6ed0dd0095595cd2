// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/quash-sh/quash/expand"
	"github.com/quash-sh/quash/syntax"
)

func (r *Runner) outf(format string, a ...any) {
	fmt.Fprintf(r.stdout, format, a...)
}

func (r *Runner) errf(format string, a ...any) {
	fmt.Fprintf(r.stderr, format, a...)
}

// redirs holds the standard streams of a single command, after applying its
// redirections.
type redirs struct {
	stdin  io.Reader
	stdout io.Writer

	closers []io.Closer
}

func (rd *redirs) close() {
	for _, c := range rd.closers {
		c.Close()
	}
	rd.closers = nil
}

// detach drops the closers which a background program may still be using.
// Files are handed to the program as its own descriptors, but any other
// stream is copied by [os/exec] goroutines which run as long as the job,
// so those are left open.
func (rd *redirs) detach() {
	files := rd.closers[:0]
	for _, c := range rd.closers {
		if _, ok := c.(*os.File); ok {
			files = append(files, c)
		}
	}
	rd.closers = files
}

// redirect opens the redirection targets of c. The output file is opened
// first, so a missing input file still leaves the output file truncated.
// On failure, a diagnostic has been printed and nothing is left open.
func (r *Runner) redirect(ctx context.Context, c *syntax.Command) (*redirs, bool) {
	rd := &redirs{stdin: r.stdin, stdout: r.stdout}
	if c.Output == "" && c.Input == "" {
		return rd, true
	}
	ctx = r.handlerCtx(ctx)
	if c.Output != "" {
		f, err := r.openHandler(ctx, c.Output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			r.errf("quash: open output failed: %v\n", err)
			return nil, false
		}
		rd.stdout = f
		rd.closers = append(rd.closers, f)
	}
	if c.Input != "" {
		f, err := r.openHandler(ctx, c.Input, os.O_RDONLY, 0)
		if err != nil {
			r.errf("quash: open input failed: %v\n", err)
			rd.close()
			return nil, false
		}
		rd.stdin = f
		rd.closers = append(rd.closers, f)
	}
	return rd, true
}

// start starts an external program. Lookup and start failures are reported
// and give a nil Cmd along with the status to use for them.
func (r *Runner) start(args []string, stdin io.Reader, stdout io.Writer) (*exec.Cmd, uint8) {
	path, err := LookPathDir(r.Dir, r.Env, args[0])
	if err != nil {
		r.errf("quash: %v\nAn error occurred.\n", err)
		return nil, 127
	}
	cmd := &exec.Cmd{
		Path:   path,
		Args:   args,
		Env:    expand.Pairs(r.Env),
		Dir:    r.Dir,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: r.stderr,
	}
	if err := cmd.Start(); err != nil {
		r.errf("quash: %s: %v\nAn error occurred.\n", args[0], err)
		return nil, 126
	}
	return cmd, 0
}

// command runs a single external program, either in the foreground under
// the watchdog or in the background.
func (r *Runner) command(ctx context.Context, c *syntax.Command) uint8 {
	rd, ok := r.redirect(ctx, c)
	if !ok {
		return 1
	}
	// The child holds its own copies of the redirected files.
	defer rd.close()
	if len(c.Args) == 0 {
		return 0
	}
	cmd, status := r.start(c.Args, rd.stdin, rd.stdout)
	if cmd == nil {
		return status
	}
	if c.Background {
		// Background jobs are not tracked nor waited for.
		rd.detach()
		r.outf("[PID %d] Running in the background.\n", cmd.Process.Pid)
		return 0
	}
	disarm := r.fg.arm(ctx, cmd.Process)
	err := cmd.Wait()
	disarm()
	return exitCode(err)
}

// pipeline runs the two stages of c connected by a pipe, and returns once
// both have finished. The stages are started and waited for independently;
// if one cannot start, the other still runs.
func (r *Runner) pipeline(ctx context.Context, c *syntax.Command) uint8 {
	pr, pw, err := os.Pipe()
	if err != nil {
		r.errf("quash: pipe failed: %v\n", err)
		return 1
	}
	first, _ := r.start(c.Args, r.stdin, pw)
	second, status := r.start(c.Pipe.Args, pr, r.stdout)

	// Our copies must go before waiting, or the second stage would never
	// see the end of its input.
	pr.Close()
	pw.Close()

	// Pipelines have no time limit, but they still stop with ctx.
	stop := context.AfterFunc(ctx, func() {
		for _, cmd := range []*exec.Cmd{first, second} {
			if cmd != nil {
				cmd.Process.Signal(os.Kill)
			}
		}
	})
	defer stop()

	if first != nil {
		if err := first.Wait(); err != nil && !isExit(err) {
			r.errf("quash: wait %s: %v\n", c.Args[0], err)
		}
	}
	if second != nil {
		status = exitCode(second.Wait())
	}
	return status
}

func isExit(err error) bool {
	var ee *exec.ExitError
	return errors.As(err, &ee)
}

// exitCode turns the result of waiting for a program into a status code.
// Programs killed by a signal give 128 plus the signal number.
func exitCode(err error) uint8 {
	var ee *exec.ExitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ee):
		if sig, ok := signaled(ee); ok {
			return uint8(128 + sig)
		}
		return uint8(ee.ExitCode())
	default:
		return 1
	}
}
