// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package interp implements a small job-execution shell. It runs one line
// at a time: builtins such as cd and setenv execute within the shell, while
// any other command is started as an external program, optionally with
// file redirections, as a two-stage pipeline, or in the background.
//
// Foreground programs are subject to a wall-clock limit, after which they
// are killed.
package interp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/quash-sh/quash/expand"
	"github.com/quash-sh/quash/syntax"
)

// DefaultTimeout is the wall-clock limit for foreground jobs.
const DefaultTimeout = 10 * time.Second

// A Runner interprets command lines. It is not safe for concurrent use.
// Use [New] to build a new Runner.
//
// Note that writes to Stdout and Stderr may be concurrent if background
// jobs are used, or when a foreground job is killed for running too long.
// If you plan on using an [io.Writer] implementation that isn't safe for
// concurrent use, consider a workaround like hiding writes behind a mutex.
type Runner struct {
	// Env is the environment that $NAME words are substituted from, and
	// that env and setenv read and write. It is passed on to every
	// program that is started. It can only be set via [Env].
	Env expand.WriteEnviron

	// Dir is the working directory of the shell, which must be an
	// absolute path. It can only be set via [Dir]; afterwards, only cd
	// changes it.
	Dir string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// openHandler is a function responsible for opening redirection
	// targets. It must not be nil.
	openHandler OpenHandlerFunc

	maxArgs int
	fg      watchdog

	exiting bool
}

// New creates a new Runner, applying a number of options. If applying any of
// the options results in an error, it is returned.
//
// Any unset options fall back to their defaults. For example, not supplying
// the environment falls back to the process's environment, and not
// supplying the standard output writer means that the output will be
// discarded.
func New(opts ...RunnerOption) (*Runner, error) {
	r := &Runner{
		openHandler: DefaultOpenHandler(),
		maxArgs:     syntax.DefaultMaxArgs,
		fg:          watchdog{limit: DefaultTimeout},
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	// Set the default fallbacks, if necessary.
	if r.Env == nil {
		Env(nil)(r)
	}
	if r.Dir == "" {
		if err := Dir("")(r); err != nil {
			return nil, err
		}
	}
	if r.stdout == nil || r.stderr == nil {
		StdIO(r.stdin, r.stdout, r.stderr)(r)
	}
	return r, nil
}

// RunnerOption can be passed to [New] to alter a [Runner]'s behaviour.
type RunnerOption func(*Runner) error

// Env sets the shell's environment. If nil, the environment of the current
// process is used, and writes to it affect the current process.
func Env(env expand.WriteEnviron) RunnerOption {
	return func(r *Runner) error {
		if env == nil {
			env = expand.OSEnviron()
		}
		r.Env = env
		return nil
	}
}

// Dir sets the shell's working directory. If empty, the process's current
// directory is used.
func Dir(path string) RunnerOption {
	return func(r *Runner) error {
		if path == "" {
			path, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("could not get current dir: %w", err)
			}
			r.Dir = path
			return nil
		}
		path, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("could not get absolute dir: %w", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("could not stat: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", path)
		}
		r.Dir = path
		return nil
	}
}

// StdIO configures the shell's standard input, standard output, and
// standard error. If out or err are nil, they default to a writer that
// discards the output. A nil in means programs read from the null device.
//
// Programs get an [*os.File] directly when one is given. Other readers and
// writers are copied to and from through pipes by [os/exec].
func StdIO(in io.Reader, out, err io.Writer) RunnerOption {
	return func(r *Runner) error {
		r.stdin = in
		if out == nil {
			out = io.Discard
		}
		r.stdout = out
		if err == nil {
			err = io.Discard
		}
		r.stderr = err
		r.fg.stderr = err
		return nil
	}
}

// Timeout sets the wall-clock limit for foreground jobs, which defaults to
// [DefaultTimeout]. A limit of zero or less disables it.
// Background jobs and pipelines are never subject to it.
func Timeout(d time.Duration) RunnerOption {
	return func(r *Runner) error {
		r.fg.limit = d
		return nil
	}
}

// MaxArgs bounds the number of argument slots per line, including the
// terminating slot, so that at most n-1 words of a line are used.
// Extra words are silently dropped. It defaults to [syntax.DefaultMaxArgs].
func MaxArgs(n int) RunnerOption {
	return func(r *Runner) error {
		if n < 2 {
			return fmt.Errorf("max args must be at least 2, got %d", n)
		}
		r.maxArgs = n
		return nil
	}
}

// OpenHandler sets file open handler. See [OpenHandlerFunc] for more info.
func OpenHandler(f OpenHandlerFunc) RunnerOption {
	return func(r *Runner) error {
		r.openHandler = f
		return nil
	}
}

// ExitStatus is a non-zero status code resulting from running a line.
type ExitStatus uint8

func (s ExitStatus) Error() string { return fmt.Sprintf("exit status %d", s) }

// IsExitStatus checks whether an error is an [ExitStatus], returning the
// status code if so.
func IsExitStatus(err error) (status uint8, ok bool) {
	if s, ok := err.(ExitStatus); ok {
		return uint8(s), true
	}
	return 0, false
}

// Run interprets a single line. Diagnostics are written to the standard
// error writer; none of them stop the Runner.
//
// A nil error is returned when the line's command succeeded, or when there
// was nothing to run. An [ExitStatus] is returned when it failed, such as
// when a program exited with a non-zero status or could not be started,
// or when the line could not be parsed. Any other error comes from ctx:
// when it is cancelled, the foreground job is killed.
//
// Once a line runs exit or quit, [Runner.Exited] reports true and further
// lines are ignored.
func (r *Runner) Run(ctx context.Context, line string) error {
	if r.exiting {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	fields := expand.Fields(r.Env, syntax.Split(line, r.maxArgs))
	cmd, err := syntax.Parse(fields)
	if err != nil {
		r.errf("quash: %v\n", err)
		return ExitStatus(2)
	}
	if cmd == nil {
		return nil
	}
	var status uint8
	switch {
	case cmd.Pipe != nil:
		status = r.pipeline(ctx, cmd)
	case IsBuiltin(cmd.Name()):
		status = r.builtin(ctx, cmd)
	default:
		status = r.command(ctx, cmd)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if status != 0 {
		return ExitStatus(status)
	}
	return nil
}

// Exited reports whether the last line ran exit or quit.
func (r *Runner) Exited() bool { return r.exiting }
