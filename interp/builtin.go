// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/quash-sh/quash/expand"
	"github.com/quash-sh/quash/syntax"
)

// IsBuiltin returns true if the given word is the name of a builtin, which
// always takes precedence over programs of the same name.
func IsBuiltin(name string) bool {
	switch name {
	case "cd", "pwd", "echo", "exit", "quit", "env", "setenv":
		return true
	}
	return false
}

// builtin runs c within the shell. Output redirection applies as it would
// for a program; the background marker is ignored.
func (r *Runner) builtin(ctx context.Context, c *syntax.Command) uint8 {
	rd, ok := r.redirect(ctx, c)
	if !ok {
		return 1
	}
	defer rd.close()
	out := rd.stdout

	args := c.Args[1:]
	switch c.Name() {
	case "exit", "quit":
		r.exiting = true
	case "pwd":
		fmt.Fprintf(out, "%s\n", r.Dir)
	case "cd":
		// An empty target, such as an unset variable or an empty HOME,
		// is an error rather than a no-op.
		path := "/"
		if len(args) > 0 {
			path = args[0]
		} else if home := r.Env.Get("HOME"); home.Set {
			path = home.String()
		}
		if err := r.changeDir(path); err != nil {
			r.errf("quash: cd: %v\n", err)
			return 1
		}
	case "echo":
		first := true
		for _, arg := range args {
			if arg == "" {
				continue
			}
			if !first {
				io.WriteString(out, " ")
			}
			io.WriteString(out, arg)
			first = false
		}
		io.WriteString(out, "\n")
	case "env":
		if len(args) > 0 {
			if vr := r.Env.Get(args[0]); vr.Set {
				fmt.Fprintf(out, "%s\n", vr)
			}
			break
		}
		r.printEnv(out)
	case "setenv":
		if len(args) == 0 {
			r.printEnv(out)
			break
		}
		name, value, ok := strings.Cut(args[0], "=")
		if !ok {
			r.errf("quash: setenv usage: setenv VAR=value\n")
			return 2
		}
		if err := r.Env.Set(name, expand.StringVar(value)); err != nil {
			r.errf("quash: setenv: %v\n", err)
			return 1
		}
	default:
		panic(fmt.Sprintf("unhandled builtin: %s", c.Name()))
	}
	return 0
}

func (r *Runner) printEnv(out io.Writer) {
	r.Env.Each(func(name string, vr expand.Variable) bool {
		fmt.Fprintf(out, "%s=%s\n", name, vr)
		return true
	})
}

func (r *Runner) changeDir(path string) error {
	if path == "" {
		return fmt.Errorf("empty directory name: %w", fs.ErrNotExist)
	}
	path = r.relPath(path)
	info, err := os.Stat(path)
	if err != nil {
		var pe *fs.PathError
		if errors.As(err, &pe) {
			err = pe.Err
		}
		return fmt.Errorf("%s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", path)
	}
	if !hasPermissionToDir(path) {
		return fmt.Errorf("%s: permission denied", path)
	}
	r.Dir = path
	return nil
}

func (r *Runner) relPath(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.Dir, path)
	}
	return filepath.Clean(path)
}
