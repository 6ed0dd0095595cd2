// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/quash-sh/quash/expand"
)

// HandlerCtx returns HandlerContext value stored in ctx.
// It panics if ctx has no HandlerContext stored.
func HandlerCtx(ctx context.Context) HandlerContext {
	hc, ok := ctx.Value(handlerCtxKey{}).(HandlerContext)
	if !ok {
		panic("interp.HandlerCtx: no HandlerContext in ctx")
	}
	return hc
}

type handlerCtxKey struct{}

// HandlerContext is the data passed to all the handler functions via
// [context.WithValue]. It contains some of the current state of the
// [Runner].
type HandlerContext struct {
	// Env is the shell's environment.
	Env expand.Environ

	// Dir is the shell's current directory.
	Dir string

	// Stdin is the shell's standard input reader.
	Stdin io.Reader
	// Stdout is the shell's standard output writer.
	Stdout io.Writer
	// Stderr is the shell's standard error writer.
	Stderr io.Writer
}

func (r *Runner) handlerCtx(ctx context.Context) context.Context {
	hc := HandlerContext{
		Env:    r.Env,
		Dir:    r.Dir,
		Stdin:  r.stdin,
		Stdout: r.stdout,
		Stderr: r.stderr,
	}
	return context.WithValue(ctx, handlerCtxKey{}, hc)
}

// OpenHandlerFunc is a handler which opens files. It is called for the
// targets of "<" and ">" redirections.
//
// The path parameter may be relative to the current directory,
// which can be fetched via [HandlerCtx].
//
// Any error is reported on standard error and abandons the command.
//
// Note that implementations which do not return [*os.File] will cause
// extra pipes and goroutines when the file is handed to a program; see
// [StdIO]. Such streams are never closed for background jobs, as the
// shell does not wait for them.
type OpenHandlerFunc func(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error)

// DefaultOpenHandler returns the [OpenHandlerFunc] used by default.
// It uses [os.OpenFile] to open files.
func DefaultOpenHandler() OpenHandlerFunc {
	return func(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
		hc := HandlerCtx(ctx)
		if path != "" && !filepath.IsAbs(path) {
			path = filepath.Join(hc.Dir, path)
		}
		return os.OpenFile(path, flag, perm)
	}
}

func checkStat(dir, file string) (string, error) {
	if !filepath.IsAbs(file) {
		file = filepath.Join(dir, file)
	}
	info, err := os.Stat(file)
	if err != nil {
		return "", err
	}
	m := info.Mode()
	if m.IsDir() {
		return "", fmt.Errorf("is a directory")
	}
	if m&0o111 == 0 {
		return "", fmt.Errorf("permission denied")
	}
	return file, nil
}

// LookPathDir is similar to [os/exec.LookPath], with the difference that it
// uses the provided environment and directory. env is used to fetch PATH,
// and a file containing a slash is resolved against cwd instead.
//
// If no error is returned, the returned path must be valid.
func LookPathDir(cwd string, env expand.Environ, file string) (string, error) {
	if strings.Contains(file, "/") {
		path, err := checkStat(cwd, file)
		if err != nil {
			if os.IsNotExist(err) {
				err = fmt.Errorf("no such file or directory")
			}
			return "", fmt.Errorf("%s: %w", file, err)
		}
		return path, nil
	}
	pathList := filepath.SplitList(env.Get("PATH").String())
	if len(pathList) == 0 {
		pathList = []string{""}
	}
	for _, elem := range pathList {
		var path string
		switch elem {
		case "", ".":
			// otherwise "foo" won't be "./foo"
			path = "." + string(filepath.Separator) + file
		default:
			path = filepath.Join(elem, file)
		}
		if f, err := checkStat(cwd, path); err == nil {
			return f, nil
		}
	}
	return "", fmt.Errorf("%s: command not found", file)
}
