// Copyright (c) 2026, The Quash Authors
// See LICENSE for licensing information

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/quash-sh/quash/interp"
)

// shell is the read-run loop of an interactive session.
type shell struct {
	runner *interp.Runner

	stdin          io.Reader
	stdout, stderr io.Writer

	// prompt is nil when the input is not a terminal.
	prompt *prompter
}

// loop reads and runs lines until the end of the input, or until a line
// runs exit or quit. It returns the status for the shell to exit with.
//
// A failing line does not stop the loop; its diagnostics have already been
// printed by the runner.
func (s *shell) loop(ctx context.Context) int {
	in := bufio.NewReader(s.stdin)
	for {
		if s.prompt != nil {
			s.prompt.print(s.stdout, s.runner.Dir)
		}
		line, readErr := in.ReadString('\n')
		if line != "" {
			err := s.runner.Run(ctx, line)
			if _, ok := interp.IsExitStatus(err); err != nil && !ok {
				fmt.Fprintf(s.stderr, "quash: %v\n", err)
				return 1
			}
			if s.runner.Exited() {
				return 0
			}
		}
		switch {
		case readErr == nil:
		case errors.Is(readErr, io.EOF):
			fmt.Fprintln(s.stdout)
			return 0
		default:
			fmt.Fprintf(s.stderr, "quash: read failed: %v\n", readErr)
			return 1
		}
	}
}

// prompter prints the interactive prompt: the last element of the working
// directory followed by "> ".
type prompter struct {
	dir *color.Color
}

func newPrompter(mode string, stdout io.Writer) (*prompter, error) {
	p := &prompter{dir: color.New(color.FgBlue, color.Bold)}
	switch mode {
	case "always":
		p.dir.EnableColor()
	case "never":
		p.dir.DisableColor()
	case "auto":
		if !isTerminal(stdout) {
			p.dir.DisableColor()
		}
	default:
		return nil, fmt.Errorf("invalid --color %q: want auto, always or never", mode)
	}
	return p, nil
}

func (p *prompter) print(w io.Writer, dir string) {
	// a single write, so that the prompt is never split
	fmt.Fprintf(w, "%s> ", p.dir.Sprint(filepath.Base(dir)))
}
