// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import "strings"

// Operator words recognised by [Parse]. They only have meaning as whole
// words; "a|b" is a single argument.
const (
	PipeOp    = "|"
	RdrInOp   = "<"
	RdrOutOp  = ">"
	BackgndOp = "&"
)

// Command is a single parsed line.
//
// When Pipe is set, the line was a two-stage pipeline: Args is the first
// stage and Pipe holds the second. Pipelines never carry redirections or the
// background flag.
type Command struct {
	// Args holds the program name followed by its arguments.
	Args []string

	// Pipe is the second stage of a pipeline, if any.
	Pipe *Command

	// Input and Output are the redirection targets, or empty.
	Input  string
	Output string

	// Background is set when the line ended with a lone "&".
	Background bool
}

// Name returns the program name, i.e. the first argument.
func (c *Command) Name() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

// String renders the command back into a line that parses to the same
// Command, as long as none of its arguments are empty.
func (c *Command) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(c.Args, " "))
	if c.Pipe != nil {
		sb.WriteString(" | ")
		sb.WriteString(c.Pipe.String())
		return sb.String()
	}
	if c.Background {
		sb.WriteString(" &")
	}
	if c.Input != "" {
		sb.WriteString(" < ")
		sb.WriteString(c.Input)
	} else if c.Output != "" {
		sb.WriteString(" > ")
		sb.WriteString(c.Output)
	}
	return sb.String()
}
