// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

// ParseError represents an error found when parsing a command line.
type ParseError struct {
	Text string
}

func (e *ParseError) Error() string { return e.Text }

var (
	errPipeSides  = &ParseError{Text: "pipe requires two valid commands"}
	errPipeStages = &ParseError{Text: "pipelines of more than two commands are not supported"}
)

// Parse turns the fields of a line, after variable substitution, into a
// Command. A nil Command and nil error are returned when there is nothing to
// run: no fields at all, or an empty first field.
//
// Pipelines are detected first. A line containing a "|" word is split into
// two stages and no redirection or background parsing happens on it.
// Otherwise, the first "<" or ">" followed by another word sets the matching
// redirection and ends the argument list; a trailing "&" on what is left
// marks the command for the background.
//
// The returned Command may share memory with fields.
func Parse(fields []string) (*Command, error) {
	if len(fields) == 0 || fields[0] == "" {
		return nil, nil
	}
	if i := index(fields, PipeOp); i >= 0 {
		return parsePipe(fields[:i], fields[i+1:])
	}
	c := &Command{Args: fields}
	c.parseRedirect()
	if n := len(c.Args); n > 0 && c.Args[n-1] == BackgndOp {
		c.Args = c.Args[:n-1]
		c.Background = true
	}
	return c, nil
}

func parsePipe(left, right []string) (*Command, error) {
	if len(left) == 0 || len(right) == 0 {
		return nil, errPipeSides
	}
	if index(right, PipeOp) >= 0 {
		return nil, errPipeStages
	}
	return &Command{Args: left, Pipe: &Command{Args: right}}, nil
}

// parseRedirect stops at the first redirection with a target. A dangling
// operator as the last word has no target and stays as a plain argument.
func (c *Command) parseRedirect() {
	for i := 0; i+1 < len(c.Args); i++ {
		switch c.Args[i] {
		case RdrInOp:
			c.Input = c.Args[i+1]
		case RdrOutOp:
			c.Output = c.Args[i+1]
		default:
			continue
		}
		c.Args = c.Args[:i]
		return
	}
}

func index(fields []string, word string) int {
	for i, f := range fields {
		if f == word {
			return i
		}
	}
	return -1
}
