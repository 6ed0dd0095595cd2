// Copyright (c) 2018, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"fmt"
	"os"
	"strings"
)

// Environ is the base interface for a shell's environment, allowing it to
// fetch variables by name and to iterate over all the currently set
// variables.
type Environ interface {
	// Get retrieves a variable by its name. To check if the variable is
	// set, use Variable.Set.
	Get(name string) Variable

	// Each iterates over all the currently set variables, calling the
	// supplied function on each variable. Iteration is stopped if the
	// function returns false.
	//
	// The order of the iteration is the order in which the environment
	// holds its entries.
	Each(func(name string, vr Variable) bool)
}

// WriteEnviron is an extension on Environ that supports modifying and
// deleting variables.
type WriteEnviron interface {
	Environ
	// Set sets a variable by name, replacing any previous value.
	// An error is returned for names which cannot be stored,
	// such as empty names or names containing '='.
	Set(name string, vr Variable) error
}

// Variable describes a shell variable, which may or may not be set.
type Variable struct {
	Set bool
	Str string
}

// String returns the variable's value, which is empty if it is unset.
func (v Variable) String() string { return v.Str }

// StringVar is a shorthand for a set variable holding s.
func StringVar(s string) Variable { return Variable{Set: true, Str: s} }

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, "=\x00") {
		return fmt.Errorf("invalid variable name: %q", name)
	}
	return nil
}

// OSEnviron returns the environment of the current process. Writes go
// straight to the process environment, so they are inherited by programs
// started afterwards.
func OSEnviron() WriteEnviron { return osEnviron{} }

type osEnviron struct{}

func (osEnviron) Get(name string) Variable {
	if name == "" {
		return Variable{}
	}
	s, ok := os.LookupEnv(name)
	return Variable{Set: ok, Str: s}
}

func (osEnviron) Set(name string, vr Variable) error {
	if err := validName(name); err != nil {
		return err
	}
	if !vr.Set {
		return os.Unsetenv(name)
	}
	return os.Setenv(name, vr.Str)
}

func (osEnviron) Each(fn func(name string, vr Variable) bool) {
	eachPair(os.Environ(), fn)
}

// ListEnviron returns an Environ with the supplied variables, in the form
// "key=value". Elements without an '=' or with an empty name are dropped.
// If a name appears more than once, the last value wins and the position of
// the first one is kept.
//
// The returned environment is a copy and can be written to without
// affecting the current process.
func ListEnviron(pairs ...string) WriteEnviron {
	l := &listEnviron{}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			continue
		}
		l.put(name, value)
	}
	return l
}

type listEnviron struct {
	pairs []string
}

func (l *listEnviron) find(name string) int {
	prefix := name + "="
	for i, pair := range l.pairs {
		if strings.HasPrefix(pair, prefix) {
			return i
		}
	}
	return -1
}

func (l *listEnviron) put(name, value string) {
	pair := name + "=" + value
	if i := l.find(name); i >= 0 {
		l.pairs[i] = pair
		return
	}
	l.pairs = append(l.pairs, pair)
}

func (l *listEnviron) Get(name string) Variable {
	if name == "" {
		return Variable{}
	}
	if i := l.find(name); i >= 0 {
		return StringVar(l.pairs[i][len(name)+1:])
	}
	return Variable{}
}

func (l *listEnviron) Set(name string, vr Variable) error {
	if err := validName(name); err != nil {
		return err
	}
	if !vr.Set {
		if i := l.find(name); i >= 0 {
			l.pairs = append(l.pairs[:i], l.pairs[i+1:]...)
		}
		return nil
	}
	l.put(name, vr.Str)
	return nil
}

func (l *listEnviron) Each(fn func(name string, vr Variable) bool) {
	eachPair(l.pairs, fn)
}

func eachPair(pairs []string, fn func(name string, vr Variable) bool) {
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			// can't happen for listEnviron; os.Environ may hold junk
			continue
		}
		if !fn(name, StringVar(value)) {
			return
		}
	}
}

// Pairs returns the set variables of env as "name=value" strings, in
// iteration order. It is the form expected by [os/exec.Cmd.Env].
func Pairs(env Environ) []string {
	list := []string{}
	env.Each(func(name string, vr Variable) bool {
		if vr.Set {
			list = append(list, name+"="+vr.Str)
		}
		return true
	})
	return list
}
