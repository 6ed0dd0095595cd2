// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package expand performs the variable substitution of a shell line and
// holds the environment interfaces that substitution reads from.
package expand

import "strings"

// Literal expands a single word. A word starting with '$' is replaced by
// the value of the variable named by the rest of the word, or by the empty
// string if that variable is unset. Any other word is returned as-is.
//
// Only whole words are substituted; "a$B" stays literal.
func Literal(env Environ, word string) string {
	name, ok := strings.CutPrefix(word, "$")
	if !ok {
		return word
	}
	return env.Get(name).String()
}

// Fields expands each word with [Literal]. Words that expand to the empty
// string are kept, so the number of fields always matches the number of
// words.
func Fields(env Environ, words []string) []string {
	if words == nil {
		return nil
	}
	fields := make([]string, len(words))
	for i, word := range words {
		fields[i] = Literal(env, word)
	}
	return fields
}
