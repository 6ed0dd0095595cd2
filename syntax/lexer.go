// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

// DefaultMaxArgs is the number of argument slots used when no other bound is
// given. One slot is reserved for the terminating sentinel, so at most
// DefaultMaxArgs-1 words are kept from a single line.
const DefaultMaxArgs = 128

// bytes that separate words
func wordBreak(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

// Split breaks a line into its whitespace-separated words. Empty words are
// never produced. Once max-1 words have been collected, the rest of the line
// is dropped; a max of zero or less means [DefaultMaxArgs].
//
// The line itself is not modified, so callers may keep it around for
// diagnostics.
func Split(line string, max int) []string {
	if max <= 0 {
		max = DefaultMaxArgs
	}
	var words []string
	i := 0
	for len(words) < max-1 {
		for i < len(line) && wordBreak(line[i]) {
			i++
		}
		if i >= len(line) {
			break
		}
		start := i
		for i < len(line) && !wordBreak(line[i]) {
			i++
		}
		words = append(words, line[start:i])
	}
	return words
}
