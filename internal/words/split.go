// Package words provides passage tokenization and text file loading.
package words

import (
	"strings"
	"unicode"
)

// Split breaks content into words on any whitespace. Empty tokens are dropped.
func Split(content string) []string {
	return strings.Fields(content)
}

// Count returns the number of words Split would produce without allocating them.
func Count(text string) int {
	n := 0
	inWord := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			n++
			inWord = true
		}
	}
	return n
}

// Join rebuilds typing text from a word slice.
func Join(ws []string) string {
	return strings.Join(ws, " ")
}
