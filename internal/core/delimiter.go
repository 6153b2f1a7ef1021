package core

import (
	"fmt"
	"strings"
)

// Delimiters is the fixed, ordered candidate set inspected by FindDelimiter.
// On equal counts the earlier candidate wins.
var Delimiters = []rune{'\t', ',', ' ', '-'}

// FindDelimiter returns the candidate delimiter that occurs most often in
// line. It fails with ErrNoDelimiterFound when no candidate occurs at all.
func FindDelimiter(line string) (rune, error) {
	counts := make([]int, len(Delimiters))
	for _, r := range line {
		for i, d := range Delimiters {
			if r == d {
				counts[i]++
			}
		}
	}

	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}

	if counts[best] == 0 {
		return 0, fmt.Errorf("%w in %q", ErrNoDelimiterFound, line)
	}
	return Delimiters[best], nil
}

// UnifyDelimiter replaces every occurrence of the line's dominant delimiter
// with a tab.
func UnifyDelimiter(line string) (string, error) {
	d, err := FindDelimiter(line)
	if err != nil {
		return "", err
	}
	if d == '\t' {
		return line, nil
	}
	return strings.ReplaceAll(line, string(d), "\t"), nil
}
