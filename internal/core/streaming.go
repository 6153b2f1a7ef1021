package core

// streaming.go provides the line readers shared by every pipeline stage.
//
// Input tables come from spreadsheets and hand-edited text files, so readers:
//   - skip a leading UTF-8 BOM (0xEF 0xBB 0xBF) written by Windows tools
//   - replace invalid UTF-8 sequences with '?'
//   - accept lines longer than bufio.Scanner's 64KB default

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// maxLineSize bounds a single input line.
const maxLineSize = 1024 * 1024

// NewBOMSkippingReader returns a reader that drops a leading UTF-8 BOM.
func NewBOMSkippingReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	return br
}

// scanLines calls fn for every line of r with its 1-indexed line number.
// Line terminators are stripped; iteration stops at the first error.
func scanLines(r io.Reader, fn func(lineNum int, line string) error) error {
	scanner := bufio.NewScanner(NewBOMSkippingReader(r))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.ToValidUTF8(trimLineEnd(scanner.Text()), "?")
		if err := fn(lineNum, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}
