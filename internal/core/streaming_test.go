package core

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("BLR\tEurope")...),
			expected: "BLR\tEurope",
		},
		{
			name:     "file without BOM",
			input:    []byte("BLR\tEurope"),
			expected: "BLR\tEurope",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: string([]byte{0xEF, 0xBB, 'a', 'b', 'c'}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewBOMSkippingReader(bytes.NewReader(tt.input))
			result, err := io.ReadAll(reader)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestScanLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "unix line endings",
			input: "a\tb\nc\td\n",
			want:  []string{"a\tb", "c\td"},
		},
		{
			name:  "windows line endings",
			input: "a\tb\r\nc\td\r\n",
			want:  []string{"a\tb", "c\td"},
		},
		{
			name:  "no trailing newline",
			input: "a\nb",
			want:  []string{"a", "b"},
		},
		{
			name:  "blank lines are passed through",
			input: "a\n\nb\n",
			want:  []string{"a", "", "b"},
		},
		{
			name:  "invalid utf8 replaced",
			input: string([]byte{'h', 'e', 0x80, 'l', 'o'}),
			want:  []string{"he?lo"},
		},
		{
			name:  "leading BOM stripped",
			input: "\xEF\xBB\xBFRUS\tAsia\n",
			want:  []string{"RUS\tAsia"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			err := scanLines(strings.NewReader(tt.input), func(_ int, line string) error {
				got = append(got, line)
				return nil
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("lines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScanLines_StopsOnError(t *testing.T) {
	stop := errors.New("stop")
	var seen []int
	err := scanLines(strings.NewReader("a\nb\nc\n"), func(lineNum int, _ string) error {
		seen = append(seen, lineNum)
		if lineNum == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("error = %v, want stop", err)
	}
	if diff := cmp.Diff([]int{1, 2}, seen); diff != "" {
		t.Errorf("line numbers mismatch (-want +got):\n%s", diff)
	}
}

func TestScanLines_LongLine(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	var got string
	err := scanLines(strings.NewReader(long+"\n"), func(_ int, line string) error {
		got = line
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(long) {
		t.Errorf("line length = %d, want %d", len(got), len(long))
	}
}
