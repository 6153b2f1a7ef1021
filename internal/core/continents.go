package core

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ContinentLookup resolves continent membership in both directions.
type ContinentLookup interface {
	// ContinentsOf returns every continent listing code, in index order.
	ContinentsOf(code string) []string
	// Members returns the ISO codes listed under continent.
	Members(continent string) []string
	// Continents returns continent names in index order.
	Continents() []string
}

// ContinentIndex maps uppercase continent names to member ISO codes. It is
// immutable once built. Continents keep the order in which they first
// appeared in the reference table.
type ContinentIndex struct {
	order   []string
	members map[string][]string
}

var _ ContinentLookup = (*ContinentIndex)(nil)

// BuildContinentIndex reads a two-column ISO_CODE<TAB>Continent table.
// A code may be listed under several continents. Blank lines are skipped.
func BuildContinentIndex(r io.Reader) (*ContinentIndex, error) {
	idx := &ContinentIndex{members: make(map[string][]string)}

	err := scanLines(r, func(lineNum int, line string) error {
		if line == "" {
			return nil
		}
		data := strings.Split(line, "\t")
		if len(data) < 2 {
			return fmt.Errorf("continent table line %d: %w: no tab in %q", lineNum, ErrMalformedRecord, line)
		}
		idx.add(strings.ToUpper(data[1]), data[0])
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read continent table: %w", err)
	}
	return idx, nil
}

// LoadContinentIndex builds the index from the file at path.
func LoadContinentIndex(path string) (*ContinentIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingFile, path, err)
	}
	defer f.Close()
	return BuildContinentIndex(f)
}

// NewContinentIndex builds an index from continent/code pairs given in
// table order. Intended for fixtures and stored runs.
func NewContinentIndex(pairs ...[2]string) *ContinentIndex {
	idx := &ContinentIndex{members: make(map[string][]string)}
	for _, p := range pairs {
		idx.add(strings.ToUpper(p[0]), p[1])
	}
	return idx
}

func (c *ContinentIndex) add(continent, code string) {
	if _, ok := c.members[continent]; !ok {
		c.order = append(c.order, continent)
	}
	c.members[continent] = append(c.members[continent], code)
}

// ContinentsOf scans every continent's member list. The cost is
// O(continents x codes per continent) per call, which is fine for the
// reference table's size.
func (c *ContinentIndex) ContinentsOf(code string) []string {
	found := []string{}
	for _, continent := range c.order {
		for _, member := range c.members[continent] {
			if member == code {
				found = append(found, continent)
				break
			}
		}
	}
	return found
}

// Members returns a copy of the codes listed under continent.
func (c *ContinentIndex) Members(continent string) []string {
	m := c.members[continent]
	out := make([]string, len(m))
	copy(out, m)
	return out
}

// Continents returns continent names in first-seen order.
func (c *ContinentIndex) Continents() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of continents.
func (c *ContinentIndex) Len() int {
	return len(c.order)
}

// Annotate inserts the comma-joined continents of the line's ISO code as a
// new field right after the name. Codes without a continent get an empty
// field.
func Annotate(line string, lookup ContinentLookup) (string, error) {
	columns := strings.Split(trimLineEnd(line), "\t")
	if len(columns) < 2 {
		return "", fmt.Errorf("%w: cannot annotate %q", ErrMalformedRecord, line)
	}
	continents := strings.Join(lookup.ContinentsOf(columns[0]), ",")

	out := make([]string, 0, len(columns)+1)
	out = append(out, columns[:2]...)
	out = append(out, continents)
	out = append(out, columns[2:]...)
	return strings.Join(out, "\t"), nil
}
