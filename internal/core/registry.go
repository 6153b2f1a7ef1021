package core

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
)

// RegistryOptions configures a registry build.
type RegistryOptions struct {
	Merge        MergePolicy
	YearTracking YearTracking

	// SkipInvalidCodes logs and skips records with an invalid ISO code
	// instead of aborting the build.
	SkipInvalidCodes bool

	Logger *slog.Logger
}

// Registry maps ISO codes to country aggregates built from one pass over the
// annotated records, in file order.
type Registry struct {
	mu        sync.RWMutex
	countries map[string]*Country
	order     []string

	years   *YearRange
	opts    RegistryOptions
	skipped int
}

// NewRegistry creates an empty registry with its own year tracker.
func NewRegistry(opts RegistryOptions) *Registry {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Registry{
		countries: make(map[string]*Country),
		years:     NewYearRange(opts.YearTracking),
		opts:      opts,
	}
}

// Add merges one record. The first record for a code creates the country;
// later records only contribute their yearly values.
func (r *Registry) Add(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.countries[rec.ISOCode]; ok {
		c.AddRecord(rec)
		return nil
	}

	c, err := NewCountryFromRecord(r.years, rec)
	if err != nil {
		if r.opts.SkipInvalidCodes {
			r.skipped++
			r.opts.Logger.Warn("skipping record", "iso_code", rec.ISOCode, "year", rec.Year, "error", err)
			return nil
		}
		return err
	}
	c.policy = r.opts.Merge
	r.countries[c.ISOCode] = c
	r.order = append(r.order, c.ISOCode)
	return nil
}

// AddLine parses an annotated line and merges it.
func (r *Registry) AddLine(line string) error {
	rec, err := ParseAnnotated(line)
	if err != nil {
		return err
	}
	return r.Add(rec)
}

// ReadFrom builds countries from annotated lines read from rd. It stops at
// the first invalid record.
func (r *Registry) ReadFrom(rd io.Reader) (int64, error) {
	var n int64
	err := scanLines(rd, func(lineNum int, line string) error {
		if line == "" {
			return nil
		}
		if err := r.AddLine(line); err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
		n++
		return nil
	})
	return n, err
}

// LoadRegistryFile builds a registry from an annotated file.
func LoadRegistryFile(path string, opts RegistryOptions) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingFile, path, err)
	}
	defer f.Close()

	reg := NewRegistry(opts)
	if _, err := reg.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return reg, nil
}

// Get returns the country for code.
func (r *Registry) Get(code string) (*Country, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.countries[code]
	return c, ok
}

// Lookup returns the country for code or ErrUnknownCountry.
func (r *Registry) Lookup(code string) (*Country, error) {
	c, ok := r.Get(code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCountry, code)
	}
	return c, nil
}

// All returns every country in the order it was first seen.
func (r *Registry) All() []*Country {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Country, len(r.order))
	for i, code := range r.order {
		out[i] = r.countries[code]
	}
	return out
}

// Sorted returns every country ordered by name.
func (r *Registry) Sorted() []*Country {
	out := r.All()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Len returns the number of countries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Skipped returns how many records were skipped for invalid codes.
func (r *Registry) Skipped() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.skipped
}

// Years returns the tracker updated by every record merged so far.
func (r *Registry) Years() *YearRange {
	return r.years
}
