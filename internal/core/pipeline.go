package core

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
)

// ContextCheckInterval is how often (in lines) long loops check for
// cancellation.
var ContextCheckInterval = 1000

// InputFormat describes how far an emissions file has been processed.
type InputFormat string

const (
	// FormatRaw lines use one of the candidate delimiters and may be ragged.
	FormatRaw InputFormat = "raw"
	// FormatNormalized lines have the five tab-separated fields.
	FormatNormalized InputFormat = "normalized"
	// FormatAnnotated lines have the six tab-separated fields.
	FormatAnnotated InputFormat = "annotated"
)

// ParseInputFormat validates s as an InputFormat.
func ParseInputFormat(s string) (InputFormat, error) {
	switch f := InputFormat(s); f {
	case FormatRaw, FormatNormalized, FormatAnnotated:
		return f, nil
	case "":
		return FormatRaw, nil
	default:
		return "", fmt.Errorf("invalid parameter: input format %q", s)
	}
}

// StageObserver receives the outcome of each pipeline stage.
type StageObserver interface {
	ObserveStage(stage string, records int, d time.Duration, err error)
}

// Stage names reported to a StageObserver.
const (
	StageRead       = "read"
	StageNormalize  = "normalize"
	StageContinents = "continents"
	StageAnnotate   = "annotate"
	StageRegistry   = "registry"
)

type nopObserver struct{}

func (nopObserver) ObserveStage(string, int, time.Duration, error) {}

// transformFile applies fn to every line of in and writes the results to
// out, one per line. Returns the number of lines written.
func transformFile(ctx context.Context, in, out string, fn func(string) (string, error)) (int, error) {
	src, err := os.Open(in)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMissingFile, in, err)
	}
	defer src.Close()

	dst, err := os.Create(out)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", out, err)
	}
	defer dst.Close()

	n, err := transformLines(ctx, src, dst, fn)
	if err != nil {
		return n, fmt.Errorf("%s: %w", in, err)
	}
	return n, dst.Close()
}

func transformLines(ctx context.Context, r io.Reader, w io.Writer, fn func(string) (string, error)) (int, error) {
	bw := bufio.NewWriter(w)
	written := 0
	err := scanLines(r, func(lineNum int, line string) error {
		if lineNum%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("operation cancelled: %w", err)
			}
		}
		result, err := fn(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
		if _, err := bw.WriteString(result + "\n"); err != nil {
			return err
		}
		written++
		return nil
	})
	if err != nil {
		return written, err
	}
	return written, bw.Flush()
}

// CleanFile replaces the dominant delimiter of every line of in with a tab
// and writes the result to out.
func CleanFile(ctx context.Context, in, out string) (int, error) {
	return transformFile(ctx, in, out, UnifyDelimiter)
}

// FinalCleanFile normalizes every tab-separated line of in to five fields.
func FinalCleanFile(ctx context.Context, in, out string) (int, error) {
	return transformFile(ctx, in, out, NormalizeRecord)
}

// AddContinentsFile annotates every normalized line of in with the
// continents listed for its ISO code in the continents table.
func AddContinentsFile(ctx context.Context, in, continentsPath, out string) (int, error) {
	idx, err := LoadContinentIndex(continentsPath)
	if err != nil {
		return 0, err
	}
	return transformFile(ctx, in, out, func(line string) (string, error) {
		return Annotate(line, idx)
	})
}

// Dataset is the in-memory result of one pipeline run.
type Dataset struct {
	Source   string
	Index    *ContinentIndex
	Registry *Registry
	LoadedAt time.Time
}

// LoadOptions configures LoadDataset.
type LoadOptions struct {
	EmissionsPath  string
	ContinentsPath string
	Format         InputFormat
	Registry       RegistryOptions
	Observer       StageObserver
	Logger         *slog.Logger
}

// LoadDataset runs the whole pipeline over the configured files. The
// continent table and the emission lines are read concurrently; annotation
// and aggregation then run in a single pass in file order.
func LoadDataset(ctx context.Context, opts LoadOptions) (*Dataset, error) {
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry.Logger == nil {
		opts.Registry.Logger = opts.Logger
	}
	format := opts.Format
	if format == "" {
		format = FormatRaw
	}
	logger := opts.Logger.With("emissions", opts.EmissionsPath, "format", string(format))

	var (
		idx   *ContinentIndex
		lines []string
	)

	g, gctx := errgroup.WithContext(ctx)

	if format != FormatAnnotated {
		g.Go(func() error {
			start := time.Now()
			var err error
			idx, err = LoadContinentIndex(opts.ContinentsPath)
			opts.Observer.ObserveStage(StageContinents, idxLen(idx), time.Since(start), err)
			return err
		})
	}

	g.Go(func() error {
		var err error
		lines, err = readNormalizedLines(gctx, opts.EmissionsPath, format, opts.Observer)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if idx != nil {
		start := time.Now()
		for i, line := range lines {
			annotated, err := Annotate(line, idx)
			if err != nil {
				opts.Observer.ObserveStage(StageAnnotate, i, time.Since(start), err)
				return nil, fmt.Errorf("annotate line %d: %w", i+1, err)
			}
			lines[i] = annotated
		}
		opts.Observer.ObserveStage(StageAnnotate, len(lines), time.Since(start), nil)
		logger.Debug("records annotated", "continents", idx.Len(), "records", len(lines))
	}

	start := time.Now()
	reg := NewRegistry(opts.Registry)
	for i, line := range lines {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("operation cancelled: %w", err)
			}
		}
		if err := reg.AddLine(line); err != nil {
			opts.Observer.ObserveStage(StageRegistry, i, time.Since(start), err)
			return nil, fmt.Errorf("build registry: line %d: %w", i+1, err)
		}
	}
	opts.Observer.ObserveStage(StageRegistry, len(lines), time.Since(start), nil)

	minYear, _ := reg.Years().Min()
	maxYear, _ := reg.Years().Max()
	logger.Info("dataset loaded",
		"records", len(lines),
		"countries", reg.Len(),
		"skipped", reg.Skipped(),
		"min_year", minYear,
		"max_year", maxYear,
	)

	if idx == nil {
		idx = indexFromRegistry(reg)
	}
	return &Dataset{
		Source:   opts.EmissionsPath,
		Index:    idx,
		Registry: reg,
		LoadedAt: time.Now(),
	}, nil
}

// readNormalizedLines reads the emissions file and brings raw lines to the
// five-field layout. Annotated and normalized files are returned as read.
func readNormalizedLines(ctx context.Context, path string, format InputFormat, obs StageObserver) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingFile, path, err)
	}
	defer f.Close()

	start := time.Now()
	var lines []string
	err = scanLines(f, func(lineNum int, line string) error {
		if lineNum%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("operation cancelled: %w", err)
			}
		}
		if format == FormatRaw {
			cleaned, err := CleanRecord(line)
			if err != nil {
				return fmt.Errorf("%s line %d: %w", path, lineNum, err)
			}
			line = cleaned
		} else if line == "" {
			return nil
		}
		lines = append(lines, line)
		return nil
	})

	stage := StageNormalize
	if format != FormatRaw {
		stage = StageRead
	}
	obs.ObserveStage(stage, len(lines), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// indexFromRegistry rebuilds a continent index from the continents carried
// by already-annotated countries.
func indexFromRegistry(reg *Registry) *ContinentIndex {
	idx := &ContinentIndex{members: make(map[string][]string)}
	for _, c := range reg.All() {
		for _, continent := range c.Continents {
			idx.add(continent, c.ISOCode)
		}
	}
	return idx
}

// NewDataset wraps a registry built elsewhere (for example from a stored
// run) in a Dataset.
func NewDataset(source string, reg *Registry) *Dataset {
	return &Dataset{
		Source:   source,
		Index:    indexFromRegistry(reg),
		Registry: reg,
		LoadedAt: time.Now(),
	}
}

func idxLen(idx *ContinentIndex) int {
	if idx == nil {
		return 0
	}
	return idx.Len()
}
