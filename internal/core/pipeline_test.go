package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const rawFixture = "LSO-Lesotho-1975--1161000\n" +
	"CMR-Cameroon-2001-3.324-16358000\n" +
	"QAT,Qatar,2001,41,215,615000\n" +
	"CMR Cameroon 2002 3,5 16800000\n"

const continentsFixture = "LSO\tAfrica\nCMR\tAfrica\nQAT\tAsia\n"

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

type recordingObserver struct {
	mu     sync.Mutex
	stages map[string]int
	errs   map[string]error
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{stages: make(map[string]int), errs: make(map[string]error)}
}

func (o *recordingObserver) ObserveStage(stage string, records int, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages[stage] = records
	if err != nil {
		o.errs[stage] = err
	}
}

func TestFileStages(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	raw := writeFixture(t, dir, "raw.txt", rawFixture)
	continents := writeFixture(t, dir, "continents.txt", continentsFixture)
	cleaned := filepath.Join(dir, "cleaned.txt")
	normalized := filepath.Join(dir, "normalized.txt")
	annotated := filepath.Join(dir, "annotated.txt")

	n, err := CleanFile(ctx, raw, cleaned)
	if err != nil {
		t.Fatalf("CleanFile: %v", err)
	}
	if n != 4 {
		t.Errorf("CleanFile wrote %d lines, want 4", n)
	}
	wantCleaned := []string{
		"LSO\tLesotho\t1975\t\t1161000",
		"CMR\tCameroon\t2001\t3.324\t16358000",
		"QAT\tQatar\t2001\t41\t215\t615000",
		"CMR\tCameroon\t2002\t3,5\t16800000",
	}
	if diff := cmp.Diff(wantCleaned, readLines(t, cleaned)); diff != "" {
		t.Errorf("cleaned mismatch (-want +got):\n%s", diff)
	}

	if _, err := FinalCleanFile(ctx, cleaned, normalized); err != nil {
		t.Fatalf("FinalCleanFile: %v", err)
	}
	wantNormalized := []string{
		"LSO\tLesotho\t1975\t\t1161000",
		"CMR\tCameroon\t2001\t3.324\t16358000",
		"QAT\tQatar\t2001\t41.215\t615000",
		"CMR\tCameroon\t2002\t3.5\t16800000",
	}
	if diff := cmp.Diff(wantNormalized, readLines(t, normalized)); diff != "" {
		t.Errorf("normalized mismatch (-want +got):\n%s", diff)
	}

	if _, err := AddContinentsFile(ctx, normalized, continents, annotated); err != nil {
		t.Fatalf("AddContinentsFile: %v", err)
	}
	wantAnnotated := []string{
		"LSO\tLesotho\tAFRICA\t1975\t\t1161000",
		"CMR\tCameroon\tAFRICA\t2001\t3.324\t16358000",
		"QAT\tQatar\tASIA\t2001\t41.215\t615000",
		"CMR\tCameroon\tAFRICA\t2002\t3.5\t16800000",
	}
	if diff := cmp.Diff(wantAnnotated, readLines(t, annotated)); diff != "" {
		t.Errorf("annotated mismatch (-want +got):\n%s", diff)
	}

	reg, err := LoadRegistryFile(annotated, RegistryOptions{})
	if err != nil {
		t.Fatalf("LoadRegistryFile: %v", err)
	}
	if reg.Len() != 3 {
		t.Errorf("Len() = %d, want 3", reg.Len())
	}
}

func TestCleanFile_Errors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	_, err := CleanFile(ctx, filepath.Join(dir, "missing.txt"), filepath.Join(dir, "out.txt"))
	if !errors.Is(err, ErrMissingFile) {
		t.Errorf("error = %v, want ErrMissingFile", err)
	}

	bad := writeFixture(t, dir, "bad.txt", "LSO-Lesotho-1975--1161000\nnodelimiterhere\n")
	_, err = CleanFile(ctx, bad, filepath.Join(dir, "out.txt"))
	if !errors.Is(err, ErrNoDelimiterFound) {
		t.Errorf("error = %v, want ErrNoDelimiterFound", err)
	}
	if err != nil && !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q should name line 2", err)
	}
}

func TestLoadDataset_Raw(t *testing.T) {
	dir := t.TempDir()
	obs := newRecordingObserver()

	ds, err := LoadDataset(context.Background(), LoadOptions{
		EmissionsPath:  writeFixture(t, dir, "raw.txt", rawFixture),
		ContinentsPath: writeFixture(t, dir, "continents.txt", continentsFixture),
		Format:         FormatRaw,
		Observer:       obs,
	})
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}

	reg := ds.Registry
	if reg.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", reg.Len())
	}
	cmr, _ := reg.Get("CMR")
	if cmr.EmissionCount() != 2 {
		t.Errorf("CMR emissions = %d, want 2", cmr.EmissionCount())
	}
	if got := cmr.CO2ByYear(2002); got != 3.5 {
		t.Errorf("CMR 2002 = %v, want 3.5", got)
	}
	lso, _ := reg.Get("LSO")
	if lso.EmissionCount() != 0 || lso.PopulationCount() != 1 {
		t.Errorf("LSO counts = %d/%d, want 0/1", lso.EmissionCount(), lso.PopulationCount())
	}

	if got, _ := reg.Years().Min(); got != 1975 {
		t.Errorf("Min() = %d, want 1975", got)
	}
	if got, _ := reg.Years().Max(); got != 2002 {
		t.Errorf("Max() = %d, want 2002", got)
	}

	if diff := cmp.Diff([]string{"AFRICA", "ASIA"}, ds.Index.Continents()); diff != "" {
		t.Errorf("continents mismatch (-want +got):\n%s", diff)
	}

	want := map[string]int{
		StageNormalize:  4,
		StageContinents: 2,
		StageAnnotate:   4,
		StageRegistry:   4,
	}
	if diff := cmp.Diff(want, obs.stages); diff != "" {
		t.Errorf("observed stages mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDataset_Annotated(t *testing.T) {
	dir := t.TempDir()

	ds, err := LoadDataset(context.Background(), LoadOptions{
		EmissionsPath: writeFixture(t, dir, "annotated.txt", annotatedFixture),
		Format:        FormatAnnotated,
	})
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}
	if ds.Registry.Len() != 4 {
		t.Errorf("Len() = %d, want 4", ds.Registry.Len())
	}
	if diff := cmp.Diff([]string{"TUR", "AFG"}, ds.Index.Members("ASIA")[:2]); diff != "" {
		t.Errorf("ASIA members mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDataset_Errors(t *testing.T) {
	dir := t.TempDir()
	raw := writeFixture(t, dir, "raw.txt", rawFixture)
	continents := writeFixture(t, dir, "continents.txt", continentsFixture)

	t.Run("missing continents file", func(t *testing.T) {
		_, err := LoadDataset(context.Background(), LoadOptions{
			EmissionsPath:  raw,
			ContinentsPath: filepath.Join(dir, "missing.txt"),
		})
		if !errors.Is(err, ErrMissingFile) {
			t.Errorf("error = %v, want ErrMissingFile", err)
		}
	})

	t.Run("invalid code", func(t *testing.T) {
		bad := writeFixture(t, dir, "bad.txt", "a2c-Broken-2001-1.0-100\n")
		_, err := LoadDataset(context.Background(), LoadOptions{
			EmissionsPath:  bad,
			ContinentsPath: continents,
		})
		if !errors.Is(err, ErrInvalidISOCode) {
			t.Errorf("error = %v, want ErrInvalidISOCode", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		old := ContextCheckInterval
		ContextCheckInterval = 1
		t.Cleanup(func() { ContextCheckInterval = old })

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := LoadDataset(ctx, LoadOptions{EmissionsPath: raw, ContinentsPath: continents})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}

func TestParseInputFormat(t *testing.T) {
	for _, s := range []string{"raw", "normalized", "annotated", ""} {
		if _, err := ParseInputFormat(s); err != nil {
			t.Errorf("ParseInputFormat(%q): %v", s, err)
		}
	}
	if _, err := ParseInputFormat("xml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}
