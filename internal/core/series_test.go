package core

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestShortenContinentName(t *testing.T) {
	tests := map[string]string{
		"SOUTH AMERICA": "S. AMERICA",
		"NORTH AMERICA": "N. AMERICA",
		"EUROPE":        "EUROPE",
		"":              "",
	}
	for in, want := range tests {
		if got := ShortenContinentName(in); got != want {
			t.Errorf("ShortenContinentName(%q) = %q, want %q", in, got, want)
		}
	}
}

func seriesCountries(t *testing.T) []*Country {
	t.Helper()
	l := mustCountry(t, "LSO", "Lesotho", []string{"AFRICA"}, 1975, NoEmission, 1161000)
	c := mustCountry(t, "CMR", "Cameroon", []string{"AFRICA"}, 2001, 3.324, 16358000)
	q := mustCountry(t, "QAT", "Qatar", []string{"ASIA"}, 2001, 41.215, 615000)
	b := mustCountry(t, "BRA", "Brazil", []string{"SOUTH AMERICA"}, 2001, 330.0, 176000000)
	return []*Country{l, c, q, b}
}

func TestContinentPerCapitaBars(t *testing.T) {
	bars := ContinentPerCapitaBars(seriesCountries(t), 2001)

	want := BarSeries{
		Labels: []string{"AFRICA", "ASIA", "S. AMERICA"},
		Values: []float64{0.2032033, 67.0162602, 1.875},
	}
	opt := cmpopts.EquateApprox(0, 1e-6)
	if diff := cmp.Diff(want, bars, opt); diff != "" {
		t.Errorf("bars mismatch (-want +got):\n%s", diff)
	}
}

func TestContinentHistoricalBars(t *testing.T) {
	countries := seriesCountries(t)
	mustAddYear(t, countries[1], 1990, "2.0", "")

	bars := ContinentHistoricalBars(countries, 2001)
	want := BarSeries{
		Labels: []string{"AFRICA", "ASIA", "S. AMERICA"},
		Values: []float64{5.324, 41.215, 330.0},
	}
	if diff := cmp.Diff(want, bars, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("bars mismatch (-want +got):\n%s", diff)
	}
}

func TestTopPerCapita(t *testing.T) {
	got := TopPerCapita(seriesCountries(t), 2001, 10)
	want := []string{"QAT", "BRA", "CMR"}

	codes := make([]string, len(got))
	for i, r := range got {
		codes[i] = r.ISOCode
	}
	if diff := cmp.Diff(want, codes); diff != "" {
		t.Errorf("ranking mismatch (-want +got):\n%s", diff)
	}
}

func TestTopHistorical(t *testing.T) {
	got := RankedBars(TopHistorical(seriesCountries(t), 2001, 2))
	want := BarSeries{Labels: []string{"BRA", "QAT"}, Values: []float64{330.0, 41.215}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bars mismatch (-want +got):\n%s", diff)
	}
}

func TestSampleStep(t *testing.T) {
	tests := []struct {
		from, to int
		want     int
	}{
		{1990, 2000, 1},
		{2000, 2000, 1},
		{2000, 2020, 2},
		{1750, 2020, 27},
		{2000, 2011, 1},
	}
	for _, tt := range tests {
		if got := SampleStep(tt.from, tt.to); got != tt.want {
			t.Errorf("SampleStep(%d, %d) = %d, want %d", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestEmissionSeries(t *testing.T) {
	reg := newTestRegistry(t, annotatedFixture, RegistryOptions{})

	set, err := EmissionSeries(reg, []string{"TUR", "XYZ", " AFG "}, 1958, 1962)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{"TUR", "AFG"}, set.ISOCodes); diff != "" {
		t.Errorf("ISOCodes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"XYZ"}, set.Missing); diff != "" {
		t.Errorf("Missing mismatch (-want +got):\n%s", diff)
	}

	wantValues := [][]float64{
		{0, 0, 16.9, 17.8, 0},
		{0, 0, 0, 0, 0},
	}
	if diff := cmp.Diff(wantValues, set.Values); diff != "" {
		t.Errorf("Values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1958, 1959, 1960, 1961, 1962}, set.SampledYears); diff != "" {
		t.Errorf("SampledYears mismatch (-want +got):\n%s", diff)
	}
}

func TestEmissionSeries_Sampling(t *testing.T) {
	reg := newTestRegistry(t, annotatedFixture, RegistryOptions{})

	set, err := EmissionSeries(reg, []string{"AFG"}, 1998, 2018)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set.Values[0]) != 21 {
		t.Errorf("len(Values[0]) = %d, want 21", len(set.Values[0]))
	}
	if len(set.SampledYears) != 11 || set.SampledYears[10] != 2018 {
		t.Errorf("SampledYears = %v", set.SampledYears)
	}
	if len(set.SampledValues[0]) != len(set.SampledYears) {
		t.Errorf("sampled values and years differ in length: %d vs %d",
			len(set.SampledValues[0]), len(set.SampledYears))
	}
	if got := set.SampledValues[0][10]; got != 9.439 {
		t.Errorf("last sampled value = %v, want 9.439", got)
	}
}

func TestEmissionSeries_InvalidRange(t *testing.T) {
	reg := newTestRegistry(t, annotatedFixture, RegistryOptions{})

	tests := []struct {
		name     string
		from, to int
	}{
		{"reversed", 2010, 2000},
		{"wider than the limit", 0, 2000000000},
		{"one year past the limit", 2000, 2000 + MaxSeriesSpan + 1},
		{"difference overflows", math.MinInt, math.MaxInt},
		{"negative start", -1, math.MaxInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EmissionSeries(reg, []string{"AFG"}, tt.from, tt.to)
			if !errors.Is(err, ErrInvalidYearRange) {
				t.Errorf("error = %v, want ErrInvalidYearRange", err)
			}
		})
	}
}

func TestEmissionSeries_RangeAtIntLimits(t *testing.T) {
	reg := newTestRegistry(t, annotatedFixture, RegistryOptions{})

	tests := []struct {
		name      string
		from, to  int
		wantYears []int
	}{
		{"single max year", math.MaxInt, math.MaxInt, []int{math.MaxInt}},
		{"ends at max", math.MaxInt - 2, math.MaxInt, []int{math.MaxInt - 2, math.MaxInt - 1, math.MaxInt}},
		{"single min year", math.MinInt, math.MinInt, []int{math.MinInt}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done := make(chan struct{})
			var (
				set EmissionSeriesSet
				err error
			)
			go func() {
				defer close(done)
				set, err = EmissionSeries(reg, []string{"AFG"}, tt.from, tt.to)
			}()
			select {
			case <-done:
			case <-time.After(3 * time.Second):
				t.Fatal("EmissionSeries did not return")
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.wantYears, set.SampledYears); diff != "" {
				t.Errorf("SampledYears mismatch (-want +got):\n%s", diff)
			}
			if got := len(set.Values[0]); got != len(tt.wantYears) {
				t.Errorf("len(Values[0]) = %d, want %d", got, len(tt.wantYears))
			}
		})
	}
}

func TestEmissionSeries_WidestRange(t *testing.T) {
	reg := newTestRegistry(t, annotatedFixture, RegistryOptions{})

	set, err := EmissionSeries(reg, []string{"AFG"}, 1000, 1000+MaxSeriesSpan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(set.Values[0]); got != MaxSeriesSpan+1 {
		t.Errorf("len(Values[0]) = %d, want %d", got, MaxSeriesSpan+1)
	}
	if got := len(set.SampledYears); got != 11 {
		t.Errorf("len(SampledYears) = %d, want 11", got)
	}
}
