package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// rankingCountries builds the twelve-country fixture used by the ranking
// tests, keyed by ISO code.
func rankingCountries(t *testing.T) map[string]*Country {
	t.Helper()
	fixture := []struct{ iso, name string }{
		{"ALB", "Albania"},
		{"AUT", "Austria"},
		{"BEL", "Belgium"},
		{"BOL", "Bolivia"},
		{"BRA", "Brazil"},
		{"IRL", "Ireland"},
		{"MAR", "Marocco"},
		{"NZL", "New Zealand"},
		{"PRY", "Paraguay"},
		{"PER", "Peru"},
		{"SEN", "Senegal"},
		{"THA", "Thailand"},
	}
	out := make(map[string]*Country, len(fixture))
	for _, f := range fixture {
		out[f.iso] = mustCountry(t, f.iso, f.name, nil, 0, 0.0, 0)
	}
	return out
}

type rankInput struct {
	iso   string
	value float64
}

func valuesOf(countries map[string]*Country, in []rankInput) CountryValues {
	out := make(CountryValues, len(in))
	for i, v := range in {
		out[i] = CountryValue{Country: countries[v.iso], Value: v.value, OK: true}
	}
	return out
}

func TestTopN(t *testing.T) {
	countries := rankingCountries(t)

	tests := []struct {
		name   string
		values []rankInput
		n      int
		want   []Ranked
	}{
		{
			name: "ties broken by name",
			values: []rankInput{
				{"ALB", 5}, {"AUT", 5}, {"BEL", 3}, {"BOL", 10}, {"BRA", 3}, {"IRL", 9},
				{"MAR", 7}, {"NZL", 8}, {"PRY", 7}, {"PER", 4}, {"SEN", 6}, {"THA", 0},
			},
			n: 10,
			want: []Ranked{
				{"BOL", 10}, {"IRL", 9}, {"NZL", 8}, {"MAR", 7}, {"PRY", 7},
				{"SEN", 6}, {"ALB", 5}, {"AUT", 5}, {"PER", 4}, {"BEL", 3},
			},
		},
		{
			name: "all equal values",
			values: []rankInput{
				{"ALB", 1}, {"AUT", 1}, {"BEL", 1}, {"BOL", 1}, {"BRA", 1}, {"IRL", 1},
				{"MAR", 1}, {"NZL", 1}, {"PRY", 1}, {"PER", 1}, {"SEN", 1}, {"THA", 1},
			},
			n:    5,
			want: []Ranked{{"ALB", 1}, {"AUT", 1}, {"BEL", 1}, {"BOL", 1}, {"BRA", 1}},
		},
		{
			name: "top three",
			values: []rankInput{
				{"ALB", 10}, {"MAR", 4}, {"NZL", 3}, {"PRY", 4}, {"PER", 2}, {"SEN", 7}, {"THA", 1},
			},
			n:    3,
			want: []Ranked{{"ALB", 10}, {"SEN", 7}, {"MAR", 4}},
		},
		{
			name:   "n larger than input",
			values: []rankInput{{"THA", 1}, {"ALB", 2}},
			n:      10,
			want:   []Ranked{{"ALB", 2}, {"THA", 1}},
		},
		{
			name:   "n zero",
			values: []rankInput{{"THA", 1}},
			n:      0,
			want:   []Ranked{},
		},
		{
			name:   "negative n",
			values: []rankInput{{"THA", 1}},
			n:      -3,
			want:   []Ranked{},
		},
		{
			name:   "empty input",
			values: nil,
			n:      3,
			want:   []Ranked{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TopN(valuesOf(countries, tt.values), tt.n)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("TopN mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTopN_SkipsEntriesWithoutValue(t *testing.T) {
	countries := rankingCountries(t)
	values := valuesOf(countries, []rankInput{{"ALB", 3}, {"AUT", 2}})
	values = append(values, CountryValue{Country: countries["BEL"], OK: false})

	want := []Ranked{{"ALB", 3}, {"AUT", 2}}
	if diff := cmp.Diff(want, TopN(values, 5)); diff != "" {
		t.Errorf("TopN mismatch (-want +got):\n%s", diff)
	}
}

func TestTopN_Properties(t *testing.T) {
	countries := rankingCountries(t)
	values := valuesOf(countries, []rankInput{
		{"ALB", 5}, {"AUT", 5}, {"BEL", 3}, {"BOL", 10}, {"BRA", 3}, {"IRL", 9},
		{"MAR", 7}, {"NZL", 8}, {"PRY", 7}, {"PER", 4}, {"SEN", 6}, {"THA", 0},
	})

	for n := 1; n <= 12; n++ {
		got := TopN(values, n)
		if len(got) != n {
			t.Fatalf("n=%d: len = %d", n, len(got))
		}
		seen := make(map[string]bool)
		for i, r := range got {
			if seen[r.ISOCode] {
				t.Errorf("n=%d: %s ranked twice", n, r.ISOCode)
			}
			seen[r.ISOCode] = true
			if i > 0 && got[i-1].Value < r.Value {
				t.Errorf("n=%d: values not descending at %d", n, i)
			}
		}
	}
}
