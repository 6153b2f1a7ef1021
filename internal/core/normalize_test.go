package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCleanRecord(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "hyphen delimited with empty emission",
			input: "LSO-Lesotho-1975--1161000",
			want:  "LSO\tLesotho\t1975\t\t1161000",
		},
		{
			name:  "hyphen delimited with decimal point",
			input: "CMR-Cameroon-2001-3.324-16358000",
			want:  "CMR\tCameroon\t2001\t3.324\t16358000",
		},
		{
			name:  "comma delimiter splits decimal comma",
			input: "QAT,Qatar,2001,41,215,615000",
			want:  "QAT\tQatar\t2001\t41.215\t615000",
		},
		{
			name:  "comma delimiter with spaced name",
			input: "BIH,Bosnia and Herzegovina,2001,15,2,3800000",
			want:  "BIH\tBosnia and Herzegovina\t2001\t15.2\t3800000",
		},
		{
			name:  "space delimiter joins name and fixes decimal comma",
			input: "USA United States 2001 5,9 285000000",
			want:  "USA\tUnited States\t2001\t5.9\t285000000",
		},
		{
			name:  "hyphenated name is joined with a space",
			input: "GNB-Guinea-Bissau-1990-0.15-1000000",
			want:  "GNB\tGuinea Bissau\t1990\t0.15\t1000000",
		},
		{
			name:  "crlf line ending",
			input: "LSO-Lesotho-1975--1161000\r\n",
			want:  "LSO\tLesotho\t1975\t\t1161000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanRecord(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CleanRecord(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if n := len(strings.Split(got, "\t")); n != NormalizedFields {
				t.Errorf("field count = %d, want %d", n, NormalizedFields)
			}
		})
	}
}

func TestNormalizeRecord(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already normalized",
			input: "AFG\tAfghanistan\t1949\t0.015\t7663783",
			want:  "AFG\tAfghanistan\t1949\t0.015\t7663783",
		},
		{
			name:  "multi token name",
			input: "COD\tDemocratic\tRepublic\tof\tCongo\t2006\t1.553\t56578000",
			want:  "COD\tDemocratic Republic of Congo\t2006\t1.553\t56578000",
		},
		{
			name:  "decimal comma inside emission",
			input: "QAT\tQatar\t2001\t41,215\t615000",
			want:  "QAT\tQatar\t2001\t41.215\t615000",
		},
		{
			name:  "empty population",
			input: "QAT\tQatar\t2001\t41\t215\t",
			want:  "QAT\tQatar\t2001\t41.215\t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeRecord(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeRecord(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeRecord_Malformed(t *testing.T) {
	inputs := []string{
		"AB\tC",
		"AFG\tAfghanistan\t1949\t0.015\t7663783\t12\t13",
	}
	for _, input := range inputs {
		_, err := NormalizeRecord(input)
		if !errors.Is(err, ErrMalformedRecord) {
			t.Errorf("NormalizeRecord(%q) error = %v, want ErrMalformedRecord", input, err)
		}
	}
}

func TestParseAnnotated(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Record
	}{
		{
			name:  "two continents",
			input: "RUS\tRussia\tASIA,EUROPE\t1971\t1533.262\t130831000",
			want: Record{
				ISOCode: "RUS", Name: "Russia", Continents: []string{"ASIA", "EUROPE"},
				Year: 1971, CO2: 1533.262, HasCO2: true, Population: 130831000, HasPopulation: true,
			},
		},
		{
			name:  "empty emission",
			input: "AFG\tAfghanistan\tASIA\t1949\t\t7663783",
			want: Record{
				ISOCode: "AFG", Name: "Afghanistan", Continents: []string{"ASIA"},
				Year: 1949, Population: 7663783, HasPopulation: true,
			},
		},
		{
			name:  "no continent and no population",
			input: "XKX\tNowhere\t\t2000\t1.5\t\n",
			want: Record{
				ISOCode: "XKX", Name: "Nowhere", Continents: []string{},
				Year: 2000, CO2: 1.5, HasCO2: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnnotated(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseAnnotated mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseAnnotated_Errors(t *testing.T) {
	inputs := []string{
		"RUS\tRussia\t1971\t1533.262\t130831000",
		"RUS\tRussia\tASIA\tyear\t1533.262\t130831000",
		"RUS\tRussia\tASIA\t1971\tlots\t130831000",
		"RUS\tRussia\tASIA\t1971\t1.0\t13.5",
		"USA\tUnited States\tNORTH AMERICA\t2000\tNaN\t100",
		"USA\tUnited States\tNORTH AMERICA\t2000\tInf\t100",
		"USA\tUnited States\tNORTH AMERICA\t2000\t+Infinity\t100",
		"USA\tUnited States\tNORTH AMERICA\t2000\t-inf\t100",
		"USA\tUnited States\tNORTH AMERICA\t2000\t1e400\t100",
	}
	for _, input := range inputs {
		if _, err := ParseAnnotated(input); !errors.Is(err, ErrMalformedRecord) {
			t.Errorf("ParseAnnotated(%q) error = %v, want ErrMalformedRecord", input, err)
		}
	}
}

func TestParseNormalized(t *testing.T) {
	got, err := ParseNormalized("LSO\tLesotho\t1975\t\t1161000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.HasCO2 {
		t.Error("expected no emission")
	}
	if !got.HasPopulation || got.Population != 1161000 {
		t.Errorf("population = %d (%v), want 1161000", got.Population, got.HasPopulation)
	}
	if got.Continents != nil {
		t.Errorf("continents = %v, want nil", got.Continents)
	}
	if got.String() != "LSO\tLesotho\t1975\t\t1161000" {
		t.Errorf("String() = %q", got.String())
	}
}
